/*
parser_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"testing"
)

func TestParserCommandReplyNoBody(t *testing.T) {
	raw := "Content-Type: command/reply\nReply-Text: +OK accepted\n\n"
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ContentType() != ContentCommandReply {
		t.Errorf("expected command/reply, got %s", f.ContentType())
	}
	if f.ReplyText() != "+OK accepted" {
		t.Errorf("unexpected Reply-Text: %q", f.ReplyText())
	}
	if !f.ReplyOK() {
		t.Errorf("expected ReplyOK true")
	}
}

func TestParserEventWithBody(t *testing.T) {
	body := "Event-Name: HEARTBEAT\nCore-UUID: abc\n\n"
	raw := "Content-Length: " + strconv.Itoa(len(body)) + "\nContent-Type: text/event-plain\n\n" + body
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))
	f, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsEvent() {
		t.Errorf("expected frame to be classified as an event")
	}
	if string(f.Body) != body {
		t.Errorf("body mismatch: got %q want %q", f.Body, body)
	}
}

func TestParserMultipleFramesInSequence(t *testing.T) {
	raw := "Content-Type: command/reply\nReply-Text: +OK one\n\n" +
		"Content-Type: command/reply\nReply-Text: +OK two\n\n"
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))

	f1, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error on first frame: %v", err)
	}
	if f1.ReplyText() != "+OK one" {
		t.Errorf("unexpected first reply: %q", f1.ReplyText())
	}

	f2, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error on second frame: %v", err)
	}
	if f2.ReplyText() != "+OK two" {
		t.Errorf("unexpected second reply: %q", f2.ReplyText())
	}
}

func TestParserCleanEOFBetweenFrames(t *testing.T) {
	p := NewParser(bufio.NewReader(strings.NewReader("")))
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestParserTruncatedBodyIsProtocolError(t *testing.T) {
	raw := "Content-Length: 100\nContent-Type: text/event-plain\n\nshort"
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))
	_, err := p.Next()
	if err == nil {
		t.Fatal("expected an error for a truncated body")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Errorf("expected *ProtocolError, got %T", err)
	}
}

func TestParserMalformedHeaderLine(t *testing.T) {
	raw := "not-a-header-line\n\n"
	p := NewParser(bufio.NewReader(strings.NewReader(raw)))
	_, err := p.Next()
	if _, ok := err.(*ProtocolError); !ok {
		t.Errorf("expected *ProtocolError, got %T (%v)", err, err)
	}
}

func TestOrderedHeadersPreservesInsertionOrder(t *testing.T) {
	h := newOrderedHeaders()
	h.Set("Event-Name", "HEARTBEAT")
	h.Set("Core-UUID", "abc")
	h.Set("Event-Name", "CHANGED")

	keys := h.Keys()
	if len(keys) != 2 || keys[0] != "Event-Name" || keys[1] != "Core-UUID" {
		t.Errorf("unexpected key order: %v", keys)
	}
	if h.Get("Event-Name") != "CHANGED" {
		t.Errorf("expected overwritten value, got %q", h.Get("Event-Name"))
	}
}

