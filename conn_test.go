/*
conn_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeFreeSwitch writes raw wire bytes to conn on demand and reads
// whatever the EventSocket sends, line-buffered, so tests can script a
// scripted exchange without a real FreeSwitch.
type fakeFreeSwitch struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newFakeFreeSwitch(conn net.Conn) *fakeFreeSwitch {
	return &fakeFreeSwitch{conn: conn, reader: bufio.NewReader(conn)}
}

func (f *fakeFreeSwitch) send(t *testing.T, raw string) {
	t.Helper()
	_, err := f.conn.Write([]byte(raw))
	require.NoError(t, err)
}

// readCommandLine reads up to the blank line terminating one client
// command, returning it verbatim (used to assert on what was written).
func (f *fakeFreeSwitch) readCommandLine(t *testing.T) string {
	t.Helper()
	var out string
	for {
		line, err := f.reader.ReadString('\n')
		require.NoError(t, err)
		out += line
		if line == "\n" {
			return out
		}
	}
}

func TestEventSocketSendCommandFIFOAlignment(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	fake := newFakeFreeSwitch(client)
	sock := newEventSocket(server, Config{})
	sock.markAuthed()
	go sock.run()

	type result struct {
		idx   int
		reply *CommandReply
	}
	results := make(chan result, 2)
	for i := 1; i <= 2; i++ {
		go func(i int) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			reply, err := sock.SendCommand(ctx, "command number")
			require.NoError(t, err)
			results <- result{idx: i, reply: reply}
		}(i)
	}

	fake.readCommandLine(t)
	fake.send(t, "Content-Type: command/reply\nReply-Text: +OK first\n\n")
	fake.readCommandLine(t)
	fake.send(t, "Content-Type: command/reply\nReply-Text: +OK second\n\n")

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			seen[r.reply.ReplyText] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for command reply")
		}
	}
	require.True(t, seen["+OK first"])
	require.True(t, seen["+OK second"])
}

func TestEventSocketBgAPIDeliversOnMatchingJobUUID(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	fake := newFakeFreeSwitch(client)
	sock := newEventSocket(server, Config{})
	sock.markAuthed()
	go sock.run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	type bgResult struct {
		jobUUID string
		result  <-chan *BackgroundJobResult
		err     error
	}
	resCh := make(chan bgResult, 1)
	go func() {
		jobUUID, result, err := sock.BgAPI(ctx, "status")
		resCh <- bgResult{jobUUID, result, err}
	}()

	// BgAPI blocks until the command/reply for the "bgapi" line itself
	// arrives, so the wire's own Job-UUID header — not r.jobUUID, which
	// doesn't exist yet — is what the ack below must echo.
	cmdLine := fake.readCommandLine(t)
	jobUUID := extractHeaderValue(t, cmdLine, "Job-UUID")
	fake.send(t, "Content-Type: command/reply\nReply-Text: +OK Job-UUID: "+jobUUID+"\n\n")

	r := <-resCh
	require.NoError(t, r.err)
	require.Equal(t, jobUUID, r.jobUUID)

	body := "+OK system ready\n"
	inner := "Event-Name: BACKGROUND_JOB\nJob-UUID: " + jobUUID + "\n\n" + body
	ev := "Content-Length: " + strconv.Itoa(len(inner)) + "\nContent-Type: text/event-plain\n\n" + inner
	fake.send(t, ev)

	select {
	case jobResult := <-r.result:
		require.NotNil(t, jobResult)
		require.Equal(t, jobUUID, jobResult.JobUUID)
		require.True(t, jobResult.Success)
	case <-time.After(time.Second):
		t.Fatal("BACKGROUND_JOB result never delivered")
	}
}

func TestEventSocketGatesOperationsUntilAuthed(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	sock := newEventSocket(server, Config{})
	go sock.run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := sock.SendCommand(ctx, "status")
	require.ErrorIs(t, err, ErrAuthPending)

	_, err = sock.SendAPI(ctx, "status")
	require.ErrorIs(t, err, ErrAuthPending)

	_, _, err = sock.BgAPI(ctx, "status")
	require.ErrorIs(t, err, ErrAuthPending)

	_, err = sock.ExecuteApp(ctx, "some-uuid", "playback", "file.wav", false)
	require.ErrorIs(t, err, ErrAuthPending)

	sock.markAuthed()
	fake := newFakeFreeSwitch(client)
	go func() {
		_, _ = sock.SendCommand(ctx, "status")
	}()
	fake.readCommandLine(t)
	fake.send(t, "Content-Type: command/reply\nReply-Text: +OK\n\n")
}

// extractHeaderValue pulls "name: value" out of a raw multi-line command,
// used to read back the Job-UUID the client itself minted and sent.
func extractHeaderValue(t *testing.T, raw, name string) string {
	t.Helper()
	prefix := name + ": "
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	t.Fatalf("header %q not found in %q", name, raw)
	return ""
}

