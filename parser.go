/*
parser.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Parser consumes a byte stream and emits a lazy sequence of Frames, per
// spec.md section 4.1. It is a two-state machine (READ_HEADERS,
// READ_BODY); Next blocks on input and yields at most one frame per call.
// Grounded on FSConn.readHeaders/readEvent/readBody (fsconn.go): the
// teacher's manual ReadBytes('\n') accumulation loop is kept verbatim in
// spirit since the wire format is exactly this simple and net/textproto
// would buy nothing the teacher's loop doesn't already do.
type Parser struct {
	r *bufio.Reader
}

// NewParser wraps r. r should already be (or be wrapped in) a *bufio.Reader
// with a generous size, since FreeSWITCH can emit large event bodies.
func NewParser(r *bufio.Reader) *Parser {
	return &Parser{r: r}
}

// Next reads one frame: headers up to the first blank line, then a body
// of Content-Length bytes if that header is present. Unexpected EOF
// mid-frame is reported as a *ProtocolError; a clean EOF before any header
// bytes are read is returned as io.EOF unchanged so callers can distinguish
// "nothing more to read" from "the frame was cut off".
func (p *Parser) Next() (*Frame, error) {
	headers, err := p.readHeaders()
	if err != nil {
		return nil, err
	}

	frame := &Frame{Headers: headers}
	if !headers.Has("Content-Length") {
		parseFramesTotal.WithLabelValues(string(frame.ContentType())).Inc()
		return frame, nil
	}

	n, err := strconv.Atoi(headers.Get("Content-Length"))
	if err != nil {
		parseErrorsTotal.Inc()
		return nil, &ProtocolError{Reason: "invalid Content-Length header", Err: err}
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(p.r, body); err != nil {
		parseErrorsTotal.Inc()
		return nil, &ProtocolError{Reason: "short body (content-length underflow)", Err: err}
	}
	frame.Body = body
	frame.hasBody = true
	parseFramesTotal.WithLabelValues(string(frame.ContentType())).Inc()
	return frame, nil
}

// readHeaders implements READ_HEADERS: accumulate "name: value" lines
// (split on the first ':', one leading space trimmed) until a blank line.
func (p *Parser) readHeaders() (*orderedHeaders, error) {
	headers := newOrderedHeaders()
	lineCount := 0
	for {
		line, err := p.r.ReadString('\n')
		if err != nil {
			if lineCount == 0 && line == "" && err == io.EOF {
				return nil, io.EOF
			}
			parseErrorsTotal.Inc()
			return nil, &ProtocolError{Reason: "connection closed mid-frame", Err: err}
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		idx := bytes.IndexByte([]byte(trimmed), ':')
		if idx < 0 {
			parseErrorsTotal.Inc()
			return nil, &ProtocolError{Reason: fmt.Sprintf("malformed header line %q", trimmed)}
		}
		name := trimmed[:idx]
		value := trimmed[idx+1:]
		value = strings.TrimPrefix(value, " ")
		headers.Set(name, value)
		lineCount++
	}
	return headers, nil
}

var (
	parseFramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esl_frames_parsed_total",
		Help: "Frames parsed off the wire, labeled by content-type.",
	}, []string{"content_type"})
	parseErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esl_parse_errors_total",
		Help: "Frame parse failures (malformed headers, content-length underflow).",
	})
)

func init() {
	prometheus.MustRegister(parseFramesTotal, parseErrorsTotal)
}
