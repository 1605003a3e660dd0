/*
inbound.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"fmt"
	"net"
)

// Dial opens an inbound connection to FreeSWITCH's mod_event_socket at
// cfg.Host:cfg.Port, performs the auth/request handshake with
// cfg.Password, and starts the read loop, per spec.md section 4.6. Dial
// does not return until authentication succeeds or fails, so every
// *EventSocket it hands back is already authenticated.
//
// Grounded on FSConn's connect-then-authenticate sequence (fsconn.go),
// generalized into the EventSocket/Parser split instead of FSConn's
// direct buffer management.
func Dial(ctx context.Context, cfg Config) (*EventSocket, error) {
	cfg = cfg.withDefaults()
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.addr())
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Err: err}
	}

	sock := newEventSocket(conn, cfg)
	go sock.run()

	if err := sock.authenticate(ctx); err != nil {
		sock.fail(err)
		return nil, err
	}
	return sock, nil
}

// authenticate performs the synchronous auth/request -> auth <password>
// -> +OK/-ERR exchange described in spec.md section 4.6. The initial
// auth/request frame has no waiter queue to complete: dispatch closes
// authRequested when it arrives, and authenticate waits on that signal
// before sending the auth command.
func (s *EventSocket) authenticate(ctx context.Context) error {
	authCtx, cancel := context.WithTimeout(ctx, s.cfg.ResponseTimeout)
	defer cancel()

	select {
	case <-s.authRequested:
	case <-authCtx.Done():
		return &TimeoutError{Op: "auth/request", Err: authCtx.Err()}
	case <-s.closed:
		return &ConnectionError{Op: "auth", Err: s.closeErr}
	}

	reply, err := s.sendCommandUnchecked(authCtx, fmt.Sprintf("auth %s", s.cfg.Password))
	if err != nil {
		return err
	}
	if !reply.Success {
		return &AuthError{ReplyText: reply.ReplyText}
	}
	s.markAuthed()
	return nil
}
