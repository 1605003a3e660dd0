/*
eventsocket.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SendCommand issues a raw command/reply verb (e.g. "filter",
// "subscribe_events", "exit") and awaits its command/reply frame, per
// spec.md section 4.1. cmd must not include the trailing blank line; it
// is appended here. Returns ErrAuthPending if called on an inbound
// socket before the auth handshake has completed (spec.md section 4.2:
// "Until acceptance, other operations return an auth-pending error").
func (s *EventSocket) SendCommand(ctx context.Context, cmd string) (*CommandReply, error) {
	if !s.isAuthed() {
		return nil, ErrAuthPending
	}
	return s.sendCommandUnchecked(ctx, cmd)
}

// sendCommandUnchecked is SendCommand without the auth gate, used by the
// inbound handshake itself to send the "auth <password>" line before
// isAuthed() can possibly be true.
func (s *EventSocket) sendCommandUnchecked(ctx context.Context, cmd string) (*CommandReply, error) {
	return s.sendAwaiting(ctx, "command", s.cmdWaiters, cmd+"\n\n")
}

// SendAPI issues a blocking "api <command>" and awaits its api/response
// frame, per spec.md section 4.1. Returns ErrAuthPending pre-auth, as
// SendCommand does.
func (s *EventSocket) SendAPI(ctx context.Context, apiCmd string) (*ApiResponse, error) {
	if !s.isAuthed() {
		return nil, ErrAuthPending
	}
	start := time.Now()
	defer func() { commandDuration.WithLabelValues("api").Observe(time.Since(start).Seconds()) }()

	if err := waitLimiter(ctx, s.limiter); err != nil {
		return nil, err
	}
	w := s.apiWaiters
	var ww *waiter
	if err := s.withWriteLock("api "+apiCmd+"\n\n", func() { ww = w.enqueue() }); err != nil {
		return nil, err
	}
	res, err := s.awaitWaiter(ctx, w, ww)
	if err != nil {
		return nil, err
	}
	return newAPIResponse(res), nil
}

// BgAPI issues "bgapi <command>" and returns once FreeSWITCH has accepted
// the job (Job-UUID known); the eventual BackgroundJobResult arrives on
// the returned channel when the matching BACKGROUND_JOB event is
// observed, per spec.md section 4.1/4.2. The channel is closed without a
// value if the connection is torn down first; callers should treat a
// closed-without-value channel as ErrJobNeverArrived.
//
// An optional pre-chosen job UUID may be passed as presetJobUUID; when
// omitted, one is minted here and sent to FreeSWITCH as the Job-UUID
// header so the caller never has to parse it back out of the
// command/reply (spec.md section 4.2: "Otherwise the returned
// command/reply header Job-UUID supplies it" describes the no-header
// case, which this client avoids by always sending one).
func (s *EventSocket) BgAPI(ctx context.Context, apiCmd string, presetJobUUID ...string) (jobUUID string, result <-chan *BackgroundJobResult, err error) {
	if !s.isAuthed() {
		return "", nil, ErrAuthPending
	}
	if len(presetJobUUID) > 0 && presetJobUUID[0] != "" {
		jobUUID = presetJobUUID[0]
	} else {
		jobUUID = uuid.NewString()
	}
	ch := make(chan *BackgroundJobResult, 1)

	s.jobMu.Lock()
	if s.jobWait == nil {
		s.jobMu.Unlock()
		return "", nil, &ConnectionError{Op: "bgapi", Err: s.closeErr}
	}
	s.jobWait[jobUUID] = ch
	jobsInFlight.Set(float64(len(s.jobWait)))
	s.jobMu.Unlock()

	cmd := fmt.Sprintf("bgapi %s\nJob-UUID: %s\n\n", apiCmd, jobUUID)
	reply, err := s.sendAwaiting(ctx, "bgapi", s.cmdWaiters, cmd)
	if err != nil {
		s.jobMu.Lock()
		delete(s.jobWait, jobUUID)
		s.jobMu.Unlock()
		return "", nil, err
	}
	if !reply.Success {
		s.jobMu.Lock()
		delete(s.jobWait, jobUUID)
		s.jobMu.Unlock()
		return "", nil, &CommandError{ReplyText: reply.ReplyText}
	}
	return jobUUID, ch, nil
}

// ExecuteApp runs a dialplan application on uuid's channel via a
// "sendmsg" with "call-command: execute" (spec.md section 4.4). When async is false, it blocks
// until the matching CHANNEL_EXECUTE_COMPLETE event is observed and
// returns it; when true, it returns as soon as the command/reply for the
// execute_app request itself arrives.
func (s *EventSocket) ExecuteApp(ctx context.Context, channelUUID, app, args string, async bool) (*EventMessage, error) {
	if !s.isAuthed() {
		return nil, ErrAuthPending
	}
	appUUID := newAppUUID()
	var execCh chan *EventMessage
	if !async {
		execCh = make(chan *EventMessage, 1)
		s.execMu.Lock()
		if s.execWait == nil {
			s.execMu.Unlock()
			return nil, &ConnectionError{Op: "execute_app", Err: s.closeErr}
		}
		s.execWait[execKey(channelUUID, app, appUUID)] = execCh
		s.execMu.Unlock()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "sendmsg %s\ncall-command: execute\nexecute-app-name: %s\n", channelUUID, app)
	if args != "" {
		fmt.Fprintf(&b, "execute-app-arg: %s\n", args)
	}
	fmt.Fprintf(&b, "Event-UUID: %s\n", appUUID)
	if async {
		b.WriteString("event-lock: false\n")
	} else {
		b.WriteString("event-lock: true\n")
	}
	b.WriteString("\n")

	reply, err := s.sendAwaiting(ctx, "execute_app", s.cmdWaiters, b.String())
	if err != nil {
		if !async {
			s.execMu.Lock()
			delete(s.execWait, execKey(channelUUID, app, appUUID))
			s.execMu.Unlock()
		}
		return nil, err
	}
	if !reply.Success {
		if !async {
			s.execMu.Lock()
			delete(s.execWait, execKey(channelUUID, app, appUUID))
			s.execMu.Unlock()
		}
		return nil, &CommandError{ReplyText: reply.ReplyText}
	}
	if async {
		return nil, nil
	}

	select {
	case ev, ok := <-execCh:
		if !ok {
			return nil, &ConnectionError{Op: "execute_app", Err: s.closeErr}
		}
		return ev, nil
	case <-ctx.Done():
		s.execMu.Lock()
		delete(s.execWait, execKey(channelUUID, app, appUUID))
		s.execMu.Unlock()
		return nil, &TimeoutError{Op: "execute_app " + app, Err: ctx.Err()}
	case <-s.closed:
		return nil, &ConnectionError{Op: "execute_app", Err: s.closeErr}
	}
}

func newAppUUID() string { return uuid.NewString() }

// SubscribeEvents issues "event plain <names...>" (or "event plain all")
// so the connection starts receiving the named events, per spec.md
// section 4.6. It does not itself return an event stream; call Events
// to obtain one.
func (s *EventSocket) SubscribeEvents(ctx context.Context, names ...string) (*CommandReply, error) {
	if len(names) == 0 {
		names = []string{"all"}
	}
	return s.SendCommand(ctx, "event plain "+strings.Join(names, " "))
}

// Filter narrows the event stream to events matching header=value, per
// spec.md section 4.6.
func (s *EventSocket) Filter(ctx context.Context, header, value string) (*CommandReply, error) {
	return s.SendCommand(ctx, fmt.Sprintf("filter %s %s", header, value))
}

// Events returns a channel of every event this connection receives from
// here on, and a cancel function to stop receiving and free the
// subscription. Per spec.md section 4.2, a slow consumer is evicted
// (its channel closed) rather than allowed to block other consumers or
// the parser.
func (s *EventSocket) Events() (<-chan *EventMessage, func()) {
	return s.broadcaster.subscribe()
}

// Exit issues the "exit" command, telling FreeSWITCH to close the
// socket from its side once the reply is sent.
func (s *EventSocket) Exit() (*CommandReply, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	return s.SendCommand(ctx, "exit")
}

// sendAwaiting is the shared plumbing behind SendCommand/BgAPI/ExecuteApp:
// write raw under the writer lock while enqueueing a waiter on q in the
// same critical section, then await its completion honoring ctx. On
// ctx cancellation/timeout the waiter is tombstoned rather than removed,
// preserving FIFO alignment for replies still in flight (spec.md section
// 5, Cancellation).
func (s *EventSocket) sendAwaiting(ctx context.Context, verb string, q *waiterQueue, raw string) (*CommandReply, error) {
	start := time.Now()
	defer func() { commandDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds()) }()

	if err := waitLimiter(ctx, s.limiter); err != nil {
		return nil, err
	}
	var w *waiter
	if err := s.withWriteLock(raw, func() { w = q.enqueue() }); err != nil {
		return nil, err
	}
	frame, err := s.awaitWaiter(ctx, q, w)
	if err != nil {
		return nil, err
	}
	return newCommandReply(frame), nil
}

func (s *EventSocket) awaitWaiter(ctx context.Context, q *waiterQueue, w *waiter) (*Frame, error) {
	select {
	case res := <-w.ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.frame, nil
	case <-ctx.Done():
		q.tombstone(w)
		return nil, &TimeoutError{Op: q.name, Err: ctx.Err()}
	case <-s.closed:
		return nil, &ConnectionError{Op: q.name, Err: s.closeErr}
	}
}
