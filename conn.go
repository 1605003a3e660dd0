/*
conn.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// EventSocket owns one TCP connection to FreeSWITCH's mod_event_socket.
// It drives the Parser, serializes command writes behind a single lock,
// maintains the command/api FIFOs and the bg_api job table, and publishes
// the event stream to a broadcaster, per spec.md section 4.2.
//
// Grounded on FSConn (fsconn.go): the writer-lock-then-enqueue-waiter
// pairing and the job-uuid map are kept from there; generalized into two
// independent FIFOs (instead of one shared replies channel) and a
// timeout/tombstone-aware waiter so FIFO alignment survives cancellation
// (spec.md section 5).
type EventSocket struct {
	conn   net.Conn
	reader *bufio.Reader
	parser *Parser
	cfg    Config
	logger Logger

	writeMu sync.Mutex

	cmdWaiters *waiterQueue
	apiWaiters *waiterQueue

	jobMu   sync.Mutex
	jobWait map[string]chan *BackgroundJobResult

	execMu   sync.Mutex
	execWait map[string]chan *EventMessage

	broadcaster *broadcaster
	limiter     *rate.Limiter

	authed        chan struct{}
	authOnce      sync.Once
	authRequested chan struct{}
	authReqOnce   sync.Once

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	health *healthChecker
}

func newEventSocket(conn net.Conn, cfg Config) *EventSocket {
	cfg = cfg.withDefaults()
	s := &EventSocket{
		conn:        conn,
		reader:      bufio.NewReaderSize(conn, 8192),
		cfg:         cfg,
		logger:      cfg.Logger,
		cmdWaiters:  newWaiterQueue("command"),
		apiWaiters:  newWaiterQueue("api"),
		jobWait:     make(map[string]chan *BackgroundJobResult),
		execWait:    make(map[string]chan *EventMessage),
		broadcaster: newBroadcaster(cfg.EventBufferSize, cfg.SlowConsumerGrace, cfg.Logger),
		authed:        make(chan struct{}),
		authRequested: make(chan struct{}),
		closed:        make(chan struct{}),
	}
	s.parser = NewParser(s.reader)
	return s
}

// SetCommandLimiter installs a rate limiter paced outbound commands must
// acquire before issuing (spec.md's concurrency model has no notion of
// this; it's a SPEC_FULL.md domain-stack addition). Pass nil to disable.
func (s *EventSocket) SetCommandLimiter(l *rate.Limiter) {
	s.writeMu.Lock()
	s.limiter = l
	s.writeMu.Unlock()
}

// markAuthed unblocks operations gated on ErrAuthPending. Idempotent.
func (s *EventSocket) markAuthed() {
	s.authOnce.Do(func() { close(s.authed) })
}

func (s *EventSocket) isAuthed() bool {
	select {
	case <-s.authed:
		return true
	default:
		return false
	}
}

// write sends raw onto the wire under the writer lock. Command issuance
// and waiter enqueue must happen atomically with respect to other
// writers (spec.md section 5), so callers enqueue their waiter(s) while
// still holding writeMu via withWriteLock.
func (s *EventSocket) write(raw string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.Write([]byte(raw)); err != nil {
		go s.fail(&ConnectionError{Op: "write", Err: err})
		return &ConnectionError{Op: "write", Err: err}
	}
	return nil
}

// withWriteLock runs enqueue then writes raw while holding the writer
// lock, guaranteeing no other command can be interleaved between this
// command's waiter joining the FIFO and its bytes hitting the wire. The
// waiter is queued before the write so a reply that arrives as soon as
// the peer has read the command always finds it.
func (s *EventSocket) withWriteLock(raw string, enqueue func()) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	enqueue()
	if _, err := s.conn.Write([]byte(raw)); err != nil {
		cerr := &ConnectionError{Op: "write", Err: err}
		go s.fail(cerr)
		return cerr
	}
	return nil
}

// run drives the parser loop until a fatal error. Must run in its own
// goroutine; it is the sole reader of the connection.
func (s *EventSocket) run() {
	for {
		frame, err := s.parser.Next()
		if err != nil {
			s.fail(err)
			return
		}
		s.dispatch(frame)
	}
}

func (s *EventSocket) dispatch(f *Frame) {
	switch f.ContentType() {
	case ContentCommandReply:
		s.cmdWaiters.complete(f)
	case ContentAPIResponse:
		s.apiWaiters.complete(f)
	case ContentEventPlain:
		ev := NewEventMessage(f)
		s.dispatchEvent(ev)
	case ContentEventJSON, ContentEventXML:
		// Out of core scope beyond classification: the core always
		// negotiates "event plain" subscriptions (spec.md section 4.6),
		// so these content types are classified but not expected on the
		// wire in normal operation.
		s.logger.Debug("<EventSocket> received non-plain event frame, ignoring body decode")
	case ContentDisconnectNotice:
		s.fail(&ConnectionError{Op: "read", Err: errDisconnectNotice})
	case ContentRudeRejection:
		s.fail(&ConnectionError{Op: "connect", Err: errRudeRejection})
	case ContentAuthRequest:
		if !s.isAuthed() {
			s.authReqOnce.Do(func() { close(s.authRequested) })
			return
		}
		// Would only happen if FreeSWITCH re-challenges mid-stream, which
		// it doesn't; logged defensively rather than treated as fatal.
		s.logger.Warning("<EventSocket> unexpected auth/request frame after handshake")
	default:
		s.logger.Warning("<EventSocket> unrecognized content-type: " + string(f.ContentType()))
	}
}

func (s *EventSocket) dispatchEvent(ev *EventMessage) {
	if ev.EventName() == EventBackgroundJob {
		s.completeBackgroundJob(ev)
	}
	if ev.EventName() == EventChannelExecuteComplete {
		s.completeExecuteApp(ev)
	}
	s.broadcaster.publish(ev)
}

func (s *EventSocket) completeBackgroundJob(ev *EventMessage) {
	jobUUID := ev.GetHeader("Job-UUID")
	if jobUUID == "" {
		s.logger.Err("<EventSocket> BACKGROUND_JOB with no Job-UUID")
		return
	}
	s.jobMu.Lock()
	ch, ok := s.jobWait[jobUUID]
	if ok {
		delete(s.jobWait, jobUUID)
	}
	jobsInFlight.Set(float64(len(s.jobWait)))
	s.jobMu.Unlock()
	if !ok {
		s.logger.Warning("<EventSocket> BACKGROUND_JOB with unknown Job-UUID " + jobUUID)
		return
	}
	body := ev.BodyText()
	ch <- &BackgroundJobResult{
		JobUUID:  jobUUID,
		Success:  !hasAnyPrefix(body, "-ERR", "-USAGE"),
		BodyText: body,
	}
}

func execKey(uuid, app, appUUID string) string {
	if appUUID != "" {
		return uuid + "|" + app + "|" + appUUID
	}
	return uuid + "|" + app
}

func (s *EventSocket) completeExecuteApp(ev *EventMessage) {
	uuid := ev.UUID()
	app := ev.Application()
	appUUID := ev.ApplicationUUID()

	s.execMu.Lock()
	defer s.execMu.Unlock()
	if appUUID != "" {
		if ch, ok := s.execWait[execKey(uuid, app, appUUID)]; ok {
			delete(s.execWait, execKey(uuid, app, appUUID))
			ch <- ev
			return
		}
	}
	if ch, ok := s.execWait[execKey(uuid, app, "")]; ok {
		delete(s.execWait, execKey(uuid, app, ""))
		ch <- ev
	}
}

// fail tears the socket down: fatal per spec.md section 7. Every pending
// waiter and job is completed with err, the broadcaster is shut down, and
// the connection is closed. Idempotent.
func (s *EventSocket) fail(err error) {
	s.closeOnce.Do(func() {
		s.closeErr = err
		s.cmdWaiters.failAll(err)
		s.apiWaiters.failAll(err)

		s.jobMu.Lock()
		jobs := s.jobWait
		s.jobWait = nil
		s.jobMu.Unlock()
		for _, ch := range jobs {
			close(ch)
		}

		s.execMu.Lock()
		execs := s.execWait
		s.execWait = nil
		s.execMu.Unlock()
		for _, ch := range execs {
			close(ch)
		}

		s.broadcaster.shutdown()
		if s.health != nil {
			s.health.Stop()
		}
		s.conn.Close()
		close(s.closed)
	})
}

// Close disconnects gracefully: sends exit, awaits its reply (best
// effort), then tears down.
func (s *EventSocket) Close() error {
	_, _ = s.Exit()
	s.fail(&ConnectionError{Op: "close", Err: errClosedByCaller})
	if errors.Is(s.closeErr, errClosedByCaller) {
		return nil
	}
	return s.closeErr
}

// Done is closed once the socket has torn down (fatal error or Close).
func (s *EventSocket) Done() <-chan struct{} { return s.closed }

// Err returns the error that tore the socket down, once Done is closed.
func (s *EventSocket) Err() error { return s.closeErr }

// LocalAddr returns the local address of the underlying connection.
func (s *EventSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }
