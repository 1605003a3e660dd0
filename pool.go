/*
pool.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"time"
)

// Pool hands out authenticated *EventSocket connections up to a fixed
// cap, retargeting the teacher's FSockPool/NewFSockPool (fsockpool.go)
// from *FSock onto *EventSocket, and its Fibonacci reconnect backoff
// (fib, fsock.go) onto fibDuration.
type Pool struct {
	cfg         Config
	maxWaitConn time.Duration
	backoffUnit time.Duration
	backoffMax  time.Duration

	allowedConns chan struct{}
	sockets      chan *EventSocket
}

// NewPool builds a Pool that lazily dials up to size connections to
// cfg.Host:cfg.Port, waiting up to maxWaitConn for one to free up once
// the cap is reached.
func NewPool(size int, cfg Config, maxWaitConn time.Duration) *Pool {
	if maxWaitConn <= 0 {
		maxWaitConn = cfg.withDefaults().ResponseTimeout
	}
	p := &Pool{
		cfg:          cfg,
		maxWaitConn:  maxWaitConn,
		backoffUnit:  100 * time.Millisecond,
		backoffMax:   5 * time.Second,
		allowedConns: make(chan struct{}, size),
		sockets:      make(chan *EventSocket, size),
	}
	for i := 0; i < size; i++ {
		p.allowedConns <- struct{}{}
	}
	return p
}

// Get pops an idle socket if one is available, otherwise dials a new one
// (consuming one of the pool's allowed slots), waiting at most
// maxWaitConn for either to become possible, per spec.md's
// maxWaitConn-bounded pool contract (ErrConnectionPoolTimeout).
func (p *Pool) Get(ctx context.Context) (*EventSocket, error) {
	select {
	case s := <-p.sockets:
		return s, nil
	default:
	}

	tm := time.NewTimer(p.maxWaitConn)
	defer tm.Stop()
	select {
	case s := <-p.sockets:
		return s, nil
	case <-p.allowedConns:
		s, err := Dial(ctx, p.cfg)
		if err != nil {
			p.allowedConns <- struct{}{}
			return nil, err
		}
		return s, nil
	case <-tm.C:
		return nil, ErrConnectionPoolTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Reconnect dials a fresh replacement for a socket the caller found dead,
// retrying with Fibonacci backoff (fibDuration, grounded on the
// teacher's fib in fsock.go) until it succeeds or ctx is done. The
// caller still owns the pool slot; Reconnect does not touch
// allowedConns.
func (p *Pool) Reconnect(ctx context.Context) (*EventSocket, error) {
	next := fibDuration(p.backoffUnit, p.backoffMax)
	for {
		s, err := Dial(ctx, p.cfg)
		if err == nil {
			return s, nil
		}
		select {
		case <-time.After(next()):
		case <-ctx.Done():
			return nil, err
		}
	}
}

// Put returns s to the pool, or frees its slot if s is nil or already
// torn down.
func (p *Pool) Put(s *EventSocket) {
	if s == nil {
		p.allowedConns <- struct{}{}
		return
	}
	select {
	case <-s.Done():
		p.allowedConns <- struct{}{}
	default:
		p.sockets <- s
	}
}
