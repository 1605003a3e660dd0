/*
pool_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestPoolGetTimeout(t *testing.T) {
	p := NewPool(0, Config{Host: "127.0.0.1", Port: 1}, 20*time.Millisecond)

	start := time.Now()
	s, err := p.Get(context.Background())
	elapsed := time.Since(start)

	if err != ErrConnectionPoolTimeout {
		t.Fatalf("expected ErrConnectionPoolTimeout, got %v", err)
	}
	if s != nil {
		t.Errorf("expected a nil socket alongside the timeout, got %+v", s)
	}
	if elapsed < 15*time.Millisecond {
		t.Errorf("Get returned after %v, before its 20ms maxWaitConn elapsed", elapsed)
	}
}

func TestPoolPutThenGetReturnsSameSocketWithoutDialing(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	p := NewPool(1, Config{Host: "127.0.0.1", Port: 1}, 20*time.Millisecond)
	sock := newEventSocket(server, Config{})
	p.Put(sock)

	got, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sock {
		t.Errorf("expected the same socket handed back, got a different one")
	}
}

// TestPoolReconnectBackoff exercises Reconnect against a target that
// refuses every connection attempt (nothing listens on 127.0.0.1:1), per
// the Fibonacci backoff ported from the teacher's fib() (fsock.go) into
// fibDuration (backoff.go). It asserts Reconnect neither returns
// instantly (it must wait at least one backoff unit between attempts)
// nor outlives its context (the backoff loop must honor cancellation).
func TestPoolReconnectBackoff(t *testing.T) {
	p := NewPool(1, Config{Host: "127.0.0.1", Port: 1, ResponseTimeout: 5 * time.Millisecond}, 0)
	p.backoffUnit = 5 * time.Millisecond
	p.backoffMax = 15 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	start := time.Now()
	s, err := p.Reconnect(ctx)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatalf("expected Reconnect to keep failing against a refused connection, got a socket: %+v", s)
	}
	if elapsed < p.backoffUnit {
		t.Errorf("Reconnect returned after %v, faster than a single backoff unit (%v); it isn't backing off between attempts", elapsed, p.backoffUnit)
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("Reconnect ran for %v after a 40ms context deadline; it isn't honoring ctx cancellation", elapsed)
	}
}
