/*
waiter.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "sync"

// frameResult is what a waiter receives: either the frame that completed
// it, or the error that disconnected the socket / disrupted the FIFO.
type frameResult struct {
	frame *Frame
	err   error
}

// waiter is one pending caller's slot in a waiterQueue.
type waiter struct {
	ch         chan frameResult
	tombstoned bool
}

// waiterQueue is the FIFO behind spec.md section 4.2/5: commands are
// issued in order, replies arrive in that same order, and a single
// waiterQueue per reply kind (command/reply vs api/response) keeps the
// i-th enqueued waiter matched to the i-th arriving reply of that kind.
// A cancelled/timed-out waiter is tombstoned rather than dequeued, so a
// later reply is silently discarded instead of misattributed to the next
// real caller (spec.md section 5, Cancellation).
type waiterQueue struct {
	mu   sync.Mutex
	name string
	q    []*waiter
}

func newWaiterQueue(name string) *waiterQueue {
	return &waiterQueue{name: name}
}

// enqueue adds a new waiter to the back of the queue and returns it. The
// caller must eventually read from w.ch exactly once.
func (q *waiterQueue) enqueue() *waiter {
	w := &waiter{ch: make(chan frameResult, 1)}
	q.mu.Lock()
	q.q = append(q.q, w)
	pendingWaiters.WithLabelValues(q.name).Set(float64(len(q.q)))
	q.mu.Unlock()
	return w
}

// complete pops the front waiter and delivers frame to it, unless it was
// tombstoned, in which case the reply is dropped on the floor.
func (q *waiterQueue) complete(frame *Frame) {
	q.mu.Lock()
	if len(q.q) == 0 {
		q.mu.Unlock()
		return
	}
	w := q.q[0]
	q.q = q.q[1:]
	pendingWaiters.WithLabelValues(q.name).Set(float64(len(q.q)))
	q.mu.Unlock()

	if !w.tombstoned {
		w.ch <- frameResult{frame: frame}
	}
}

// tombstone marks w so its eventual reply is discarded instead of being
// delivered — used when a caller's context is cancelled or times out
// before the reply arrives.
func (q *waiterQueue) tombstone(w *waiter) {
	q.mu.Lock()
	w.tombstoned = true
	q.mu.Unlock()
}

// failAll delivers err to every still-pending waiter (fatal disconnect).
func (q *waiterQueue) failAll(err error) {
	q.mu.Lock()
	waiters := q.q
	q.q = nil
	pendingWaiters.WithLabelValues(q.name).Set(0)
	q.mu.Unlock()

	for _, w := range waiters {
		if !w.tombstoned {
			w.ch <- frameResult{err: err}
		}
	}
}
