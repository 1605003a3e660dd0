/*
broadcaster.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"sync"
	"time"
)

// broadcaster is the multi-consumer event publisher behind
// EventSocket.Events, per spec.md sections 4.2 and 5. It generalizes the
// teacher's handler-map fan-out (FSConn.dispatchEvent, fsconn.go) from a
// direct "look up handlers and spawn a goroutine per match" dispatch into
// a subscribe-anytime, receive-everything-from-here multicast with
// backpressure: an event that finds a subscriber's buffer full is dropped
// for that subscriber, and the subscriber is evicted grace later unless
// a later event reaches it first, rather than allowed to block the
// parser loop.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[*subscription]struct{}
	bufferSize  int
	grace       time.Duration
	logger      Logger
	closed      bool
}

type subscription struct {
	ch     chan *EventMessage
	full   *time.Timer
	fullMu sync.Mutex
}

func newBroadcaster(bufferSize int, grace time.Duration, logger Logger) *broadcaster {
	return &broadcaster{
		subscribers: make(map[*subscription]struct{}),
		bufferSize:  bufferSize,
		grace:       grace,
		logger:      logger,
	}
}

// subscribe joins the broadcaster and starts receiving all future events.
// The returned channel is closed when unsubscribe is called, the consumer
// is evicted as a slow consumer, or the broadcaster is closed (connection
// teardown).
func (b *broadcaster) subscribe() (<-chan *EventMessage, func()) {
	sub := &subscription{ch: make(chan *EventMessage, b.bufferSize)}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ch := make(chan *EventMessage)
		close(ch)
		return ch, func() {}
	}
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.remove(sub) })
	}
	return sub.ch, cancel
}

func (b *broadcaster) remove(sub *subscription) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub]; ok {
		delete(b.subscribers, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// publish fans out ev to every current subscriber. Never blocks: a full
// buffer drops ev for that subscriber and starts an eviction timer
// instead of stalling the parser loop (spec.md section 4.2: "MUST NOT
// block the parser").
func (b *broadcaster) publish(ev *EventMessage) {
	eventsReceivedTotal.WithLabelValues(ev.RawEventName()).Inc()

	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- ev:
			sub.fullMu.Lock()
			if sub.full != nil {
				sub.full.Stop()
				sub.full = nil
			}
			sub.fullMu.Unlock()
		default:
			b.scheduleEviction(sub)
		}
	}
}

func (b *broadcaster) scheduleEviction(sub *subscription) {
	sub.fullMu.Lock()
	defer sub.fullMu.Unlock()
	if sub.full != nil {
		return // already pending
	}
	sub.full = time.AfterFunc(b.grace, func() {
		slowConsumersTotal.Inc()
		b.logger.Warning("<EventSocket> slow consumer evicted from event stream")
		b.remove(sub)
	})
}

// shutdown closes every subscriber channel; no further subscribe calls
// will receive events.
func (b *broadcaster) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subscribers {
		close(s.ch)
	}
	b.subscribers = nil
}
