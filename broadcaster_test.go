/*
broadcaster_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFanOutToMultipleSubscribers(t *testing.T) {
	b := newBroadcaster(4, 100*time.Millisecond, NopLogger{})
	ch1, cancel1 := b.subscribe()
	defer cancel1()
	ch2, cancel2 := b.subscribe()
	defer cancel2()

	ev := NewEventMessage(eventFrame(map[string]string{"Event-Name": "HEARTBEAT"}))
	b.publish(ev)

	require.Equal(t, ev, <-ch1)
	require.Equal(t, ev, <-ch2)
}

func TestBroadcasterNeverBlocksOnSlowConsumer(t *testing.T) {
	b := newBroadcaster(1, 20*time.Millisecond, NopLogger{})
	slow, cancelSlow := b.subscribe()
	defer cancelSlow()

	ev := NewEventMessage(eventFrame(map[string]string{"Event-Name": "HEARTBEAT"}))
	done := make(chan struct{})
	go func() {
		// Fill the slow consumer's buffer, then publish past it; publish
		// must return promptly rather than blocking on the full channel.
		b.publish(ev)
		b.publish(ev)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}
	<-slow // drain the one event that fit in the buffer
}

func TestBroadcasterEvictsSlowConsumerAfterGrace(t *testing.T) {
	b := newBroadcaster(1, 20*time.Millisecond, NopLogger{})
	sub, cancel := b.subscribe()
	defer cancel()

	ev := NewEventMessage(eventFrame(map[string]string{"Event-Name": "HEARTBEAT"}))
	b.publish(ev) // fills the buffer of size 1
	b.publish(ev) // buffer full, consumer never drains -> schedules eviction

	require.Eventually(t, func() bool {
		select {
		case _, open := <-sub:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "slow consumer was never evicted")
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := newBroadcaster(4, time.Second, NopLogger{})
	sub, cancel := b.subscribe()
	cancel()

	_, open := <-sub
	assert.False(t, open)
}

func TestBroadcasterShutdownClosesAllSubscribers(t *testing.T) {
	b := newBroadcaster(4, time.Second, NopLogger{})
	sub1, _ := b.subscribe()
	sub2, _ := b.subscribe()

	b.shutdown()

	_, open1 := <-sub1
	_, open2 := <-sub2
	assert.False(t, open1)
	assert.False(t, open2)

	// subscribing after shutdown yields an already-closed channel
	sub3, _ := b.subscribe()
	_, open3 := <-sub3
	assert.False(t, open3)
}
