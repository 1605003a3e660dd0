/*
channel_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSocket builds an EventSocket over an in-memory pipe, without
// starting the read loop, so tests can drive dispatch/broadcast
// directly.
func newTestSocket(t *testing.T) (*EventSocket, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return newEventSocket(server, Config{}), client
}

func hangupEvent(uuid string) *EventMessage {
	return NewEventMessage(eventFrame(map[string]string{
		"Event-Name": "CHANNEL_HANGUP",
		"Unique-ID":  uuid,
	}))
}

func answerEvent(uuid string) *EventMessage {
	return NewEventMessage(eventFrame(map[string]string{
		"Event-Name":   "CHANNEL_ANSWER",
		"Unique-ID":    uuid,
		"Answer-State": "answered",
	}))
}

func TestChannelHangupFiresCallbackExactlyOnce(t *testing.T) {
	sock, _ := newTestSocket(t)
	const uuid = "44444444-4444-4444-4444-444444444444"

	var calls int
	done := make(chan struct{}, 2)
	ch := NewChannel(sock, answerEvent(uuid), func(ev *EventMessage) {
		calls++
		done <- struct{}{}
	})

	sock.broadcaster.publish(hangupEvent(uuid))
	sock.broadcaster.publish(hangupEvent(uuid)) // duplicate

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hangup_callback never fired")
	}
	// give a misbehaving duplicate delivery a chance to land
	select {
	case <-done:
		t.Fatal("hangup_callback fired a second time")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 1, calls)
	assert.True(t, ch.IsDisposed())
}

func TestChannelLastEventAdvancesMonotonically(t *testing.T) {
	sock, _ := newTestSocket(t)
	const uuid = "55555555-5555-5555-5555-555555555555"

	ch := NewChannel(sock, answerEvent(uuid), nil)
	assert.True(t, ch.IsAnswered())

	bridged := NewEventMessage(eventFrame(map[string]string{
		"Event-Name":          "CHANNEL_BRIDGE",
		"Unique-ID":           uuid,
		"Answer-State":        "answered",
		"Other-Leg-Unique-ID": "66666666-6666-6666-6666-666666666666",
	}))
	sock.broadcaster.publish(bridged)

	require.Eventually(t, func() bool { return ch.IsBridged() }, time.Second, time.Millisecond)
	assert.Equal(t, "66666666-6666-6666-6666-666666666666", ch.OtherLegUUID())
}

func TestChannelIgnoresEventsForOtherUUIDs(t *testing.T) {
	sock, _ := newTestSocket(t)
	const uuid = "77777777-7777-7777-7777-777777777777"

	ch := NewChannel(sock, answerEvent(uuid), nil)
	sock.broadcaster.publish(hangupEvent("00000000-0000-0000-0000-000000000000"))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ch.IsDisposed())
}

func TestChannelGuardRejectsDisposedChannel(t *testing.T) {
	sock, _ := newTestSocket(t)
	const uuid = "88888888-8888-8888-8888-888888888888"

	ch := NewChannel(sock, answerEvent(uuid), nil)
	ch.Dispose()

	err := ch.SetChannelVariable(context.Background(), "x", "y")
	var invalidOp *InvalidOperationError
	require.ErrorAs(t, err, &invalidOp)
}
