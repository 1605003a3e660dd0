/*
eventmessage_test.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func eventFrame(headers map[string]string) *Frame {
	h := newOrderedHeaders()
	for k, v := range headers {
		h.Set(k, v)
	}
	return &Frame{Headers: h}
}

func TestNewEventMessageParsesWellTypedFields(t *testing.T) {
	f := eventFrame(map[string]string{
		"Event-Name":    "CHANNEL_ANSWER",
		"Unique-ID":     "11111111-1111-1111-1111-111111111111",
		"Channel-State": "CS_EXECUTE",
		"Answer-State":  "answered",
	})
	ev := NewEventMessage(f)

	assert.Equal(t, EventChannelAnswer, ev.EventName())
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", ev.UUID())
	assert.Equal(t, CSExecute, ev.ChannelState())
	as, ok := ev.AnswerState()
	assert.True(t, ok)
	assert.Equal(t, AnswerAnswered, as)
}

func TestNewEventMessageFoldsCustomSubclassIntoRawName(t *testing.T) {
	f := eventFrame(map[string]string{
		"Event-Name":     "CUSTOM",
		"Event-Subclass": "sofia::register",
	})
	ev := NewEventMessage(f)

	assert.Equal(t, EventCustom, ev.EventName())
	assert.Equal(t, "CUSTOM sofia::register", ev.RawEventName())
}

func TestNewEventMessageUUIDFallsBackToChannelCallUUID(t *testing.T) {
	f := eventFrame(map[string]string{
		"Event-Name":          "DTMF",
		"Channel-Call-UUID":   "22222222-2222-2222-2222-222222222222",
	})
	ev := NewEventMessage(f)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", ev.UUID())
}

func TestEventMessageHeaderPercentDecodingIsLazy(t *testing.T) {
	f := eventFrame(map[string]string{
		"Event-Name":      "HEARTBEAT",
		"Event-Date-Local": "2012-10-05%2013%3A41%3A38",
	})
	ev := NewEventMessage(f)
	assert.Equal(t, "2012-10-05 13:41:38", ev.GetHeader("Event-Date-Local"))
}

func TestEventMessageGetVariable(t *testing.T) {
	f := eventFrame(map[string]string{
		"Event-Name":                  "CHANNEL_HANGUP",
		"variable_sip_from_user": "1001",
	})
	ev := NewEventMessage(f)
	assert.Equal(t, "1001", ev.GetVariable("sip_from_user"))
}

func TestEventMessageIsBridged(t *testing.T) {
	notBridged := NewEventMessage(eventFrame(map[string]string{"Event-Name": "CHANNEL_CREATE"}))
	assert.False(t, notBridged.IsBridged())

	bridged := NewEventMessage(eventFrame(map[string]string{
		"Event-Name":            "CHANNEL_BRIDGE",
		"Other-Leg-Unique-ID": "33333333-3333-3333-3333-333333333333",
	}))
	assert.True(t, bridged.IsBridged())
	assert.Equal(t, "33333333-3333-3333-3333-333333333333", bridged.OtherLegUUID())
}

func TestApiResponseSuccess(t *testing.T) {
	ok := newAPIResponse(&Frame{Headers: newOrderedHeaders(), Body: []byte("+OK\n")})
	assert.True(t, ok.Success)

	failed := newAPIResponse(&Frame{Headers: newOrderedHeaders(), Body: []byte("-ERR no such channel\n")})
	assert.False(t, failed.Success)
}
