/*
eventmessage.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "strings"

const eventVariablePrefix = "variable_"

// EventMessage is a frozen view of one event frame, per spec.md section
// 3/4.3. It is immutable; lazy accessors percent-decode header and
// variable values on every call rather than caching a decoded copy
// (spec.md: "decoded on access, not at parse time"). Equality is by
// identity: two EventMessages built from distinct frames are never equal
// even if their contents match, matching "frames are value-unique".
//
// Grounded on EventToMap/headerVal/urlDecode (utils.go) for the
// header/variable lookup semantics, and on vma-esl's NewEventFromReader
// for which well-typed fields get parsed eagerly at construction.
type EventMessage struct {
	headers *orderedHeaders
	body    []byte

	rawEventName string
	eventName    EventName
	uuid         string
	channelState ChannelState
	answerState  AnswerState
	hangupCause  HangupCause
}

// NewEventMessage builds an EventMessage from a parsed Frame. FreeSwitch
// nests the actual event fields inside the frame's Content-Length body
// for text/event-plain frames (the outer frame headers carry only
// Content-Type/Content-Length); eventHeadersAndBody splits that body
// back into its own header block plus whatever trailing body text
// follows the blank line (e.g. an API response embedded in a
// BACKGROUND_JOB event), grounded on the teacher's EventToMap
// (utils.go).
func NewEventMessage(f *Frame) *EventMessage {
	headers, body := eventHeadersAndBody(f)
	m := &EventMessage{headers: headers, body: body}
	m.rawEventName = m.GetHeader("Event-Name")
	m.eventName = ParseEventName(m.rawEventName)
	if m.eventName == EventCustom {
		if subclass := m.GetHeader("Event-Subclass"); subclass != "" {
			m.rawEventName = "CUSTOM " + subclass
		}
	}
	m.uuid = m.GetHeader("Unique-ID")
	if m.uuid == "" {
		m.uuid = m.GetHeader("Channel-Call-UUID")
	}
	m.channelState = ParseChannelState(m.GetHeader("Channel-State"))
	if as := m.GetHeader("Answer-State"); as != "" {
		m.answerState = ParseAnswerState(as)
	}
	if hc := m.GetHeader("Hangup-Cause"); hc != "" {
		m.hangupCause = ParseHangupCause(hc)
	}
	return m
}

// eventHeadersAndBody resolves the header set an EventMessage is built
// from. Frames already carrying Event-Name in their outer headers (the
// body-carrying json/xml variants' header shadow, or test fixtures) are
// used as-is; text/event-plain frames nest the event's real headers
// inside the Content-Length body, so those are split out, with whatever
// follows the blank line kept as the event's body (e.g. the API
// response text embedded in a BACKGROUND_JOB event).
func eventHeadersAndBody(f *Frame) (*orderedHeaders, []byte) {
	if f.Headers.Has("Event-Name") || len(f.Body) == 0 {
		return f.Headers, f.Body
	}
	return parseEventHeaderBlock(f.Body)
}

// parseEventHeaderBlock splits data into "name: value" header lines up
// to the first blank line, then whatever follows as the body. Grounded
// on the teacher's EventToMap (utils.go); malformed lines are skipped
// rather than failing, since the surrounding frame already parsed
// successfully and events are best-effort.
func parseEventHeaderBlock(data []byte) (*orderedHeaders, []byte) {
	h := newOrderedHeaders()
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" {
			return h, []byte(strings.Join(lines[i+1:], "\n"))
		}
		idx := strings.IndexByte(trimmed, ':')
		if idx < 0 {
			continue
		}
		name := trimmed[:idx]
		value := strings.TrimPrefix(trimmed[idx+1:], " ")
		h.Set(name, value)
	}
	return h, nil
}

// EventName returns the typed Event-Name, with CUSTOM events' subclass
// folded into RawEventName (not into EventName itself, which stays
// EventCustom — the subclass is a free-form string, not an enum member).
func (m *EventMessage) EventName() EventName { return m.eventName }

// RawEventName returns the original Event-Name header text, with
// "CUSTOM <subclass>" substituted for bare CUSTOM events.
func (m *EventMessage) RawEventName() string { return m.rawEventName }

// UUID returns the call UUID this event pertains to (Unique-ID, or
// Channel-Call-UUID when Unique-ID is absent).
func (m *EventMessage) UUID() string { return m.uuid }

// ChannelState returns the typed Channel-State header.
func (m *EventMessage) ChannelState() ChannelState { return m.channelState }

// AnswerState returns the typed Answer-State header. Ok is false when the
// event carries no Answer-State header at all (most non-channel events).
func (m *EventMessage) AnswerState() (state AnswerState, ok bool) {
	return m.answerState, m.headers.Has("Answer-State")
}

// HangupCause returns the typed Hangup-Cause header. Ok is false when the
// event carries no Hangup-Cause header.
func (m *EventMessage) HangupCause() (cause HangupCause, ok bool) {
	return m.hangupCause, m.headers.Has("Hangup-Cause")
}

// GetHeader returns a header value, percent-decoded. Returns "" if absent.
func (m *EventMessage) GetHeader(name string) string {
	return urlDecode(m.headers.Get(name))
}

// HasHeader reports whether the raw header is present at all (distinct
// from GetHeader returning "" for an empty-but-present value).
func (m *EventMessage) HasHeader(name string) bool {
	return m.headers.Has(name)
}

// GetVariable returns the value of channel variable name, i.e. the header
// "variable_<name>", percent-decoded.
func (m *EventMessage) GetVariable(name string) string {
	return m.GetHeader(eventVariablePrefix + name)
}

// Body returns the event's raw body bytes, if any (e.g. BACKGROUND_JOB's
// API result text).
func (m *EventMessage) Body() []byte { return m.body }

// BodyText is a convenience for Body(), trimmed of surrounding whitespace.
func (m *EventMessage) BodyText() string {
	return strings.TrimSpace(string(m.body))
}

// IsBridged reports whether this event's channel currently has an
// other-leg, per spec.md section 4.4.
func (m *EventMessage) IsBridged() bool {
	return m.HasHeader("Other-Leg-Unique-ID")
}

// OtherLegUUID returns the Other-Leg-Unique-ID header, if present.
func (m *EventMessage) OtherLegUUID() string {
	return m.GetHeader("Other-Leg-Unique-ID")
}

// Application returns the Application header (used to correlate
// CHANNEL_EXECUTE_COMPLETE events to the execute_app call that produced
// them).
func (m *EventMessage) Application() string {
	return m.GetHeader("Application")
}

// ApplicationUUID returns the Application-UUID header FreeSWITCH stamps
// onto CHANNEL_EXECUTE/CHANNEL_EXECUTE_COMPLETE events, used to
// disambiguate repeated applications on the same channel (spec.md section
// 4.2).
func (m *EventMessage) ApplicationUUID() string {
	return m.GetHeader("Application-UUID")
}
