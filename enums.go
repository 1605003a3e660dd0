/*
enums.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

// EventName is FreeSWITCH's Event-Name header, typed. The member list is
// grounded on the catalog the vma-esl and mdigger-eslmon reference clients
// carry; it is intentionally non-exhaustive (FreeSWITCH adds event types
// across releases) — ParseEventName never fails, it maps anything it
// doesn't recognize to EventUnknown while preserving the raw string via
// EventMessage.RawEventName.
type EventName int

const (
	EventUnknown EventName = iota
	EventCustom
	EventChannelCreate
	EventChannelDestroy
	EventChannelState
	EventChannelCallstate
	EventChannelAnswer
	EventChannelHangup
	EventChannelHangupComplete
	EventChannelExecute
	EventChannelExecuteComplete
	EventChannelHold
	EventChannelUnhold
	EventChannelBridge
	EventChannelUnbridge
	EventChannelProgress
	EventChannelProgressMedia
	EventChannelOutgoing
	EventChannelPark
	EventChannelUnpark
	EventChannelOriginate
	EventChannelData
	EventApi
	EventLog
	EventBackgroundJob
	EventDtmf
	EventRecordStart
	EventRecordStop
	EventPlaybackStart
	EventPlaybackStop
	EventHeartbeat
	EventReSchedule
	EventReloadXML
	EventNotify
	EventPresenceIn
	EventPresenceOut
	EventMessage_
	EventCallUpdate
)

var eventNames = map[string]EventName{
	"CUSTOM":                   EventCustom,
	"CHANNEL_CREATE":           EventChannelCreate,
	"CHANNEL_DESTROY":          EventChannelDestroy,
	"CHANNEL_STATE":            EventChannelState,
	"CHANNEL_CALLSTATE":        EventChannelCallstate,
	"CHANNEL_ANSWER":           EventChannelAnswer,
	"CHANNEL_HANGUP":           EventChannelHangup,
	"CHANNEL_HANGUP_COMPLETE":  EventChannelHangupComplete,
	"CHANNEL_EXECUTE":          EventChannelExecute,
	"CHANNEL_EXECUTE_COMPLETE": EventChannelExecuteComplete,
	"CHANNEL_HOLD":             EventChannelHold,
	"CHANNEL_UNHOLD":           EventChannelUnhold,
	"CHANNEL_BRIDGE":           EventChannelBridge,
	"CHANNEL_UNBRIDGE":         EventChannelUnbridge,
	"CHANNEL_PROGRESS":         EventChannelProgress,
	"CHANNEL_PROGRESS_MEDIA":   EventChannelProgressMedia,
	"CHANNEL_OUTGOING":         EventChannelOutgoing,
	"CHANNEL_PARK":             EventChannelPark,
	"CHANNEL_UNPARK":           EventChannelUnpark,
	"CHANNEL_ORIGINATE":        EventChannelOriginate,
	"CHANNEL_DATA":             EventChannelData,
	"API":                      EventApi,
	"LOG":                      EventLog,
	"BACKGROUND_JOB":           EventBackgroundJob,
	"DTMF":                     EventDtmf,
	"RECORD_START":             EventRecordStart,
	"RECORD_STOP":              EventRecordStop,
	"PLAYBACK_START":           EventPlaybackStart,
	"PLAYBACK_STOP":            EventPlaybackStop,
	"HEARTBEAT":                EventHeartbeat,
	"RE_SCHEDULE":              EventReSchedule,
	"RELOADXML":                EventReloadXML,
	"NOTIFY":                   EventNotify,
	"PRESENCE_IN":              EventPresenceIn,
	"PRESENCE_OUT":             EventPresenceOut,
	"MESSAGE":                  EventMessage_,
	"CALL_UPDATE":              EventCallUpdate,
}

var eventNameStrings = func() map[EventName]string {
	m := make(map[EventName]string, len(eventNames))
	for k, v := range eventNames {
		m[v] = k
	}
	return m
}()

// ParseEventName maps a raw Event-Name header value to its typed form.
func ParseEventName(raw string) EventName {
	if n, ok := eventNames[raw]; ok {
		return n
	}
	return EventUnknown
}

func (n EventName) String() string {
	if s, ok := eventNameStrings[n]; ok {
		return s
	}
	return "UNKNOWN"
}

// ChannelState is FreeSWITCH's Channel-State header, typed.
type ChannelState int

const (
	CSUnknown ChannelState = iota
	CSNew
	CSInit
	CSRouting
	CSSoftExecute
	CSExecute
	CSExchangeMedia
	CSPark
	CSConsumeMedia
	CSHibernate
	CSReset
	CSHangup
	CSReporting
	CSDestroy
)

var channelStates = map[string]ChannelState{
	"CS_NEW":            CSNew,
	"CS_INIT":           CSInit,
	"CS_ROUTING":        CSRouting,
	"CS_SOFT_EXECUTE":   CSSoftExecute,
	"CS_EXECUTE":        CSExecute,
	"CS_EXCHANGE_MEDIA": CSExchangeMedia,
	"CS_PARK":           CSPark,
	"CS_CONSUME_MEDIA":  CSConsumeMedia,
	"CS_HIBERNATE":      CSHibernate,
	"CS_RESET":          CSReset,
	"CS_HANGUP":         CSHangup,
	"CS_REPORTING":      CSReporting,
	"CS_DESTROY":        CSDestroy,
}

var channelStateStrings = func() map[ChannelState]string {
	m := make(map[ChannelState]string, len(channelStates))
	for k, v := range channelStates {
		m[v] = k
	}
	return m
}()

// ParseChannelState maps a raw Channel-State header value to its typed form.
func ParseChannelState(raw string) ChannelState {
	if s, ok := channelStates[raw]; ok {
		return s
	}
	return CSUnknown
}

func (s ChannelState) String() string {
	if str, ok := channelStateStrings[s]; ok {
		return str
	}
	return "CS_UNKNOWN"
}

// AnswerState is FreeSWITCH's Answer-State header, typed.
type AnswerState int

const (
	AnswerUnknown AnswerState = iota
	AnswerEarly
	AnswerRinging
	AnswerAnswered
	AnswerHangup
)

var answerStates = map[string]AnswerState{
	"early":    AnswerEarly,
	"ringing":  AnswerRinging,
	"answered": AnswerAnswered,
	"hangup":   AnswerHangup,
}

// ParseAnswerState maps a raw Answer-State header value to its typed form.
func ParseAnswerState(raw string) AnswerState {
	if s, ok := answerStates[raw]; ok {
		return s
	}
	return AnswerUnknown
}

func (s AnswerState) String() string {
	switch s {
	case AnswerEarly:
		return "early"
	case AnswerRinging:
		return "ringing"
	case AnswerAnswered:
		return "answered"
	case AnswerHangup:
		return "hangup"
	default:
		return "unknown"
	}
}

// HangupCause is FreeSWITCH's Hangup-Cause header, typed. Non-exhaustive
// per the same rationale as EventName: an unrecognized cause decodes to
// HangupUnknown rather than failing, with the raw string still available
// via EventMessage.GetHeader("Hangup-Cause").
type HangupCause int

const (
	HangupUnknown HangupCause = iota
	HangupNormalClearing
	HangupUserBusy
	HangupNoAnswer
	HangupNoUserResponse
	HangupCallRejected
	HangupNormalTemporaryFailure
	HangupOriginatorCancel
	HangupUnallocatedNumber
	HangupNormalUnspecified
	HangupRecoveryOnTimerExpire
	HangupDestinationOutOfOrder
	HangupLoseRace
	HangupExchangeRoutingError
	HangupProgressTimeout
	HangupMediaTimeout
	HangupSystemShutdown
	HangupManagerRequest
)

var hangupCauses = map[string]HangupCause{
	"NORMAL_CLEARING":             HangupNormalClearing,
	"USER_BUSY":                   HangupUserBusy,
	"NO_ANSWER":                   HangupNoAnswer,
	"NO_USER_RESPONSE":            HangupNoUserResponse,
	"CALL_REJECTED":               HangupCallRejected,
	"NORMAL_TEMPORARY_FAILURE":    HangupNormalTemporaryFailure,
	"ORIGINATOR_CANCEL":           HangupOriginatorCancel,
	"UNALLOCATED_NUMBER":          HangupUnallocatedNumber,
	"NORMAL_UNSPECIFIED":          HangupNormalUnspecified,
	"RECOVERY_ON_TIMER_EXPIRE":    HangupRecoveryOnTimerExpire,
	"DESTINATION_OUT_OF_ORDER":    HangupDestinationOutOfOrder,
	"LOSE_RACE":                   HangupLoseRace,
	"EXCHANGE_ROUTING_ERROR":      HangupExchangeRoutingError,
	"PROGRESS_TIMEOUT":            HangupProgressTimeout,
	"MEDIA_TIMEOUT":               HangupMediaTimeout,
	"SYSTEM_SHUTDOWN":             HangupSystemShutdown,
	"MANAGER_REQUEST":             HangupManagerRequest,
}

var hangupCauseStrings = func() map[HangupCause]string {
	m := make(map[HangupCause]string, len(hangupCauses))
	for k, v := range hangupCauses {
		m[v] = k
	}
	return m
}()

// ParseHangupCause maps a raw Hangup-Cause header value to its typed form.
func ParseHangupCause(raw string) HangupCause {
	if c, ok := hangupCauses[raw]; ok {
		return c
	}
	return HangupUnknown
}

func (c HangupCause) String() string {
	if s, ok := hangupCauseStrings[c]; ok {
		return s
	}
	return "UNKNOWN"
}
