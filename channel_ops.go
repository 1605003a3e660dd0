/*
channel_ops.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// PlayLeg selects which leg(s) of a bridged call PlayFile targets, per
// spec.md section 4.4.
type PlayLeg int

const (
	ALeg PlayLeg = iota
	BLeg
	Both
)

// guard reports whether c is live enough to accept a command. A disposed
// channel is a genuinely illegal target (InvalidOperationError); a live
// but not-yet-answered channel is a legal no-op for answer-gated
// operations, per spec.md section 7.
func (c *Channel) guard() error {
	if c.IsDisposed() {
		return &InvalidOperationError{Reason: "channel " + c.uuid + " is disposed"}
	}
	return nil
}

// Hangup sends uuid_kill if the channel is answered or pre-answered;
// otherwise it resolves immediately, per spec.md section 4.4.
func (c *Channel) Hangup(ctx context.Context, cause HangupCause) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.IsAnswered() && !c.IsPreAnswered() {
		return nil
	}
	_, err := c.socket.SendAPI(ctx, fmt.Sprintf("uuid_kill %s %s", c.uuid, cause.String()))
	return err
}

// PlayFile plays file to leg, per spec.md section 4.4. A no-op if the
// channel isn't answered. When mix is true and leg is BLeg or Both, the
// "m" displace_session flag is added (mix the played audio with the
// existing media instead of replacing it). terminator, if non-empty, is
// set as playback_terminators before playing.
func (c *Channel) PlayFile(ctx context.Context, file string, leg PlayLeg, mix bool, terminator string) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.IsAnswered() {
		return nil
	}
	if terminator != "" {
		if err := c.SetChannelVariable(ctx, "playback_terminators", terminator); err != nil {
			return err
		}
	}
	if leg == ALeg {
		_, err := c.socket.ExecuteApp(ctx, c.uuid, "playback", file, false)
		return err
	}

	flags := ""
	if mix {
		flags += "m"
	}
	g, gctx := errgroup.WithContext(ctx)
	if leg == BLeg || leg == Both {
		g.Go(func() error {
			_, err := c.socket.ExecuteApp(gctx, c.uuid, "displace_session", fmt.Sprintf("%s [%sr]", file, flags), false)
			return err
		})
	}
	if leg == Both {
		g.Go(func() error {
			_, err := c.socket.ExecuteApp(gctx, c.uuid, "displace_session", fmt.Sprintf("%s [%sw]", file, flags), false)
			return err
		})
	}
	return g.Wait()
}

// PlayGetDigitsOptions configures the play_and_get_digits application,
// per spec.md section 4.4. Arguments are passed to FreeSwitch verbatim
// (spec.md section 6).
type PlayGetDigitsOptions struct {
	MinDigits    int
	MaxDigits    int
	MaxTries     int
	TimeoutMs    int
	Terminators  string
	File         string
	InvalidFile  string
	VarName      string
	DigitTimeout int
}

// PlayGetDigits runs play_and_get_digits and returns the digits captured
// into opts.VarName, per spec.md section 4.4.
func (c *Channel) PlayGetDigits(ctx context.Context, opts PlayGetDigitsOptions) (string, error) {
	if err := c.guard(); err != nil {
		return "", err
	}
	if !c.IsAnswered() {
		return "", nil
	}
	if opts.VarName == "" {
		opts.VarName = "pagd_input"
	}
	args := fmt.Sprintf("%d %d %d %d %s %s %s %s %d %d",
		opts.MinDigits, opts.MaxDigits, opts.MaxTries, opts.TimeoutMs,
		opts.File, opts.InvalidFile, opts.VarName, opts.Terminators,
		opts.TimeoutMs, opts.DigitTimeout)
	ev, err := c.socket.ExecuteApp(ctx, c.uuid, "play_and_get_digits", args, false)
	if err != nil {
		return "", err
	}
	return ev.GetVariable(opts.VarName), nil
}

// ReadOptions configures the read application, per spec.md section 4.4.
type ReadOptions struct {
	MinDigits   int
	MaxDigits   int
	File        string
	VarName     string
	TimeoutMs   int
	Terminators string
}

// ReadResult is the {digits, terminator} pair spec.md section 4.4 asks
// Channel.Read to return.
type ReadResult struct {
	Digits     string
	Terminator string
}

// Read runs the read application and returns the collected digits and
// terminator; if the channel isn't answered, returns a zero ReadResult.
func (c *Channel) Read(ctx context.Context, opts ReadOptions) (ReadResult, error) {
	if err := c.guard(); err != nil {
		return ReadResult{}, err
	}
	if !c.IsAnswered() {
		return ReadResult{}, nil
	}
	if opts.VarName == "" {
		opts.VarName = "read_input"
	}
	args := fmt.Sprintf("%d %d %s %d %s %s",
		opts.MinDigits, opts.MaxDigits, opts.File, opts.TimeoutMs, opts.VarName, opts.Terminators)
	ev, err := c.socket.ExecuteApp(ctx, c.uuid, "read", args, false)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{
		Digits:     ev.GetVariable(opts.VarName),
		Terminator: ev.GetVariable(opts.VarName + "_terminator"),
	}, nil
}

// SayOptions configures the say application, per spec.md section 4.4.
type SayOptions struct {
	Module string
	Type   string
	Method string
	Text   string
}

// Say runs the say application.
func (c *Channel) Say(ctx context.Context, opts SayOptions) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.IsAnswered() {
		return nil
	}
	args := fmt.Sprintf("%s %s %s %s", opts.Module, opts.Type, opts.Method, opts.Text)
	_, err := c.socket.ExecuteApp(ctx, c.uuid, "say", args, false)
	return err
}

// SetChannelVariable issues uuid_setvar, per spec.md section 4.4.
func (c *Channel) SetChannelVariable(ctx context.Context, name, value string) error {
	if err := c.guard(); err != nil {
		return err
	}
	_, err := c.socket.SendAPI(ctx, fmt.Sprintf("uuid_setvar %s %s %s", c.uuid, name, value))
	return err
}

// SendDTMF executes send_dtmf with arg "<digits>@<durationMs>", per
// spec.md section 4.4. durationMs<=0 defaults to 2000.
func (c *Channel) SendDTMF(ctx context.Context, digits string, durationMs int) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.IsAnswered() {
		return nil
	}
	if durationMs <= 0 {
		durationMs = 2000
	}
	_, err := c.socket.ExecuteApp(ctx, c.uuid, "send_dtmf", digits+"@"+strconv.Itoa(durationMs), false)
	return err
}

// StartDetectingInbandDTMF subscribes to DTMF events then starts inband
// detection on the channel, per spec.md section 4.4.
func (c *Channel) StartDetectingInbandDTMF(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	if _, err := c.socket.SubscribeEvents(ctx, "DTMF"); err != nil {
		return err
	}
	_, err := c.socket.SendAPI(ctx, "uuid_dtmf_session "+c.uuid+" start")
	return err
}

// StopDetectingInbandDTMF issues the stop command for inband detection.
func (c *Channel) StopDetectingInbandDTMF(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	_, err := c.socket.SendAPI(ctx, "uuid_dtmf_session "+c.uuid+" stop")
	return err
}
