/*
transfer.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// TransferOutcome classifies the result of an attended transfer, per
// spec.md section 4.5's result table.
type TransferOutcome int

const (
	TransferUnknown TransferOutcome = iota
	TransferFailedNoAnswer
	TransferFailedCallRejected
	TransferFailedNormalClearing
	TransferSuccessThreeway
	TransferSuccess
	TransferHangup
)

func (o TransferOutcome) String() string {
	switch o {
	case TransferFailedNoAnswer:
		return "Failed(NoAnswer)"
	case TransferFailedCallRejected:
		return "Failed(CallRejected)"
	case TransferFailedNormalClearing:
		return "Failed(NormalClearing)"
	case TransferSuccessThreeway:
		return "Success(Threeway)"
	case TransferSuccess:
		return "Success"
	case TransferHangup:
		return "Hangup"
	default:
		return "Unknown"
	}
}

// TransferResult is the outcome of an AttendedTransfer call. AlegHangup
// is populated only when Outcome == TransferHangup, per spec.md section
// 4.5's "Hangup(aLegHangupEvent)" case.
type TransferResult struct {
	Outcome   TransferOutcome
	AlegHangup *EventMessage
}

// transferState accumulates the named predicates of spec.md section 4.5
// as events arrive; evaluated against the result table after every
// update, first match wins.
type transferState struct {
	aUUID, bUUID, cUUID string

	cLegAnswer, cLegHangup, cLegBridge, cLegUnbridge bool
	cLegBridgeOtherLeg                               string

	aLegHangup bool
	aLegHangupEvent *EventMessage
	bLegHangup bool

	aLegBridge       bool
	aLegBridgeOtherLeg string

	executeComplete   bool
	originateDisposition string
	attXferResult        string
	lastBridgeHangupCause string
	xferUUIDs            string
}

func (st *transferState) absorb(ev *EventMessage) {
	u := ev.UUID()
	switch {
	case u == st.bUUID && ev.EventName() == EventChannelExecuteComplete && ev.Application() == "att_xfer":
		st.executeComplete = true
		st.originateDisposition = ev.GetVariable("originate_disposition")
		st.attXferResult = ev.GetVariable("att_xfer_result")
		st.lastBridgeHangupCause = ev.GetVariable("last_bridge_hangup_cause")
		st.xferUUIDs = ev.GetVariable("xfer_uuids")
	case u == st.aUUID && ev.EventName() == EventChannelHangup:
		st.aLegHangup = true
		st.aLegHangupEvent = ev
	case u == st.bUUID && ev.EventName() == EventChannelHangup:
		st.bLegHangup = true
	case u == st.aUUID && ev.EventName() == EventChannelBridge:
		st.aLegBridge = true
		st.aLegBridgeOtherLeg = ev.OtherLegUUID()
	case u != st.aUUID && u != st.bUUID:
		if st.cUUID == "" {
			st.cUUID = u
		}
		if u != st.cUUID {
			return
		}
		switch ev.EventName() {
		case EventChannelAnswer:
			st.cLegAnswer = true
		case EventChannelHangup:
			st.cLegHangup = true
		case EventChannelBridge:
			st.cLegBridge = true
			st.cLegBridgeOtherLeg = ev.OtherLegUUID()
		case EventChannelUnbridge:
			st.cLegUnbridge = true
		}
	}
}

// resolve implements spec.md section 4.5's result table, first match
// wins in the order listed there.
func (st *transferState) resolve() (TransferResult, bool) {
	switch {
	case st.cLegHangup && st.executeComplete && st.originateDisposition == "NO_ANSWER":
		return TransferResult{Outcome: TransferFailedNoAnswer}, true
	case st.cLegHangup && st.executeComplete && st.originateDisposition == "CALL_REJECTED":
		return TransferResult{Outcome: TransferFailedCallRejected}, true
	case st.cLegAnswer && st.cLegHangup && st.executeComplete &&
		st.attXferResult == "success" && st.lastBridgeHangupCause == "NORMAL_CLEARING" && st.originateDisposition == "SUCCESS":
		return TransferResult{Outcome: TransferFailedNormalClearing}, true
	case st.executeComplete && st.xferUUIDs != "":
		return TransferResult{Outcome: TransferSuccessThreeway}, true
	case st.cLegAnswer && st.bLegHangup && st.cLegBridge && st.cLegBridgeOtherLeg == st.aUUID:
		return TransferResult{Outcome: TransferSuccess}, true
	case st.bLegHangup && st.cLegAnswer && st.aLegBridge && st.aLegBridgeOtherLeg != st.bUUID:
		return TransferResult{Outcome: TransferSuccess}, true
	case st.aLegHangup:
		return TransferResult{Outcome: TransferHangup, AlegHangup: st.aLegHangupEvent}, true
	default:
		return TransferResult{}, false
	}
}

// AttendedTransfer performs an att_xfer to endpoint, per spec.md section
// 4.5. B is c.uuid (the transferor's leg); A is
// c.LastEvent().OtherLegUUID() (the original remote party). The
// orchestration subscribes to the event stream before issuing the
// att_xfer request (async, event_lock=false) so no correlating event can
// be missed, and guarantees the subscription is released when a result
// is produced or the request itself fails or ctx is cancelled.
//
// Grounded on spec.md section 4.5 (no teacher analog); the concurrent
// "issue the request while racing the event stream against ctx" shape
// is built with golang.org/x/sync/errgroup, the same library transfer
// orchestration in the pack's other repos uses for bounded concurrent
// fan-out.
func (c *Channel) AttendedTransfer(ctx context.Context, endpoint string) (*TransferResult, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	st := &transferState{aUUID: c.OtherLegUUID(), bUUID: c.uuid}

	events, cancel := c.socket.Events()
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	resultCh := make(chan TransferResult, 1)

	g.Go(func() error {
		_, err := c.socket.ExecuteApp(gctx, st.bUUID, "att_xfer", endpoint, true)
		return err
	})

	g.Go(func() error {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return &ConnectionError{Op: "att_xfer", Err: c.socket.closeErr}
				}
				st.absorb(ev)
				if res, done := st.resolve(); done {
					resultCh <- res
					return nil
				}
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	select {
	case res := <-resultCh:
		return &res, nil
	default:
		return nil, &InvalidOperationError{Reason: "att_xfer ended without a resolved outcome"}
	}
}
