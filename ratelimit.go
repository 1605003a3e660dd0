/*
ratelimit.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"

	"golang.org/x/time/rate"
)

// NewCommandLimiter builds a token-bucket limiter suitable for
// EventSocket.SetCommandLimiter: ratePerSecond steady-state commands per
// second, burst allowed to spike briefly above that. A nil *rate.Limiter
// (the EventSocket default) means unlimited.
func NewCommandLimiter(ratePerSecond float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// waitLimiter blocks until l permits one more command, or ctx is done.
// A nil limiter never blocks.
func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
