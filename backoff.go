/*
backoff.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "time"

// fibDuration returns successive Fibonacci multiples of unit (1, 1, 2,
// 3, 5, ... units), capped at max when max > 0.
// Ported from the teacher's fib() backoff generator (fsock.go), retargeted
// to time.Duration so it composes directly with reconnect loops.
func fibDuration(unit, max time.Duration) func() time.Duration {
	a, b := time.Duration(0), unit
	return func() time.Duration {
		a, b = b, a+b
		if max > 0 && a > max {
			return max
		}
		return a
	}
}
