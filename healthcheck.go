/*
healthcheck.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// healthChecker periodically issues "status" over an EventSocket and
// records the last success timestamp, a SPEC_FULL.md ambient addition
// with no teacher analog; grounded on the pack's robfig/cron/v3 usage
// for scheduled work.
type healthChecker struct {
	cron *cron.Cron
}

// StartHealthCheck schedules a "status" api probe on schedule (standard
// 5-field cron syntax, e.g. "*/30 * * * * *" needs the cron.WithSeconds
// parser — this uses the standard 5-field parser, so the finest grain is
// once a minute). Each successful probe updates the
// esl_healthcheck_last_success gauge; failures are logged but never
// torn the socket down on their own.
func (s *EventSocket) StartHealthCheck(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ResponseTimeout)
		defer cancel()
		if _, err := s.SendAPI(ctx, "status"); err != nil {
			s.logger.Warning("<EventSocket> health-check probe failed: " + err.Error())
			return
		}
		healthcheckLastSuccess.Set(float64(time.Now().Unix()))
	})
	if err != nil {
		return err
	}
	c.Start()
	s.health = &healthChecker{cron: c}
	return nil
}

// StopHealthCheck cancels the scheduled health-check probe, if any.
func (s *EventSocket) StopHealthCheck() {
	if s.health != nil {
		s.health.Stop()
		s.health = nil
	}
}

func (h *healthChecker) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
}
