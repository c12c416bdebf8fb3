// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs the digest on a daily timer.
package schedule

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/scholar-digest/pkg/types"
)

// BuildSpec converts an HH:MM check time and the weekdays-only flag into a
// cron expression. A malformed or out-of-range time falls back to noon.
func BuildSpec(cfg types.ScheduleConfig) string {
	hour, minute := parseCheckTime(cfg.CheckTime)
	if cfg.WeekdaysOnly {
		return fmt.Sprintf("%d %d * * MON-FRI", minute, hour)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

func parseCheckTime(s string) (hour, minute int) {
	hourStr, minuteStr, hasMinute := strings.Cut(strings.TrimSpace(s), ":")

	hour, err := strconv.Atoi(hourStr)
	if err == nil && hasMinute {
		minute, err = strconv.Atoi(minuteStr)
	}
	if err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 12, 0
	}
	return hour, minute
}

// Scheduler triggers a task once per day at the configured time.
type Scheduler struct {
	cron *cron.Cron
	spec string
	w    io.Writer
}

// New builds a Scheduler for cfg. The task is not registered until Run.
func New(cfg types.ScheduleConfig, w io.Writer) *Scheduler {
	if w == nil {
		w = io.Discard
	}
	return &Scheduler{cron: cron.New(), spec: BuildSpec(cfg), w: w}
}

// Spec returns the cron expression the scheduler runs on.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Run registers task on the schedule and blocks until ctx is cancelled.
// Task failures are logged and the schedule keeps running.
func (s *Scheduler) Run(ctx context.Context, task func(context.Context) error) error {
	entryID, err := s.cron.AddFunc(s.spec, func() {
		fmt.Fprintf(s.w, "scheduled run starting\n")
		if err := task(ctx); err != nil {
			fmt.Fprintf(s.w, "scheduled run failed: %v\n", err)
			return
		}
		fmt.Fprintf(s.w, "scheduled run finished\n")
	})
	if err != nil {
		return fmt.Errorf("registering schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	fmt.Fprintf(s.w, "scheduler running (%s), next run at %s\n",
		s.spec, s.cron.Entry(entryID).Next.Format("2006-01-02 15:04"))

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}
