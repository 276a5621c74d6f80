package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PollSchedule paces a sequential loop on a cron schedule. Unlike cron.Cron it
// never starts a job itself, so a slow cycle simply delays the next one.
type PollSchedule struct {
	schedule cron.Schedule
	spec     string
	logger   *logrus.Entry
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

// NewPollSchedule parses spec with the standard cron parser, which also
// accepts descriptors such as "@every 10m" or "@hourly".
func NewPollSchedule(spec string, logger *logrus.Entry) (*PollSchedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse poll schedule %q: %w", spec, err)
	}
	return &PollSchedule{
		schedule: sched,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Next returns the first activation strictly after t.
func (s *PollSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Wait blocks until the next activation or until ctx is done.
func (s *PollSchedule) Wait(ctx context.Context) error {
	now := s.now()
	next := s.schedule.Next(now)
	delay := next.Sub(now)
	s.logger.WithFields(logrus.Fields{
		"schedule": s.spec,
		"next_run": next.Format(time.RFC3339),
	}).Debug("Waiting for next poll")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.after(delay):
		return nil
	}
}
