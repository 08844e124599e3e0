package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// BatchRunner is the unit of work triggered on each schedule tick.
type BatchRunner interface {
	RunOnce(ctx context.Context) (Summary, error)
}

// Scheduler triggers a batch on a cron expression evaluated in a fixed
// time zone.
type Scheduler struct {
	cron   *cron.Cron
	batch  BatchRunner
	logger *slog.Logger
	entry  cron.EntryID
	ctx    context.Context
}

// NewScheduler parses spec (standard five-field cron or a descriptor such as
// "@daily") and binds it to batch.
func NewScheduler(spec string, loc *time.Location, batch BatchRunner, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &Scheduler{
		cron:   cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		batch:  batch,
		logger: logger,
		ctx:    context.Background(),
	}

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Next returns the next scheduled trigger time.
func (s *Scheduler) Next(from time.Time) time.Time {
	return s.cron.Entry(s.entry).Schedule.Next(from)
}

// Run starts triggering and blocks until ctx is cancelled. A batch that is
// running when ctx ends is waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "next", s.Next(time.Now()))

	<-ctx.Done()
	s.logger.Info("scheduler stopping", "reason", ctx.Err())
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) tick() {
	if _, err := s.batch.RunOnce(s.ctx); err != nil {
		s.logger.Error("scheduled batch failed", "error", err)
	}
}
