// Package jobs runs the periodic maintenance tasks of the server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/kku-mis/course-registration/internal/logging"
	"github.com/kku-mis/course-registration/internal/services"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	logPurgeSchedule = "0 30 2 * * *"
	jobTimeout       = 5 * time.Minute
)

type OrphanSweeper interface {
	SweepOrphans(ctx context.Context) ([]services.OrphanSweepResult, error)
}

// Scheduler owns the cron runner. Schedules use six fields, seconds first.
type Scheduler struct {
	cron          *cron.Cron
	db            *gorm.DB
	sweeper       OrphanSweeper
	sweepSchedule string
	retentionDays int
}

// NewScheduler builds a scheduler. An empty sweepSchedule disables the
// orphan sweep.
func NewScheduler(db *gorm.DB, sweeper OrphanSweeper, sweepSchedule string, retentionDays int) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		db:            db,
		sweeper:       sweeper,
		sweepSchedule: sweepSchedule,
		retentionDays: retentionDays,
	}
}

// Start registers every job and starts the runner.
func (s *Scheduler) Start() error {
	if s.sweepSchedule != "" {
		if _, err := s.cron.AddFunc(s.sweepSchedule, s.run("orphan_sweep", s.SweepOrphans)); err != nil {
			return err
		}
	}
	if _, err := s.cron.AddFunc(logPurgeSchedule, s.run("log_purge", s.PurgeLogs)); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("cron jobs started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("cron jobs stopped")
}

func (s *Scheduler) run(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			slog.Error("cron job failed", "component", "jobs", "job", name, "error", err)
			return
		}
		slog.Info("cron job completed", "job", name, "duration_ms", time.Since(start).Milliseconds())
	}
}

func (s *Scheduler) SweepOrphans(ctx context.Context) error {
	results, err := s.sweeper.SweepOrphans(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Removed {
			slog.Warn("orphan left in place", "principal_id", r.PrincipalID, "email", r.Email, "error", r.Error)
		}
	}
	return nil
}

func (s *Scheduler) PurgeLogs(ctx context.Context) error {
	removed, err := logging.Purge(ctx, s.db, s.retentionDays, time.Now())
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("log cleanup completed", "deleted", removed)
	}
	return nil
}
