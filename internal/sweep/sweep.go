// Package sweep wires the background cron jobs that expire stale rows:
// memory entries past their TTL and protected tokens past their
// expiry (spec §4.9 ambient scheduling section).
package sweep

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/sharedcontext/server/internal/logger"
)

// Sweeper matches both auth.Manager.Sweep and memory.Core.Sweep.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Scheduler owns the shared cron instance backing every sweep job, mirroring
// the teacher's single-global-cron-instance idiom (one background goroutine,
// one ticker, for every scheduled job rather than one per job).
type Scheduler struct {
	cron   *cron.Cron
	jobIDs map[string]cron.EntryID
}

// New builds a Scheduler with its own cron instance. Call Start to begin
// running jobs and Stop to shut down cleanly.
func New() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobIDs: make(map[string]cron.EntryID),
	}
}

// Register schedules sweeper.Sweep to run on cronExpr, wrapped with panic
// recovery and structured logging of the number of rows swept.
func (s *Scheduler) Register(jobName, cronExpr string, sweeper Sweeper) error {
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Sweep().Error().Interface("panic", r).Str("job", jobName).Msg("sweep job panicked")
			}
		}()

		n, err := sweeper.Sweep(context.Background())
		if err != nil {
			logger.Sweep().Warn().Err(err).Str("job", jobName).Msg("sweep job failed")
			return
		}
		if n > 0 {
			logger.Sweep().Info().Str("job", jobName).Int64("rows_swept", n).Msg("sweep completed")
		}
	}

	entryID, err := s.cron.AddFunc(cronExpr, wrapped)
	if err != nil {
		return fmt.Errorf("sweep: schedule job %s: %w", jobName, err)
	}
	s.jobIDs[jobName] = entryID
	return nil
}

// Start begins running scheduled jobs in the cron library's own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
