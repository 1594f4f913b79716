// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Reindexer rebuilds the question search index from the repository
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	reindexer Reindexer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler running the reindex job on spec (standard 5-field format).
func NewScheduler(spec string, reindexer Reindexer, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		spec:      spec,
		reindexer: reindexer,
		timeout:   30 * time.Minute,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.reindex); err != nil {
		return fmt.Errorf("failed to schedule reindex %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("reindex_spec", s.spec),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the reindex job.
func (s *Scheduler) RunNow() {
	go s.reindex()
}

func (s *Scheduler) reindex() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("starting search reindex")

	n, err := s.reindexer.Reindex(ctx)
	if err != nil {
		s.logger.Error("search reindex failed", slog.Any("error", err))
		return
	}

	s.logger.Info("search reindex completed",
		slog.Int("questions", n),
		slog.Duration("elapsed", time.Since(start)),
	)
}
