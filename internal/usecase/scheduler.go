package usecase

import (
	"context"
	"log/slog"
	"time"

	"DisasterTriage/internal/ports"
)

// Scheduler wires the cron driver with the ingestion use case.
type Scheduler struct {
	driver   ports.Scheduler
	ingestor *Ingestor
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion runs.
func NewScheduler(driver ports.Scheduler, ingestor *Ingestor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, ingestor: ingestor, logger: logger.With("component", "scheduler")}
}

// Start registers the ingestor with the provided scheduler. A failed run is
// logged; the next trigger tries again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingestor == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.ingestor.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled ingest failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
