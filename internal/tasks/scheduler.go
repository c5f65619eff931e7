package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	scheduleEnqueueTimeout = 10 * time.Second
	scheduleUniqueFor      = 5 * time.Minute
)

// MaintenanceEnqueuer enqueues maintenance jobs
type MaintenanceEnqueuer interface {
	EnqueueMaintenance(ctx context.Context, typename string, uniqueFor time.Duration) error
}

// Scheduler enqueues maintenance jobs on cron schedules evaluated in UTC
type Scheduler struct {
	cron     *cron.Cron
	enqueuer MaintenanceEnqueuer
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(enqueuer MaintenanceEnqueuer, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Add schedules typename with a standard five-field cron spec
func (s *Scheduler) Add(spec, typename string) error {
	_, err := s.cron.AddFunc(spec, func() { s.enqueue(typename) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, typename, err)
	}
	s.logger.Info("Job scheduled", zap.String("task", typename), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) enqueue(typename string) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduleEnqueueTimeout)
	defer cancel()

	if err := s.enqueuer.EnqueueMaintenance(ctx, typename, scheduleUniqueFor); err != nil {
		s.logger.Error("Failed to enqueue scheduled job", zap.String("task", typename), zap.Error(err))
		return
	}
	s.logger.Info("Enqueued scheduled job", zap.String("task", typename))
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops scheduling and waits for running enqueues
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}
