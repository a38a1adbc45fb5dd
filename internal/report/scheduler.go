package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the report generator on a cron schedule
type Scheduler struct {
	cron       *cron.Cron
	generator  *Generator
	log        *logrus.Logger
	mu         sync.Mutex
	isRunning  bool
	entryID    cron.EntryID
	runTimeout time.Duration
}

// NewScheduler wires the cron runner around the generator
func NewScheduler(generator *Generator, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		generator:  generator,
		log:        log,
		runTimeout: 30 * time.Minute,
	}
}

// Schedule registers the report job under the given cron expression
func (s *Scheduler) Schedule(expression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(expression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if _, err := s.generator.Run(ctx); err != nil {
			s.log.WithError(err).Error("Scheduled report run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule report job: %w", err)
	}

	s.entryID = entryID
	s.log.WithField("schedule", expression).Info("Report job scheduled")
	return nil
}

// Start launches the cron loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.log.Info("Report scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	s.isRunning = false

	select {
	case <-stopCtx.Done():
		s.log.Info("Report scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("report scheduler shutdown timed out: %w", ctx.Err())
	}
}

// NextRun reports when the scheduled job fires next
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.cron.Entry(s.entryID)
	return entry.Next
}
