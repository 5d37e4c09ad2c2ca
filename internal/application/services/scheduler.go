package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is the unit of work run by the Scheduler
type JobFunc func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules (with a seconds field).
// A job never overlaps with itself.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	jobs    map[string]JobFunc
	running map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler; each run is bounded by timeout when it is positive
func NewScheduler(timeout time.Duration, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]JobFunc),
		running: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob registers a job under a unique name
func (s *Scheduler) AddJob(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	if _, err := s.cron.AddFunc(spec, func() { s.run(name) }); err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = fn

	s.logger.Info("Job added to scheduler",
		zap.String("job", name),
		zap.String("schedule", spec),
	)

	return nil
}

// RunNow runs a registered job synchronously, outside of its schedule
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	_, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	return s.run(name)
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(name string) error {
	s.mu.Lock()
	fn := s.jobs[name]
	if s.running[name] {
		s.mu.Unlock()
		s.logger.Warn("Job still running, skipping", zap.String("job", name))
		return nil
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[name] = false
		s.mu.Unlock()
	}()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.Error("Job failed",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Job completed",
		zap.String("job", name),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
