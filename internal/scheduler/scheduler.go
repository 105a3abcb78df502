// Package scheduler runs recurring maintenance jobs, most importantly the
// nightly strategy validation backtest.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/smartvest/pkg/logger"
)

// Job is one schedulable unit of work.
type Job interface {
	// Name identifies the job in logs and history.
	Name() string
	// Run executes the job.
	Run(ctx context.Context) error
	// Schedule is the cron expression, e.g. "0 22 * * 1-5" or "@daily".
	Schedule() string
}

// JobResult records one execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyLimit = 50

// Scheduler wraps cron with per-job retry and a bounded result history.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu      sync.RWMutex
	jobs    map[string]Job
	history map[string][]JobResult

	maxRetries int
	retryDelay time.Duration
}

// New creates an empty scheduler.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		logger:     log,
		jobs:       make(map[string]Job),
		history:    make(map[string][]JobResult),
		maxRetries: 2,
		retryDelay: time.Minute,
	}
}

// AddJob registers a job under its cron schedule.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.jobs[name] = job

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	go s.runJob(job)
	return nil
}

// Start begins executing schedules.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop waits for running jobs and halts the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// History returns the recorded results for a job, newest last.
func (s *Scheduler) History(name string) []JobResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]JobResult(nil), s.history[name]...)
}

func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	start := time.Now()
	s.logger.WithField("job", name).Info("Job started")

	var lastErr error
	success := false
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := job.Run(context.Background()); err == nil {
			success = true
			break
		} else {
			lastErr = err
			s.logger.WithFields(map[string]interface{}{
				"job":     name,
				"attempt": attempt + 1,
			}).WithError(err).Warn("Job execution failed")
		}
		if attempt < s.maxRetries {
			time.Sleep(s.retryDelay)
		}
	}

	result := JobResult{
		JobName:   name,
		StartTime: start,
		Duration:  time.Since(start),
		Success:   success,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	s.history[name] = append(s.history[name], result)
	if len(s.history[name]) > historyLimit {
		s.history[name] = s.history[name][len(s.history[name])-historyLimit:]
	}
	s.mu.Unlock()

	if success {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": result.Duration,
		}).Info("Job completed")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      name,
			"duration": result.Duration,
		}).WithError(lastErr).Error("Job failed after retries")
	}
}
