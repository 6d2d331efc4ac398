// Package scheduler drives per-site checks against their schedules,
// honoring concurrency caps, misfire grace, retry/backoff, and a
// per-site circuit breaker. It dispatches with a ticker and a bounded
// worker pool; the job state machine, backoff, and breaker implement
// this package's own retry and isolation semantics.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/metrics"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"

	"github.com/rs/zerolog"
)

// RunFunc executes one check cycle for a site (fetch, extract, detect,
// classify, persist, alert — the workflow engine's entry point).
type RunFunc func(ctx context.Context, site *models.Site) error

const pollInterval = time.Second

// Scheduler owns the ticker loop, the worker pool, and each site's
// job bookkeeping and circuit breaker.
type Scheduler struct {
	logger     zerolog.Logger
	schedCfg   config.SchedulerConfig
	retryCfg   config.RetryConfig
	breakerCfg config.BreakerConfig
	clock      clock.Clock
	jobs       store.JobStore
	sites      store.SiteStore
	run        RunFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	workCh chan string
	sem    chan struct{}

	mu       sync.Mutex
	breakers map[string]*breaker
	running  map[string]bool
	paused   map[string]bool
	active   bool
}

// New builds a Scheduler. run is invoked once per due, non-coalesced,
// non-paused site on each dispatch.
func New(schedCfg config.SchedulerConfig, retryCfg config.RetryConfig, breakerCfg config.BreakerConfig, c clock.Clock, jobs store.JobStore, sites store.SiteStore, run RunFunc, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		logger:     logger.With().Str("component", "scheduler").Logger(),
		schedCfg:   schedCfg,
		retryCfg:   retryCfg,
		breakerCfg: breakerCfg,
		clock:      c,
		jobs:       jobs,
		sites:      sites,
		run:        run,
		breakers:   map[string]*breaker{},
		running:    map[string]bool{},
		paused:     map[string]bool{},
	}
}

// Start launches the worker pool and the polling loop that dispatches
// due jobs. It returns once workers are running; the polling loop runs
// in the background until Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	s.active = true
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	workers := s.schedCfg.MaxConcurrentJobs
	if workers <= 0 {
		workers = 1
	}
	s.workCh = make(chan string, workers*2)
	s.sem = make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	ticker := s.clock.NewTicker(pollInterval)
	s.wg.Add(1)
	go s.pollLoop(ticker)

	s.logger.Info().Int("workers", workers).Msg("scheduler started")
	return nil
}

// Stop cancels the polling loop and waits for in-flight jobs to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.cancel()
	close(s.workCh)
	s.wg.Wait()

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) pollLoop(ticker clock.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C():
			s.dispatchDue()
		}
	}
}

// dispatchDue lists jobs due now and enqueues the ones eligible to run,
// coalescing per-site and skipping paused sites. Circuit-open jobs are
// enqueued too, so runOne's breaker check can let the recovery probe
// through once the recovery timeout has elapsed.
func (s *Scheduler) dispatchDue() {
	jobs, err := s.jobs.List(s.ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list jobs")
		return
	}

	now := s.clock.Now()
	graceWindow := time.Duration(s.schedCfg.MisfireGraceSeconds) * time.Second

	for _, job := range jobs {
		if job.Status != models.JobScheduled && job.Status != models.JobCircuitOpen {
			continue
		}
		if now.Before(job.NextRunAt) {
			continue
		}

		s.mu.Lock()
		paused := s.paused[job.SiteID]
		running := s.running[job.SiteID]
		s.mu.Unlock()
		if paused || running {
			continue
		}

		if graceWindow > 0 && now.Sub(job.NextRunAt) > graceWindow {
			s.logger.Warn().Str("site_id", job.SiteID).Msg("dropping misfired job past grace window")
			s.rescheduleAfterMisfire(job)
			continue
		}

		s.mu.Lock()
		s.running[job.SiteID] = true
		s.mu.Unlock()

		select {
		case s.workCh <- job.SiteID:
		default:
			s.logger.Warn().Str("site_id", job.SiteID).Msg("work queue full, will retry next tick")
			s.mu.Lock()
			delete(s.running, job.SiteID)
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) rescheduleAfterMisfire(job *models.Job) {
	site, err := s.sites.Get(s.ctx, job.SiteID)
	if err != nil {
		return
	}
	next, err := nextFire(s.clock.Now(), site.Schedule)
	if err != nil {
		return
	}
	job.NextRunAt = next
	_ = s.jobs.Save(s.ctx, job)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	for siteID := range s.workCh {
		s.sem <- struct{}{}
		s.runOne(siteID)
		<-s.sem
	}
}

// runOne executes a single job cycle: breaker gating, the run itself,
// and retry/backoff or next-fire scheduling based on the outcome.
// dispatchDue marks siteID running at enqueue time, before any worker
// dequeues it, so runOne only ever clears the flag on the way out.
func (s *Scheduler) runOne(siteID string) {
	defer func() {
		s.mu.Lock()
		delete(s.running, siteID)
		s.mu.Unlock()
	}()

	job, err := s.jobs.Get(s.ctx, siteID)
	if err != nil {
		return
	}
	site, err := s.sites.Get(s.ctx, siteID)
	if err != nil {
		return
	}

	b := s.breakerFor(siteID)
	if !b.Allow() {
		job.Status = models.JobCircuitOpen
		_ = s.jobs.Save(s.ctx, job)
		metrics.ObserveJob(siteID, "circuit_open")
		return
	}

	job.Status = models.JobRunning
	now := s.clock.Now()
	job.LastRunAt = &now
	_ = s.jobs.Save(s.ctx, job)

	runErr := s.run(s.ctx, site)

	if runErr == nil {
		b.RecordSuccess()
		job.RetryCount = 0
		job.ConsecutiveFailures = 0
		success := s.clock.Now()
		job.LastSuccessAt = &success
		job.Status = models.JobScheduled
		if next, err := nextFire(s.clock.Now(), site.Schedule); err == nil {
			job.NextRunAt = next
		}
		_ = s.jobs.Save(s.ctx, job)
		metrics.ObserveJob(siteID, "success")
		return
	}

	s.logger.Warn().Err(runErr).Str("site_id", siteID).Msg("job failed")
	b.RecordFailure()
	job.ConsecutiveFailures++

	if b.State() == breakerOpen {
		job.Status = models.JobCircuitOpen
		_ = s.jobs.Save(s.ctx, job)
		metrics.ObserveJob(siteID, "failed")
		metrics.ObserveBreakerTrip(siteID)
		return
	}

	job.RetryCount++
	if job.MaxRetries > 0 && job.RetryCount <= job.MaxRetries {
		job.Status = models.JobScheduled
		job.NextRunAt = s.clock.Now().Add(backoffDelay(s.retryCfg, job.RetryCount))
		_ = s.jobs.Save(s.ctx, job)
		metrics.ObserveJob(siteID, "retry")
		return
	}

	job.RetryCount = 0
	job.Status = models.JobScheduled
	if next, err := nextFire(s.clock.Now(), site.Schedule); err == nil {
		job.NextRunAt = next
	}
	_ = s.jobs.Save(s.ctx, job)
	metrics.ObserveJob(siteID, "failed")
}

func (s *Scheduler) breakerFor(siteID string) *breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[siteID]
	if !ok {
		b = newBreaker(s.breakerCfg, s.clock)
		s.breakers[siteID] = b
	}
	return b
}

// Enroll creates or resets a site's job record so the dispatcher picks
// it up on its next due time. Called by the orchestrator when a site is
// registered or its schedule changes.
func (s *Scheduler) Enroll(ctx context.Context, site *models.Site) error {
	next, err := nextFire(s.clock.Now(), site.Schedule)
	if err != nil {
		return fmt.Errorf("compute next fire time: %w", err)
	}
	job := &models.Job{
		ID:         site.ID,
		SiteID:     site.ID,
		NextRunAt:  next,
		MaxRetries: s.retryCfg.MaxAttempts,
		Status:     models.JobScheduled,
	}
	return s.jobs.Save(ctx, job)
}

// Unenroll removes a site's job record and drops its breaker and
// pause/running bookkeeping. Called when a site is unregistered.
func (s *Scheduler) Unenroll(ctx context.Context, siteID string) error {
	s.mu.Lock()
	delete(s.breakers, siteID)
	delete(s.paused, siteID)
	delete(s.running, siteID)
	s.mu.Unlock()
	return s.jobs.Delete(ctx, siteID)
}

// Pause marks a site's job as paused; paused jobs are skipped by the
// dispatcher and do not count against concurrency.
func (s *Scheduler) Pause(siteID string) {
	s.mu.Lock()
	s.paused[siteID] = true
	s.mu.Unlock()
}

// Resume clears a site's paused flag.
func (s *Scheduler) Resume(siteID string) {
	s.mu.Lock()
	delete(s.paused, siteID)
	s.mu.Unlock()
}

// TriggerImmediate enqueues a site's job for the next dispatch tick
// regardless of its scheduled next-run time, provided it is not already
// running or paused.
func (s *Scheduler) TriggerImmediate(ctx context.Context, siteID string) error {
	job, err := s.jobs.Get(ctx, siteID)
	if err != nil {
		return err
	}
	job.NextRunAt = s.clock.Now()
	return s.jobs.Save(ctx, job)
}
