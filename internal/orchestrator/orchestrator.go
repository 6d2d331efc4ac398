// Package orchestrator owns the monitoring engine's top-level lifecycle:
// ordered startup and shutdown, site registration, and the
// pause/resume/trigger/status operations an operator drives the engine
// through. It wires together the site store and the scheduler, whose
// RunFunc closure is the workflow engine's Run method. Start/Stop take
// a cancellable context, and site registration is dynamic —
// RegisterSite/UnregisterSite generalize from ad hoc URLs to full Site
// records with schedules and per-site overrides.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	stderrors "errors"

	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/scheduler"
	"github.com/sitesentry/sitesentry/internal/store"

	"github.com/rs/zerolog"
)

// drainTimeout bounds how long Stop waits for in-flight jobs before
// giving up and returning anyway.
const drainTimeout = 30 * time.Second

// Orchestrator manages the scheduler's lifecycle and exposes the
// operator-facing site registry on top of it.
type Orchestrator struct {
	logger zerolog.Logger
	sites  store.SiteStore
	jobs   store.JobStore
	sched  *scheduler.Scheduler

	mu      sync.Mutex
	started bool
}

// New builds an Orchestrator. sched must already be constructed with
// its RunFunc (the workflow engine's Run method) bound.
func New(sites store.SiteStore, jobs store.JobStore, sched *scheduler.Scheduler, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		logger: logger.With().Str("component", "orchestrator").Logger(),
		sites:  sites,
		jobs:   jobs,
		sched:  sched,
	}
}

// Start enrolls every active site and starts the scheduler. The store
// layer is assumed already open; ordering here is site enrollment
// before the scheduler begins dispatching, so no job is dispatched
// before its bookkeeping record exists.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.mu.Unlock()

	sites, err := o.sites.List(ctx)
	if err != nil {
		return appErrors.WrapError(err, "list sites")
	}

	for _, site := range sites {
		if !site.Active {
			continue
		}
		if err := o.sched.Enroll(ctx, site); err != nil {
			o.logger.Warn().Err(err).Str("site_id", site.ID).Msg("failed to enroll site, skipping")
			continue
		}
	}

	if err := o.sched.Start(ctx); err != nil {
		return appErrors.WrapError(err, "start scheduler")
	}

	o.mu.Lock()
	o.started = true
	o.mu.Unlock()

	o.logger.Info().Int("sites", len(sites)).Msg("orchestrator started")
	return nil
}

// Stop shuts the scheduler down, waiting up to drainTimeout for
// in-flight jobs to finish. It returns after the deadline regardless,
// logging a warning if the drain did not complete in time.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = false
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.sched.Stop()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info().Msg("orchestrator stopped")
		return nil
	case <-time.After(drainTimeout):
		o.logger.Warn().Dur("timeout", drainTimeout).Msg("orchestrator stop timed out waiting for jobs to drain")
		return fmt.Errorf("orchestrator stop: drain timed out after %s", drainTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterSite validates and persists a new site, then enrolls it with
// the scheduler if it is active. A schedule the scheduler rejects
// rolls the whole registration back rather than leaving an active site
// with no job record.
func (o *Orchestrator) RegisterSite(ctx context.Context, site *models.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	now := time.Now()
	site.CreatedAt = now
	site.UpdatedAt = now
	if err := o.sites.Create(ctx, site); err != nil {
		return appErrors.WrapError(err, "create site")
	}
	if !site.Active {
		return nil
	}
	if err := o.sched.Enroll(ctx, site); err != nil {
		if delErr := o.sites.Delete(ctx, site.ID); delErr != nil {
			o.logger.Error().Err(delErr).Str("site_id", site.ID).Msg("failed to roll back site after enroll failure")
		}
		return err
	}
	return nil
}

// UnregisterSite removes a site and its job bookkeeping. Cascading
// removal of snapshots and alerts is the store layer's responsibility.
func (o *Orchestrator) UnregisterSite(ctx context.Context, siteID string) error {
	if err := o.sched.Unenroll(ctx, siteID); err != nil && !stderrors.Is(err, appErrors.ErrNotFound) {
		o.logger.Warn().Err(err).Str("site_id", siteID).Msg("failed to unenroll site")
	}
	return o.sites.Delete(ctx, siteID)
}

// UpdateSite persists changes to a site and re-enrolls it so a changed
// schedule or threshold override takes effect on the next dispatch. A
// site flipped to inactive is unenrolled instead.
func (o *Orchestrator) UpdateSite(ctx context.Context, site *models.Site) error {
	if err := site.Validate(); err != nil {
		return err
	}
	site.UpdatedAt = time.Now()
	if err := o.sites.Update(ctx, site); err != nil {
		return appErrors.WrapError(err, "update site")
	}
	if !site.Active {
		return o.sched.Unenroll(ctx, site.ID)
	}
	return o.sched.Enroll(ctx, site)
}

// PauseAll pauses every registered site's job without unenrolling it.
func (o *Orchestrator) PauseAll(ctx context.Context) error {
	sites, err := o.sites.List(ctx)
	if err != nil {
		return appErrors.WrapError(err, "list sites")
	}
	for _, site := range sites {
		o.sched.Pause(site.ID)
	}
	return nil
}

// ResumeAll clears every registered site's paused flag.
func (o *Orchestrator) ResumeAll(ctx context.Context) error {
	sites, err := o.sites.List(ctx)
	if err != nil {
		return appErrors.WrapError(err, "list sites")
	}
	for _, site := range sites {
		o.sched.Resume(site.ID)
	}
	return nil
}

// TriggerImmediate forces a site's job to be picked up on the
// scheduler's next dispatch tick, bypassing its normal schedule.
func (o *Orchestrator) TriggerImmediate(ctx context.Context, siteID string) error {
	return o.sched.TriggerImmediate(ctx, siteID)
}

// SiteStatus summarizes a monitored site's current scheduling state for
// operator-facing status queries.
type SiteStatus struct {
	SiteID              string
	Active              bool
	JobStatus           models.JobStatus
	NextRunAt           time.Time
	LastRunAt           *time.Time
	LastSuccessAt       *time.Time
	ConsecutiveFailures int
}

// CheckInvariants verifies that every active site has exactly one job
// record whose status is not removed. It is read-only diagnostic
// state meant for the health endpoint, not a self-healing pass: a
// violation here means Register/Unregister/Update let bookkeeping
// drift out of sync with the site registry and should be surfaced
// rather than patched over silently.
func (o *Orchestrator) CheckInvariants(ctx context.Context) error {
	sites, err := o.sites.List(ctx)
	if err != nil {
		return appErrors.WrapError(err, "list sites")
	}

	for _, site := range sites {
		if !site.Active {
			continue
		}
		job, err := o.jobs.Get(ctx, site.ID)
		if err != nil {
			if stderrors.Is(err, appErrors.ErrNotFound) {
				return appErrors.NewInvariantViolation("active_site_has_job",
					fmt.Sprintf("site %q is active but has no job record", site.ID))
			}
			return appErrors.WrapError(err, "load job for invariant check")
		}
		if job.Status == models.JobRemoved {
			return appErrors.NewInvariantViolation("active_site_has_job",
				fmt.Sprintf("site %q is active but its job is removed", site.ID))
		}
	}
	return nil
}

// Status reports every registered site's current job state.
func (o *Orchestrator) Status(ctx context.Context) ([]SiteStatus, error) {
	sites, err := o.sites.List(ctx)
	if err != nil {
		return nil, appErrors.WrapError(err, "list sites")
	}

	statuses := make([]SiteStatus, 0, len(sites))
	for _, site := range sites {
		st := SiteStatus{SiteID: site.ID, Active: site.Active}
		job, err := o.jobs.Get(ctx, site.ID)
		if err != nil {
			if !stderrors.Is(err, appErrors.ErrNotFound) {
				o.logger.Warn().Err(err).Str("site_id", site.ID).Msg("failed to load job status")
			}
			statuses = append(statuses, st)
			continue
		}
		st.JobStatus = job.Status
		st.NextRunAt = job.NextRunAt
		st.LastRunAt = job.LastRunAt
		st.LastSuccessAt = job.LastSuccessAt
		st.ConsecutiveFailures = job.ConsecutiveFailures
		statuses = append(statuses, st)
	}
	return statuses, nil
}
