package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/config"
	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/scheduler"
	"github.com/sitesentry/sitesentry/internal/store/memstore"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testSite(id string) *models.Site {
	return &models.Site{
		ID:       id,
		URL:      "https://" + id + ".test",
		Schedule: models.Schedule{Kind: models.ScheduleInterval, Expression: "5m"},
		Active:   true,
	}
}

func newOrchestrator(t *testing.T, run scheduler.RunFunc) (*Orchestrator, *memstore.Store) {
	t.Helper()
	mem := memstore.New()
	if run == nil {
		run = func(ctx context.Context, site *models.Site) error { return nil }
	}
	sched := scheduler.New(
		config.NewDefaultSchedulerConfig(), config.NewDefaultRetryConfig(), config.NewDefaultBreakerConfig(),
		clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		memstore.Jobs(mem), memstore.Sites(mem), run, zerolog.Nop(),
	)
	return New(memstore.Sites(mem), memstore.Jobs(mem), sched, zerolog.Nop()), mem
}

func TestRegisterSite_EnrollsJob(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("acme")))

	job, err := memstore.Jobs(mem).Get(context.Background(), "acme")
	require.NoError(t, err)
	require.Equal(t, models.JobScheduled, job.Status)
}

func TestRegisterSite_InactiveSiteIsNotEnrolled(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	site := testSite("acme")
	site.Active = false
	require.NoError(t, o.RegisterSite(context.Background(), site))

	_, err := memstore.Jobs(mem).Get(context.Background(), "acme")
	require.Error(t, err)
}

func TestRegisterSite_RejectsInvalidSite(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	err := o.RegisterSite(context.Background(), &models.Site{})
	require.Error(t, err)
}

func TestRegisterSite_RollsBackSiteWhenEnrollFails(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	site := testSite("acme")
	site.Schedule = models.Schedule{Kind: models.ScheduleInterval, Expression: "notanumber"}

	require.Error(t, o.RegisterSite(context.Background(), site))

	_, err := memstore.Sites(mem).Get(context.Background(), "acme")
	require.Error(t, err)
	_, err = memstore.Jobs(mem).Get(context.Background(), "acme")
	require.Error(t, err)
}

func TestUnregisterSite_RemovesSiteAndJob(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("acme")))
	require.NoError(t, o.UnregisterSite(context.Background(), "acme"))

	_, err := memstore.Sites(mem).Get(context.Background(), "acme")
	require.Error(t, err)
	_, err = memstore.Jobs(mem).Get(context.Background(), "acme")
	require.Error(t, err)
}

func TestUpdateSite_DeactivatingUnenrolls(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	site := testSite("acme")
	require.NoError(t, o.RegisterSite(context.Background(), site))

	site.Active = false
	require.NoError(t, o.UpdateSite(context.Background(), site))

	_, err := memstore.Jobs(mem).Get(context.Background(), "acme")
	require.Error(t, err)
}

func TestPauseAllAndResumeAll(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("a")))
	require.NoError(t, o.RegisterSite(context.Background(), testSite("b")))

	require.NoError(t, o.PauseAll(context.Background()))
	require.NoError(t, o.ResumeAll(context.Background()))
}

func TestStatus_ReportsJobState(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("acme")))

	statuses, err := o.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "acme", statuses[0].SiteID)
	require.Equal(t, models.JobScheduled, statuses[0].JobStatus)
}

func TestCheckInvariants_PassesWhenEveryActiveSiteHasALiveJob(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("acme")))

	require.NoError(t, o.CheckInvariants(context.Background()))
}

func TestCheckInvariants_FailsWhenActiveSiteHasNoJob(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	require.NoError(t, memstore.Sites(mem).Create(context.Background(), testSite("acme")))

	err := o.CheckInvariants(context.Background())
	require.Error(t, err)
	var violation *appErrors.InvariantViolation
	require.ErrorAs(t, err, &violation)
}

func TestCheckInvariants_FailsWhenJobIsRemoved(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	require.NoError(t, o.RegisterSite(context.Background(), testSite("acme")))

	job, err := memstore.Jobs(mem).Get(context.Background(), "acme")
	require.NoError(t, err)
	job.Status = models.JobRemoved
	require.NoError(t, memstore.Jobs(mem).Save(context.Background(), job))

	err = o.CheckInvariants(context.Background())
	require.Error(t, err)
	var violation *appErrors.InvariantViolation
	require.ErrorAs(t, err, &violation)
}

func TestStartStop_EnrollsActiveSitesAndDrains(t *testing.T) {
	o, mem := newOrchestrator(t, nil)
	require.NoError(t, memstore.Sites(mem).Create(context.Background(), testSite("acme")))

	require.NoError(t, o.Start(context.Background()))
	defer o.sched.Stop()

	_, err := memstore.Jobs(mem).Get(context.Background(), "acme")
	require.NoError(t, err)

	require.NoError(t, o.Stop(context.Background()))
}

func TestStart_TwiceReturnsError(t *testing.T) {
	o, _ := newOrchestrator(t, nil)
	require.NoError(t, o.Start(context.Background()))
	defer o.sched.Stop()

	require.Error(t, o.Start(context.Background()))
}
