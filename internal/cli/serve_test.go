package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/orchestrator"
	"github.com/sitesentry/sitesentry/internal/scheduler"
	"github.com/sitesentry/sitesentry/internal/store/memstore"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServeCommand_HasMetricsAddrFlag(t *testing.T) {
	cmd := newServeCommand()
	flag := cmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, flag)
	assert.Equal(t, ":9090", flag.DefValue)
}

func testApp(t *testing.T) (*app, *memstore.Store) {
	t.Helper()
	mem := memstore.New()
	sched := scheduler.New(
		config.NewDefaultSchedulerConfig(), config.NewDefaultRetryConfig(), config.NewDefaultBreakerConfig(),
		clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		memstore.Jobs(mem), memstore.Sites(mem),
		func(ctx context.Context, site *models.Site) error { return nil },
		zerolog.Nop(),
	)
	orch := orchestrator.New(memstore.Sites(mem), memstore.Jobs(mem), sched, zerolog.Nop())
	return &app{orchestrator: orch, logger: zerolog.Nop()}, mem
}

func TestHealthzHandler_OKWhenInvariantsHold(t *testing.T) {
	a, _ := testApp(t)
	require.NoError(t, a.orchestrator.RegisterSite(context.Background(), &models.Site{
		ID: "acme", URL: "https://acme.test", Schedule: models.Schedule{Kind: models.ScheduleInterval, Expression: "5m"}, Active: true,
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	a.healthzHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzHandler_ServiceUnavailableOnInvariantViolation(t *testing.T) {
	a, mem := testApp(t)
	require.NoError(t, memstore.Sites(mem).Create(context.Background(), &models.Site{
		ID: "acme", URL: "https://acme.test", Active: true,
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	a.healthzHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
