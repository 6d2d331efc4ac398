// Package cli wires the monitoring engine's components into runnable
// commands: a cobra command tree with a context-carried application
// instance built once in PersistentPreRunE, and a serve/check/sites
// subcommand set covering the daemon, one-shot, and registry
// operations.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sitesentry/sitesentry/internal/browser"
	"github.com/sitesentry/sitesentry/internal/classifier/ensemble"
	"github.com/sitesentry/sitesentry/internal/classifier/llm"
	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/detector"
	"github.com/sitesentry/sitesentry/internal/hasher"
	"github.com/sitesentry/sitesentry/internal/logger"
	"github.com/sitesentry/sitesentry/internal/notifier"
	"github.com/sitesentry/sitesentry/internal/orchestrator"
	"github.com/sitesentry/sitesentry/internal/scheduler"
	"github.com/sitesentry/sitesentry/internal/store"
	"github.com/sitesentry/sitesentry/internal/store/sqlitestore"
	"github.com/sitesentry/sitesentry/internal/vectorizer"
	"github.com/sitesentry/sitesentry/internal/workflow"

	"github.com/rs/zerolog"
)

// app bundles every long-lived component a command might need. Built
// once per process invocation by newApp and torn down by Close.
type app struct {
	cfgMgr *config.Manager
	cfg    *config.GlobalConfig
	logger zerolog.Logger

	db      *sqlitestore.Store
	sites   store.SiteStore
	jobs    store.JobStore
	browser *browser.Pool

	orchestrator *orchestrator.Orchestrator
	engine       *workflow.Engine
	notify       notifier.Notifier
}

// newApp loads configuration, opens the durable store, and wires every
// pipeline stage into an Orchestrator, without starting anything.
func newApp(cfgPath string) (*app, error) {
	bootLog := zerolog.Nop()
	cfgMgr, err := config.NewManager(cfgPath, cfgPath != "", bootLog)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := cfgMgr.Current()

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := sqlitestore.Open(cfg.Scheduler.SQLiteDBPath, zlog)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	pool := browser.New(cfg.Browser, zlog)

	extractor := hasher.NewExtractor(cfg.Hasher)
	fingerprinter := hasher.NewFingerprinter()
	det := detector.New(cfg.Detector)

	var vec *vectorizer.Vectorizer
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		embedder := vectorizer.NewOpenAIEmbedder(apiKey, cfg.Vectorizer.Model)
		vec = vectorizer.New(cfg.Vectorizer, embedder)
	} else {
		zlog.Warn().Msg("OPENAI_API_KEY not set, vectorize step disabled")
	}

	var llmClient ensemble.LLMClassifier
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		client, err := llm.New(apiKey, os.Getenv("OPENAI_BASE_URL"), cfg.Classifier.LLMModel,
			cfg.Classifier.LLMMaxTokens, time.Duration(cfg.Classifier.LLMTimeoutSeconds)*time.Second)
		if err != nil {
			zlog.Warn().Err(err).Msg("failed to build LLM classifier, llm votes will abstain")
		} else {
			llmClient = client
		}
	}
	pipeline := ensemble.New(cfg.Classifier, llmClient)

	notify := buildNotifier(cfg.Notifier, zlog)

	sites := sqlitestore.Sites(db)
	jobs := sqlitestore.Jobs(db)

	engine := workflow.New(
		workflow.WrapPool(pool), extractor, fingerprinter, det, vec, pipeline,
		sqlitestore.Snapshots(db), sqlitestore.Vectors(db), sqlitestore.Alerts(db), sites,
		notify, cfg.Scheduler.MaxConcurrentJobs, clock.New(), zlog,
	)

	sched := scheduler.New(cfg.Scheduler, cfg.Retry, cfg.Breaker, clock.New(), jobs, sites, engine.Run, zlog)
	orch := orchestrator.New(sites, jobs, sched, zlog)

	return &app{
		cfgMgr: cfgMgr, cfg: cfg, logger: zlog, db: db, sites: sites, jobs: jobs, browser: pool,
		orchestrator: orch, engine: engine, notify: notify,
	}, nil
}

// buildNotifier fans out to Discord when configured, always including
// the log notifier so alerts are never silently dropped.
func buildNotifier(cfg config.NotifierConfig, zlog zerolog.Logger) notifier.Notifier {
	log := notifier.NewLogNotifier(zlog)
	if cfg.DiscordWebhookURL == "" {
		return log
	}
	discord, err := notifier.NewDiscordNotifier(cfg, zlog)
	if err != nil {
		zlog.Warn().Err(err).Msg("invalid discord webhook, alerts will only be logged")
		return log
	}
	return notifier.NewMultiNotifier(zlog, log, discord)
}

// startBrowser launches the headless browser pool, a prerequisite for
// any command that fetches pages.
func (a *app) startBrowser() error {
	return a.browser.Start()
}

// Close releases every resource newApp opened, best-effort and in
// reverse acquisition order.
func (a *app) Close() {
	a.browser.Stop()
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close store")
	}
	if err := a.cfgMgr.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close config watcher")
	}
}

// healthzHandler reports whether the site registry and job bookkeeping
// are still in sync, surfacing an InvariantViolation as 503 rather than
// letting the process keep serving traffic over corrupted state.
func (a *app) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.orchestrator.CheckInvariants(r.Context()); err != nil {
		a.logger.Error().Err(err).Msg("invariant check failed")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type appKeyType struct{}

var appKey appKeyType

func contextWithApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey, a)
}

func appFromContext(ctx context.Context) (*app, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}
