package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sitesentry/sitesentry/internal/metrics"

	"github.com/spf13/cobra"
)

var metricsAddr string

// newServeCommand runs the monitoring engine as a long-lived daemon:
// browser pool and scheduler started, an HTTP server exposing
// /metrics, running until SIGINT/SIGTERM.
func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring engine until interrupted",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := a.startBrowser(); err != nil {
		return fmt.Errorf("start browser pool: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", a.healthzHandler)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}
	a.logger.Info().Str("metrics_addr", metricsAddr).Msg("sitesentry serving")

	<-ctx.Done()
	a.logger.Info().Msg("shutdown signal received, draining")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer shutdownCancel()
	if err := a.orchestrator.Stop(shutdownCtx); err != nil {
		a.logger.Warn().Err(err).Msg("orchestrator stop did not complete cleanly")
	}

	metricsShutdownCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	_ = metricsSrv.Shutdown(metricsShutdownCtx)

	return nil
}
