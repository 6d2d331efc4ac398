// Package notifier implements the alert delivery port: Emit is
// fire-and-forget and best-effort, so the core never blocks on it.
// LogNotifier is always available; DiscordNotifier delivers alerts as
// webhook POSTs when a webhook is configured.
package notifier

import (
	"context"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/rs/zerolog"
)

// Notifier delivers an alert to some external channel. Implementations
// must not block the caller for longer than they can help; Emit errors
// are logged by callers, not retried past what the implementation
// itself already attempts.
type Notifier interface {
	Emit(ctx context.Context, alert models.Alert) error
}

// LogNotifier is the ambient default: it writes every alert to the
// structured logger and never fails, giving the core a Notifier even
// when no external transport is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) Emit(ctx context.Context, alert models.Alert) error {
	n.logger.Warn().
		Str("alert_id", alert.ID).
		Str("site_id", alert.SiteID).
		Str("kind", string(alert.Kind)).
		Str("severity", string(alert.Severity)).
		Str("verdict", string(alert.VerdictLabel)).
		Float64("confidence", alert.Confidence).
		Str("title", alert.Title).
		Msg("alert")
	return nil
}

// MultiNotifier fans an alert out to every wrapped Notifier, collecting
// but not stopping on individual failures.
type MultiNotifier struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

func NewMultiNotifier(logger zerolog.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, logger: logger.With().Str("component", "multi_notifier").Logger()}
}

func (m *MultiNotifier) Emit(ctx context.Context, alert models.Alert) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Emit(ctx, alert); err != nil {
			m.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("notifier delivery failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
