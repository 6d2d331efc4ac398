package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/rs/zerolog"
)

// severityColor mirrors Discord's embed sidebar colors to the alert's
// severity, brightest for the most urgent.
var severityColor = map[models.AlertSeverity]int{
	models.SeverityLow:      0x95A5A6,
	models.SeverityMedium:   0xF1C40F,
	models.SeverityHigh:     0xE67E22,
	models.SeverityCritical: 0xE74C3C,
}

// DiscordNotifier posts alerts to a Discord webhook as a JSON payload:
// marshal, POST with a timeout, check the status code. There is no
// attachment/multipart path since alerts carry no report file.
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewDiscordNotifier(cfg config.NotifierConfig, logger zerolog.Logger) (*DiscordNotifier, error) {
	if cfg.DiscordWebhookURL == "" {
		return nil, fmt.Errorf("discord webhook url is empty")
	}
	if _, err := url.ParseRequestURI(cfg.DiscordWebhookURL); err != nil {
		return nil, fmt.Errorf("invalid discord webhook url: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &DiscordNotifier{
		webhookURL: cfg.DiscordWebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "discord_notifier").Logger(),
	}, nil
}

func (n *DiscordNotifier) Emit(ctx context.Context, alert models.Alert) error {
	payload := models.DiscordMessagePayload{
		Username: "sitesentry",
		Embeds:   []models.DiscordEmbed{n.embedFor(alert)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info().Str("alert_id", alert.ID).Int("status_code", resp.StatusCode).Msg("discord notification sent")
	return nil
}

func (n *DiscordNotifier) embedFor(alert models.Alert) models.DiscordEmbed {
	return models.DiscordEmbed{
		Title:       alert.Title,
		Description: alert.Description,
		Color:       severityColor[alert.Severity],
		Timestamp:   alert.CreatedAt.UTC().Format(time.RFC3339),
		Fields: []models.DiscordEmbedField{
			{Name: "Site", Value: alert.SiteID, Inline: true},
			{Name: "Kind", Value: string(alert.Kind), Inline: true},
			{Name: "Verdict", Value: string(alert.VerdictLabel), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%.2f", alert.Confidence), Inline: true},
			{Name: "Similarity", Value: fmt.Sprintf("%.2f", alert.Similarity), Inline: true},
		},
	}
}
