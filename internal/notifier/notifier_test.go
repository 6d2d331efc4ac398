package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert() models.Alert {
	return models.Alert{
		ID:           "alert-1",
		SiteID:       "acme",
		Kind:         models.AlertDefacement,
		Severity:     models.SeverityHigh,
		Title:        "Possible defacement",
		Description:  "content diverged sharply from baseline",
		VerdictLabel: models.VerdictDefacement,
		Confidence:   0.92,
		Similarity:   0.1,
		CreatedAt:    time.Now(),
	}
}

func TestLogNotifier_NeverErrors(t *testing.T) {
	n := NewLogNotifier(zerolog.Nop())
	require.NoError(t, n.Emit(context.Background(), testAlert()))
}

func TestMultiNotifier_EmitsToAllAndReturnsFirstError(t *testing.T) {
	var calls int
	ok := notifierFunc(func(ctx context.Context, a models.Alert) error {
		calls++
		return nil
	})
	failing := notifierFunc(func(ctx context.Context, a models.Alert) error {
		calls++
		return assert.AnError
	})

	m := NewMultiNotifier(zerolog.Nop(), ok, failing, ok)
	err := m.Emit(context.Background(), testAlert())

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestNewDiscordNotifier_RejectsEmptyOrInvalidURL(t *testing.T) {
	_, err := NewDiscordNotifier(config.NotifierConfig{}, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewDiscordNotifier(config.NotifierConfig{DiscordWebhookURL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestDiscordNotifier_Emit_PostsJSONPayload(t *testing.T) {
	var received models.DiscordMessagePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(config.NotifierConfig{DiscordWebhookURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)

	alert := testAlert()
	require.NoError(t, n.Emit(context.Background(), alert))
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, alert.Title, received.Embeds[0].Title)
}

func TestDiscordNotifier_Emit_ReturnsErrorOnNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(config.NotifierConfig{DiscordWebhookURL: server.URL}, zerolog.Nop())
	require.NoError(t, err)

	err = n.Emit(context.Background(), testAlert())
	assert.Error(t, err)
}

type notifierFunc func(ctx context.Context, alert models.Alert) error

func (f notifierFunc) Emit(ctx context.Context, alert models.Alert) error { return f(ctx, alert) }
