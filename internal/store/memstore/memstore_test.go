package memstore

import (
	"context"
	"testing"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteStore_CreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	sites := Sites(s)

	site := &models.Site{ID: "acme", URL: "https://acme.test"}
	require.NoError(t, sites.Create(ctx, site))

	got, err := sites.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test", got.URL)

	got.DisplayName = "Acme"
	require.NoError(t, sites.Update(ctx, got))

	updated, err := sites.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.DisplayName)

	require.NoError(t, sites.Delete(ctx, "acme"))
	_, err = sites.Get(ctx, "acme")
	assert.Error(t, err)
}

func TestSnapshotStore_LatestAndBaseline(t *testing.T) {
	ctx := context.Background()
	s := New()
	snapshots := Snapshots(s)

	require.NoError(t, snapshots.Save(ctx, &models.Snapshot{ID: "s1", SiteID: "acme", Verdict: models.VerdictInitial}))
	require.NoError(t, snapshots.Save(ctx, &models.Snapshot{ID: "s2", SiteID: "acme", Verdict: models.VerdictSuspicious}))

	latest, err := snapshots.Latest(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "s2", latest.ID)

	baseline, err := snapshots.Baseline(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "s1", baseline.ID)
}

func TestAlertStore_OpenAlertsFiltersByStatusAndSite(t *testing.T) {
	ctx := context.Background()
	s := New()
	alerts := Alerts(s)

	require.NoError(t, alerts.Save(ctx, &models.Alert{ID: "a1", SiteID: "acme", Status: models.AlertOpen}))
	require.NoError(t, alerts.Save(ctx, &models.Alert{ID: "a2", SiteID: "acme", Status: models.AlertResolved}))
	require.NoError(t, alerts.Save(ctx, &models.Alert{ID: "a3", SiteID: "other", Status: models.AlertOpen}))

	open, err := alerts.Open(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a1", open[0].ID)
}

func TestVectorStore_NearestBySiteRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	s := New()
	vectors := Vectors(s)

	require.NoError(t, vectors.Save(ctx, &models.Vector{SiteID: "acme", Kind: models.VectorMain, Payload: []float32{1, 0}}))
	require.NoError(t, vectors.Save(ctx, &models.Vector{SiteID: "acme", Kind: models.VectorMain, Payload: []float32{0, 1}}))

	nearest, err := vectors.NearestBySite(ctx, "acme", models.VectorMain, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.InDelta(t, float32(1), nearest[0].Payload[0], 0.001)
}
