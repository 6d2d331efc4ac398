package memstore

import (
	"context"

	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

// Sites, Alerts, Jobs, and Vectors adapt Store's disambiguated method
// names (SaveAlert, GetJob, ...) to the store.XStore interfaces, which
// all use the same short names (Save, Get, ...) since each lives on
// its own interface. A single struct can't implement all of them
// directly without name collisions, hence the thin wrappers.

type siteAdapter struct{ s *Store }
type alertAdapter struct{ s *Store }
type jobAdapter struct{ s *Store }
type vectorAdapter struct{ s *Store }

// Sites returns the store.SiteStore view of s.
func Sites(s *Store) store.SiteStore { return siteAdapter{s} }

func (a siteAdapter) Create(ctx context.Context, site *models.Site) error { return a.s.Create(ctx, site) }
func (a siteAdapter) Get(ctx context.Context, id string) (*models.Site, error) {
	return a.s.Get(ctx, id)
}
func (a siteAdapter) Update(ctx context.Context, site *models.Site) error { return a.s.Update(ctx, site) }
func (a siteAdapter) Delete(ctx context.Context, id string) error        { return a.s.Delete(ctx, id) }
func (a siteAdapter) List(ctx context.Context) ([]*models.Site, error)   { return a.s.List(ctx) }

// Snapshots returns the store.SnapshotStore view of s. Store's
// Snapshot methods already match the interface's names directly.
func Snapshots(s *Store) store.SnapshotStore { return s }

// Alerts returns the store.AlertStore view of s.
func Alerts(s *Store) store.AlertStore { return alertAdapter{s} }

func (a alertAdapter) Save(ctx context.Context, alert *models.Alert) error {
	return a.s.SaveAlert(ctx, alert)
}
func (a alertAdapter) Get(ctx context.Context, id string) (*models.Alert, error) {
	return a.s.GetAlert(ctx, id)
}
func (a alertAdapter) Open(ctx context.Context, siteID string) ([]*models.Alert, error) {
	return a.s.OpenAlerts(ctx, siteID)
}
func (a alertAdapter) UpdateStatus(ctx context.Context, id string, status models.AlertStatus) error {
	return a.s.UpdateAlertStatus(ctx, id, status)
}

// Jobs returns the store.JobStore view of s.
func Jobs(s *Store) store.JobStore { return jobAdapter{s} }

func (a jobAdapter) Save(ctx context.Context, job *models.Job) error { return a.s.SaveJob(ctx, job) }
func (a jobAdapter) Get(ctx context.Context, siteID string) (*models.Job, error) {
	return a.s.GetJob(ctx, siteID)
}
func (a jobAdapter) List(ctx context.Context) ([]*models.Job, error) { return a.s.ListJobs(ctx) }
func (a jobAdapter) Delete(ctx context.Context, siteID string) error { return a.s.DeleteJob(ctx, siteID) }

// Vectors returns the store.VectorStore view of s.
func Vectors(s *Store) store.VectorStore { return vectorAdapter{s} }

func (a vectorAdapter) Save(ctx context.Context, vector *models.Vector) error {
	return a.s.SaveVector(ctx, vector)
}
func (a vectorAdapter) BySnapshot(ctx context.Context, snapshotID string) ([]*models.Vector, error) {
	return a.s.VectorsBySnapshot(ctx, snapshotID)
}
func (a vectorAdapter) NearestBySite(ctx context.Context, siteID string, kind models.VectorKind, query []float32, limit int) ([]*models.Vector, error) {
	return a.s.NearestBySite(ctx, siteID, kind, query, limit)
}
