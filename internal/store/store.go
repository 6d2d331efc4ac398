// Package store defines the persistence ports the core reads and
// writes through: Site, Snapshot, Alert, Job, and Vector CRUD, plus
// the site-scoped queries the workflow engine and scheduler need
// (latest snapshot, baseline, open alerts, and so on). Concrete
// adapters live in memstore (tests, single-process deployments) and
// sqlitestore (persistent single-node deployments).
package store

import (
	"context"

	"github.com/sitesentry/sitesentry/internal/models"
)

// SiteStore manages Site records.
type SiteStore interface {
	Create(ctx context.Context, site *models.Site) error
	Get(ctx context.Context, id string) (*models.Site, error)
	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Site, error)
}

// SnapshotStore manages Snapshot records, including the site-scoped
// latest/baseline/history queries the workflow engine needs.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Latest(ctx context.Context, siteID string) (*models.Snapshot, error)
	Baseline(ctx context.Context, siteID string) (*models.Snapshot, error)
	LastN(ctx context.Context, siteID string, n int) ([]*models.Snapshot, error)
	UpdateVerdict(ctx context.Context, snapshotID string, verdict models.Verdict, confidence float64) error
}

// AlertStore manages Alert records.
type AlertStore interface {
	Save(ctx context.Context, alert *models.Alert) error
	Get(ctx context.Context, id string) (*models.Alert, error)
	Open(ctx context.Context, siteID string) ([]*models.Alert, error)
	UpdateStatus(ctx context.Context, id string, status models.AlertStatus) error
}

// JobStore manages Job records for the scheduler.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, siteID string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	Delete(ctx context.Context, siteID string) error
}

// VectorStore manages embeddings, indexed by site and snapshot.
type VectorStore interface {
	Save(ctx context.Context, vector *models.Vector) error
	BySnapshot(ctx context.Context, snapshotID string) ([]*models.Vector, error)
	NearestBySite(ctx context.Context, siteID string, kind models.VectorKind, query []float32, limit int) ([]*models.Vector, error)
}
