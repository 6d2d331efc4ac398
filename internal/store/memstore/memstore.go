// Package memstore is an in-memory implementation of the store ports,
// used by unit and workflow tests and as the default store for a
// single-process deployment with no durability requirement.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
)

// Store bundles every port behind one mutex-guarded struct, small
// enough to construct directly in tests without a fixture file.
type Store struct {
	mu sync.RWMutex

	sites     map[string]*models.Site
	snapshots map[string][]*models.Snapshot // by site id, append-only, newest last
	alerts    map[string]*models.Alert
	jobs      map[string]*models.Job // by site id
	vectors   map[string][]*models.Vector
}

func New() *Store {
	return &Store{
		sites:     make(map[string]*models.Site),
		snapshots: make(map[string][]*models.Snapshot),
		alerts:    make(map[string]*models.Alert),
		jobs:      make(map[string]*models.Job),
		vectors:   make(map[string][]*models.Vector),
	}
}

func (s *Store) Create(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sites[site.ID]; exists {
		return errors.NewStorageError("create_site", errors.ErrInvalidConfiguration)
	}
	clone := *site
	s.sites[site.ID] = &clone
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	clone := *site
	return &clone, nil
}

func (s *Store) Update(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[site.ID]; !ok {
		return errors.ErrNotFound
	}
	clone := *site
	s.sites[site.ID] = &clone
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sites[id]; !ok {
		return errors.ErrNotFound
	}
	delete(s.sites, id)
	return nil
}

func (s *Store) List(_ context.Context) ([]*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sites := make([]*models.Site, 0, len(s.sites))
	for _, site := range s.sites {
		clone := *site
		sites = append(sites, &clone)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites, nil
}

func (s *Store) Save(_ context.Context, snapshot *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *snapshot
	s.snapshots[snapshot.SiteID] = append(s.snapshots[snapshot.SiteID], &clone)
	return nil
}

func (s *Store) Latest(_ context.Context, siteID string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.snapshots[siteID]
	if len(list) == 0 {
		return nil, errors.ErrNotFound
	}
	clone := *list[len(list)-1]
	return &clone, nil
}

// Baseline returns the most recent snapshot whose verdict is
// baseline-eligible (benign or initial).
func (s *Store) Baseline(_ context.Context, siteID string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.snapshots[siteID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Verdict.IsBaselineEligible() {
			clone := *list[i]
			return &clone, nil
		}
	}
	return nil, errors.ErrNotFound
}

func (s *Store) LastN(_ context.Context, siteID string, n int) ([]*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.snapshots[siteID]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	result := make([]*models.Snapshot, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		clone := *list[i]
		result = append(result, &clone)
	}
	return result, nil
}

func (s *Store) UpdateVerdict(_ context.Context, snapshotID string, verdict models.Verdict, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.snapshots {
		for _, snap := range list {
			if snap.ID == snapshotID {
				snap.Verdict = verdict
				snap.Confidence = confidence
				return nil
			}
		}
	}
	return errors.ErrNotFound
}

func (s *Store) SaveAlert(_ context.Context, alert *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *alert
	s.alerts[alert.ID] = &clone
	return nil
}

func (s *Store) GetAlert(_ context.Context, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.alerts[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	clone := *alert
	return &clone, nil
}

func (s *Store) OpenAlerts(_ context.Context, siteID string) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []*models.Alert
	for _, alert := range s.alerts {
		if alert.SiteID == siteID && alert.Status == models.AlertOpen {
			clone := *alert
			open = append(open, &clone)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].CreatedAt.Before(open[j].CreatedAt) })
	return open, nil
}

func (s *Store) UpdateAlertStatus(_ context.Context, id string, status models.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, ok := s.alerts[id]
	if !ok {
		return errors.ErrNotFound
	}
	alert.Status = status
	return nil
}

func (s *Store) SaveJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.SiteID] = &clone
	return nil
}

func (s *Store) GetJob(_ context.Context, siteID string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[siteID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *Store) ListJobs(_ context.Context) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].SiteID < jobs[j].SiteID })
	return jobs, nil
}

func (s *Store) DeleteJob(_ context.Context, siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[siteID]; !ok {
		return errors.ErrNotFound
	}
	delete(s.jobs, siteID)
	return nil
}

func (s *Store) SaveVector(_ context.Context, vector *models.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *vector
	s.vectors[vector.SiteID] = append(s.vectors[vector.SiteID], &clone)
	return nil
}

func (s *Store) VectorsBySnapshot(_ context.Context, snapshotID string) ([]*models.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Vector
	for _, list := range s.vectors {
		for _, v := range list {
			if v.SnapshotID == snapshotID {
				clone := *v
				result = append(result, &clone)
			}
		}
	}
	return result, nil
}

// NearestBySite ranks stored vectors of the given kind by cosine
// similarity to query and returns the top limit.
func (s *Store) NearestBySite(_ context.Context, siteID string, kind models.VectorKind, query []float32, limit int) ([]*models.Vector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]*models.Vector, 0)
	for _, v := range s.vectors[siteID] {
		if v.Kind == kind {
			clone := *v
			candidates = append(candidates, &clone)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return models.CosineSimilarity(candidates[i].Payload, query) > models.CosineSimilarity(candidates[j].Payload, query)
	})
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
