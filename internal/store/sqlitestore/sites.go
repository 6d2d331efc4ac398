package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

type siteStore struct{ s *Store }

// Sites returns the store.SiteStore view of s.
func Sites(s *Store) store.SiteStore { return siteStore{s} }

func (a siteStore) Create(ctx context.Context, site *models.Site) error {
	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO sites (id, url, display_name, schedule_kind, schedule_expression,
			active, max_depth, priority, similarity_threshold, structural_threshold,
			critical_change_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.ID, site.URL, site.DisplayName, string(site.Schedule.Kind), site.Schedule.Expression,
		site.Active, site.MaxDepth, site.Priority, site.SimilarityThreshold, site.StructuralThreshold,
		site.CriticalChangeThreshold, site.CreatedAt, site.UpdatedAt)
	if err != nil {
		return errors.NewStorageError("create_site", err)
	}
	return nil
}

func (a siteStore) Get(ctx context.Context, id string) (*models.Site, error) {
	row := a.s.db.QueryRowContext(ctx, `
		SELECT id, url, display_name, schedule_kind, schedule_expression, active,
			max_depth, priority, similarity_threshold, structural_threshold,
			critical_change_threshold, created_at, updated_at
		FROM sites WHERE id = ?`, id)
	return scanSite(row)
}

func (a siteStore) Update(ctx context.Context, site *models.Site) error {
	res, err := a.s.db.ExecContext(ctx, `
		UPDATE sites SET url=?, display_name=?, schedule_kind=?, schedule_expression=?,
			active=?, max_depth=?, priority=?, similarity_threshold=?, structural_threshold=?,
			critical_change_threshold=?, updated_at=?
		WHERE id=?`,
		site.URL, site.DisplayName, string(site.Schedule.Kind), site.Schedule.Expression,
		site.Active, site.MaxDepth, site.Priority, site.SimilarityThreshold, site.StructuralThreshold,
		site.CriticalChangeThreshold, site.UpdatedAt, site.ID)
	if err != nil {
		return errors.NewStorageError("update_site", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (a siteStore) Delete(ctx context.Context, id string) error {
	res, err := a.s.db.ExecContext(ctx, `DELETE FROM sites WHERE id=?`, id)
	if err != nil {
		return errors.NewStorageError("delete_site", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (a siteStore) List(ctx context.Context) ([]*models.Site, error) {
	rows, err := a.s.db.QueryContext(ctx, `
		SELECT id, url, display_name, schedule_kind, schedule_expression, active,
			max_depth, priority, similarity_threshold, structural_threshold,
			critical_change_threshold, created_at, updated_at
		FROM sites ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorageError("list_sites", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*models.Site, error) {
	var site models.Site
	var scheduleKind string
	err := row.Scan(&site.ID, &site.URL, &site.DisplayName, &scheduleKind, &site.Schedule.Expression,
		&site.Active, &site.MaxDepth, &site.Priority, &site.SimilarityThreshold, &site.StructuralThreshold,
		&site.CriticalChangeThreshold, &site.CreatedAt, &site.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("scan_site", err)
	}
	site.Schedule.Kind = models.ScheduleKind(scheduleKind)
	return &site, nil
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStorageError("rows_affected", err)
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}
