package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

type alertStore struct{ s *Store }

// Alerts returns the store.AlertStore view of s.
func Alerts(s *Store) store.AlertStore { return alertStore{s} }

func (a alertStore) Save(ctx context.Context, alert *models.Alert) error {
	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, site_id, snapshot_id, kind, severity, title, description,
			verdict_label, confidence, similarity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.SiteID, alert.SnapshotID, string(alert.Kind), string(alert.Severity),
		alert.Title, alert.Description, string(alert.VerdictLabel), alert.Confidence,
		alert.Similarity, string(alert.Status), alert.CreatedAt, alert.UpdatedAt)
	if err != nil {
		return errors.NewStorageError("save_alert", err)
	}
	return nil
}

func (a alertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	row := a.s.db.QueryRowContext(ctx, alertSelect+` WHERE id = ?`, id)
	return scanAlert(row)
}

func (a alertStore) Open(ctx context.Context, siteID string) ([]*models.Alert, error) {
	rows, err := a.s.db.QueryContext(ctx, alertSelect+`
		WHERE site_id = ? AND status = ? ORDER BY created_at`, siteID, string(models.AlertOpen))
	if err != nil {
		return nil, errors.NewStorageError("open_alerts", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (a alertStore) UpdateStatus(ctx context.Context, id string, status models.AlertStatus) error {
	res, err := a.s.db.ExecContext(ctx, `UPDATE alerts SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return errors.NewStorageError("update_alert_status", err)
	}
	return rowsAffectedOrNotFound(res)
}

const alertSelect = `
	SELECT id, site_id, snapshot_id, kind, severity, title, description, verdict_label,
		confidence, similarity, status, created_at, updated_at
	FROM alerts`

func scanAlert(row rowScanner) (*models.Alert, error) {
	var alert models.Alert
	var kind, severity, verdict, status string
	err := row.Scan(&alert.ID, &alert.SiteID, &alert.SnapshotID, &kind, &severity, &alert.Title,
		&alert.Description, &verdict, &alert.Confidence, &alert.Similarity, &status,
		&alert.CreatedAt, &alert.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("scan_alert", err)
	}
	alert.Kind = models.AlertKind(kind)
	alert.Severity = models.AlertSeverity(severity)
	alert.VerdictLabel = models.Verdict(verdict)
	alert.Status = models.AlertStatus(status)
	return &alert, nil
}
