package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

type snapshotStore struct{ s *Store }

// Snapshots returns the store.SnapshotStore view of s.
func Snapshots(s *Store) store.SnapshotStore { return snapshotStore{s} }

func (a snapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, site_id, captured_at, http_status, response_time_ms, raw_html,
			extracted_text, content_hash, structure_hash, text_block_hash, semantic_hash,
			vector_ref, verdict, confidence, truncated, depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.SiteID, snap.CapturedAt, snap.HTTPStatus, snap.ResponseTime.Milliseconds(), snap.RawHTML,
		snap.ExtractedText, snap.Fingerprints.ContentHash, snap.Fingerprints.StructureHash,
		snap.Fingerprints.TextBlockHash, snap.Fingerprints.SemanticHash, snap.VectorRef,
		string(snap.Verdict), snap.Confidence, snap.Truncated, snap.Depth)
	if err != nil {
		return errors.NewStorageError("save_snapshot", err)
	}
	return nil
}

func (a snapshotStore) Latest(ctx context.Context, siteID string) (*models.Snapshot, error) {
	row := a.s.db.QueryRowContext(ctx, snapshotSelect+`
		WHERE site_id = ? ORDER BY captured_at DESC LIMIT 1`, siteID)
	return scanSnapshot(row)
}

// Baseline returns the most recent benign/initial snapshot for the
// site, matching memstore's semantics.
func (a snapshotStore) Baseline(ctx context.Context, siteID string) (*models.Snapshot, error) {
	row := a.s.db.QueryRowContext(ctx, snapshotSelect+`
		WHERE site_id = ? AND verdict IN (?, ?) ORDER BY captured_at DESC LIMIT 1`,
		siteID, string(models.VerdictBenign), string(models.VerdictInitial))
	return scanSnapshot(row)
}

func (a snapshotStore) LastN(ctx context.Context, siteID string, n int) ([]*models.Snapshot, error) {
	rows, err := a.s.db.QueryContext(ctx, snapshotSelect+`
		WHERE site_id = ? ORDER BY captured_at DESC LIMIT ?`, siteID, n)
	if err != nil {
		return nil, errors.NewStorageError("last_n_snapshots", err)
	}
	defer rows.Close()

	var snaps []*models.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (a snapshotStore) UpdateVerdict(ctx context.Context, snapshotID string, verdict models.Verdict, confidence float64) error {
	res, err := a.s.db.ExecContext(ctx, `UPDATE snapshots SET verdict=?, confidence=? WHERE id=?`,
		string(verdict), confidence, snapshotID)
	if err != nil {
		return errors.NewStorageError("update_verdict", err)
	}
	return rowsAffectedOrNotFound(res)
}

const snapshotSelect = `
	SELECT id, site_id, captured_at, http_status, response_time_ms, raw_html, extracted_text,
		content_hash, structure_hash, text_block_hash, semantic_hash, vector_ref,
		verdict, confidence, truncated, depth
	FROM snapshots`

func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var snap models.Snapshot
	var verdict string
	var responseMS int64
	err := row.Scan(&snap.ID, &snap.SiteID, &snap.CapturedAt, &snap.HTTPStatus, &responseMS, &snap.RawHTML,
		&snap.ExtractedText, &snap.Fingerprints.ContentHash, &snap.Fingerprints.StructureHash,
		&snap.Fingerprints.TextBlockHash, &snap.Fingerprints.SemanticHash, &snap.VectorRef,
		&verdict, &snap.Confidence, &snap.Truncated, &snap.Depth)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("scan_snapshot", err)
	}
	snap.Verdict = models.Verdict(verdict)
	snap.ResponseTime = msToDuration(responseMS)
	return &snap, nil
}
