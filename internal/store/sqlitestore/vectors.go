package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"sort"

	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"
	"github.com/sitesentry/sitesentry/internal/store"
)

type vectorStore struct{ s *Store }

// Vectors returns the store.VectorStore view of s.
func Vectors(s *Store) store.VectorStore { return vectorStore{s} }

func (a vectorStore) Save(ctx context.Context, vector *models.Vector) error {
	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO vectors (id, site_id, snapshot_id, kind, dimension, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		vector.ID, vector.SiteID, vector.SnapshotID, string(vector.Kind), vector.Dimension,
		encodePayload(vector.Payload))
	if err != nil {
		return errors.NewStorageError("save_vector", err)
	}
	return nil
}

func (a vectorStore) BySnapshot(ctx context.Context, snapshotID string) ([]*models.Vector, error) {
	rows, err := a.s.db.QueryContext(ctx, vectorSelect+` WHERE snapshot_id = ?`, snapshotID)
	if err != nil {
		return nil, errors.NewStorageError("vectors_by_snapshot", err)
	}
	defer rows.Close()

	var vectors []*models.Vector
	for rows.Next() {
		v, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

// NearestBySite loads every stored vector of the given kind for a site
// and ranks it by cosine similarity in-process; sqlite has no native
// vector index, so this mirrors memstore's brute-force approach at a
// scale (per-site vector counts) where that's still cheap.
func (a vectorStore) NearestBySite(ctx context.Context, siteID string, kind models.VectorKind, query []float32, limit int) ([]*models.Vector, error) {
	rows, err := a.s.db.QueryContext(ctx, vectorSelect+` WHERE site_id = ? AND kind = ?`, siteID, string(kind))
	if err != nil {
		return nil, errors.NewStorageError("nearest_by_site", err)
	}
	defer rows.Close()

	var candidates []*models.Vector
	for rows.Next() {
		v, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("nearest_by_site", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return models.CosineSimilarity(candidates[i].Payload, query) > models.CosineSimilarity(candidates[j].Payload, query)
	})
	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

const vectorSelect = `SELECT id, site_id, snapshot_id, kind, dimension, payload FROM vectors`

func scanVector(row rowScanner) (*models.Vector, error) {
	var v models.Vector
	var kind string
	var payload []byte
	err := row.Scan(&v.ID, &v.SiteID, &v.SnapshotID, &kind, &v.Dimension, &payload)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("scan_vector", err)
	}
	v.Kind = models.VectorKind(kind)
	v.Payload = decodePayload(payload)
	return &v, nil
}

func encodePayload(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodePayload(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
