package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/przemekoduje/overo/internal/geometry"
	"github.com/przemekoduje/overo/internal/model"
)

// LoadHotspots returns the hotspots of a look in the order they were created.
// A look without hotspots yields an empty slice.
func (s *Store) LoadHotspots(ctx context.Context, key model.LookKey) ([]model.Hotspot, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, points, title, brand, price, url FROM hotspots WHERE collection_id = $1 AND look_id = $2 ORDER BY position, id",
		key.Collection, key.Look)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hotspot{}
	for rows.Next() {
		var h model.Hotspot
		if err := rows.Scan(&h.ID, &h.Points, &h.Title, &h.Brand, &h.Price, &h.URL); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// prepareHotspot validates the geometry and fills in an id. Points are
// rewritten in canonical form.
func prepareHotspot(h model.Hotspot) (model.Hotspot, error) {
	poly, err := geometry.ValidatePoints(h.Points)
	if err != nil {
		return h, fmt.Errorf("hotspot %q: %w", h.ID, err)
	}
	h.Points = poly.String()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return h, nil
}

func lookExists(ctx context.Context, tx *sql.Tx, key model.LookKey) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM looks WHERE collection_id = $1 AND id = $2", key.Collection, key.Look).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("look %s: %w", key, ErrNotFound)
	}
	return err
}

// SaveHotspot inserts or replaces a hotspot by id. Geometry and metadata are
// written together in one transaction. The stored hotspot is returned, with
// its id filled in when the caller left it empty.
func (s *Store) SaveHotspot(ctx context.Context, key model.LookKey, h model.Hotspot) (model.Hotspot, error) {
	h, err := prepareHotspot(h)
	if err != nil {
		return h, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return h, err
	}
	defer tx.Rollback()

	if err := lookExists(ctx, tx, key); err != nil {
		return h, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE hotspots SET points = $1, title = $2, brand = $3, price = $4, url = $5 WHERE collection_id = $6 AND look_id = $7 AND id = $8",
		h.Points, h.Title, h.Brand, h.Price, h.URL, key.Collection, key.Look, h.ID)
	if err != nil {
		return h, fmt.Errorf("updating hotspot %q: %w", h.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var pos int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), 0) + 1 FROM hotspots WHERE collection_id = $1 AND look_id = $2",
			key.Collection, key.Look).Scan(&pos); err != nil {
			return h, err
		}
		if err := insertHotspot(ctx, tx, key, h, pos); err != nil {
			return h, err
		}
	}
	if err := tx.Commit(); err != nil {
		return h, err
	}
	return h, nil
}

func insertHotspot(ctx context.Context, tx *sql.Tx, key model.LookKey, h model.Hotspot, pos int) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO hotspots (collection_id, look_id, id, points, title, brand, price, url, position) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		key.Collection, key.Look, h.ID, h.Points, h.Title, h.Brand, h.Price, h.URL, pos)
	if err != nil {
		return fmt.Errorf("inserting hotspot %q: %w", h.ID, err)
	}
	return nil
}

// DeleteHotspot removes one hotspot.
func (s *Store) DeleteHotspot(ctx context.Context, key model.LookKey, id string) error {
	res, err := s.DB.ExecContext(ctx,
		"DELETE FROM hotspots WHERE collection_id = $1 AND look_id = $2 AND id = $3", key.Collection, key.Look, id)
	if err != nil {
		return err
	}
	return notFound(res, fmt.Sprintf("hotspot %q on %s", id, key))
}

// ReplaceHotspots swaps the whole hotspot list of a look atomically. Every
// polygon is validated before anything is written.
func (s *Store) ReplaceHotspots(ctx context.Context, key model.LookKey, hotspots []model.Hotspot) ([]model.Hotspot, error) {
	prepared := make([]model.Hotspot, len(hotspots))
	seen := make(map[string]bool, len(hotspots))
	for i, h := range hotspots {
		p, err := prepareHotspot(h)
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = true
		prepared[i] = p
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lookExists(ctx, tx, key); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM hotspots WHERE collection_id = $1 AND look_id = $2", key.Collection, key.Look); err != nil {
		return nil, err
	}
	for i, h := range prepared {
		if err := insertHotspot(ctx, tx, key, h, i+1); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return prepared, nil
}
