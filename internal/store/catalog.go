package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/przemekoduje/overo/internal/model"
)

// ListCollections returns all collections, oldest first.
func (s *Store) ListCollections(ctx context.Context) ([]model.Collection, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, title, created_at FROM collections ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Collection
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCollection returns one collection.
func (s *Store) GetCollection(ctx context.Context, id string) (model.Collection, error) {
	c := model.Collection{ID: id}
	err := s.DB.QueryRowContext(ctx, "SELECT title, created_at FROM collections WHERE id = $1", id).
		Scan(&c.Title, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	return c, err
}

// UpsertCollection creates a collection or renames an existing one. The
// creation time of an existing collection is kept.
func (s *Store) UpsertCollection(ctx context.Context, c model.Collection) error {
	if c.ID == "" {
		return fmt.Errorf("collection id is required")
	}
	if c.Title == "" {
		c.Title = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE collections SET title = $1 WHERE id = $2", c.Title, c.ID)
	if err != nil {
		return fmt.Errorf("updating collection %q: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO collections (id, title, created_at) VALUES ($1, $2, $3)",
			c.ID, c.Title, c.CreatedAt); err != nil {
			return fmt.Errorf("inserting collection %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteCollection removes a collection with all its looks and hotspots.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM hotspots WHERE collection_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM looks WHERE collection_id = $1", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := notFound(res, fmt.Sprintf("collection %q", id)); err != nil {
		return err
	}
	return tx.Commit()
}

const lookColumns = "collection_id, id, title, src, width, height, variants, position, created_at"

func scanLook(sc interface{ Scan(...any) error }) (model.Look, error) {
	var l model.Look
	var variants sql.NullString
	if err := sc.Scan(&l.CollectionID, &l.ID, &l.Title, &l.Src, &l.Width, &l.Height, &variants, &l.Position, &l.CreatedAt); err != nil {
		return l, err
	}
	if variants.Valid && variants.String != "" {
		if err := json.Unmarshal([]byte(variants.String), &l.Variants); err != nil {
			return l, fmt.Errorf("decoding variants of %s: %w", l.Key(), err)
		}
	}
	return l, nil
}

// ListLooks returns the looks of a collection in display order.
func (s *Store) ListLooks(ctx context.Context, collection string) ([]model.Look, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+lookColumns+" FROM looks WHERE collection_id = $1 ORDER BY position, id", collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Look
	for rows.Next() {
		l, err := scanLook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetLook returns one look.
func (s *Store) GetLook(ctx context.Context, key model.LookKey) (model.Look, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+lookColumns+" FROM looks WHERE collection_id = $1 AND id = $2", key.Collection, key.Look)
	l, err := scanLook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return l, fmt.Errorf("look %s: %w", key, ErrNotFound)
	}
	return l, err
}

// AddLook stores a look in an existing collection. A look with the same id
// is replaced in place; a new one is appended after the last look unless it
// carries an explicit position.
func (s *Store) AddLook(ctx context.Context, l model.Look) (model.Look, error) {
	if !l.Key().Valid() {
		return l, fmt.Errorf("look key %q is incomplete", l.Key())
	}
	if l.Width <= 0 || l.Height <= 0 {
		return l, fmt.Errorf("look %s has no natural size", l.Key())
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	var variants []byte
	if len(l.Variants) > 0 {
		b, err := json.Marshal(l.Variants)
		if err != nil {
			return l, err
		}
		variants = b
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return l, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE id = $1", l.CollectionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return l, fmt.Errorf("collection %q: %w", l.CollectionID, ErrNotFound)
	} else if err != nil {
		return l, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE looks SET title = $1, src = $2, width = $3, height = $4, variants = $5 WHERE collection_id = $6 AND id = $7",
		l.Title, l.Src, l.Width, l.Height, string(variants), l.CollectionID, l.ID)
	if err != nil {
		return l, fmt.Errorf("updating look %s: %w", l.Key(), err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if l.Position <= 0 {
			if err := tx.QueryRowContext(ctx,
				"SELECT COALESCE(MAX(position), 0) + 1 FROM looks WHERE collection_id = $1", l.CollectionID).
				Scan(&l.Position); err != nil {
				return l, err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO looks ("+lookColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
			l.CollectionID, l.ID, l.Title, l.Src, l.Width, l.Height, string(variants), l.Position, l.CreatedAt); err != nil {
			return l, fmt.Errorf("inserting look %s: %w", l.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return l, err
	}
	return l, nil
}

// DeleteLook removes a look and its hotspots.
func (s *Store) DeleteLook(ctx context.Context, key model.LookKey) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM hotspots WHERE collection_id = $1 AND look_id = $2", key.Collection, key.Look); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM looks WHERE collection_id = $1 AND id = $2", key.Collection, key.Look)
	if err != nil {
		return err
	}
	if err := notFound(res, "look "+key.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// Counts summarizes the catalog size.
func (s *Store) Counts(ctx context.Context) (model.Counts, error) {
	var c model.Counts
	var err error
	if c.Collections, err = s.count(ctx, "collections"); err != nil {
		return c, err
	}
	if c.Looks, err = s.count(ctx, "looks"); err != nil {
		return c, err
	}
	if c.Hotspots, err = s.count(ctx, "hotspots"); err != nil {
		return c, err
	}
	return c, nil
}
