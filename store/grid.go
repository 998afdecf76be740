// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ekai/pixelpuzzle/models"
)

const cellColumns = `x, y, color, session_id, ip, created_at, locked`

type scanner interface {
	Scan(dest ...any) error
}

func scanCell(row scanner) (models.Cell, error) {
	var c models.Cell
	var createdAt int64
	if err := row.Scan(&c.X, &c.Y, &c.Color, &c.SessionID, &c.IP, &createdAt, &c.Locked); err != nil {
		return models.Cell{}, err
	}
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return c, nil
}

// GetCell returns the cell at (x, y), or nil when the coordinate is empty.
func (o ops) GetCell(ctx context.Context, x, y int) (*models.Cell, error) {
	c, err := scanCell(o.queryRow(ctx, `
		SELECT `+cellColumns+` FROM cell WHERE x = ? AND y = ?
	`, x, y))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cell %d,%d: %w", x, y, err)
	}
	return &c, nil
}

// ListCells returns every claimed cell.
func (o ops) ListCells(ctx context.Context) ([]models.Cell, error) {
	return o.listCells(ctx, `SELECT `+cellColumns+` FROM cell ORDER BY y, x`)
}

// ListByIdentity returns the cells owned by id, oldest first.
func (o ops) ListByIdentity(ctx context.Context, id models.Identity) ([]models.Cell, error) {
	return o.listCells(ctx, `
		SELECT `+cellColumns+` FROM cell
		WHERE session_id = ? AND ip = ?
		ORDER BY created_at, y, x
	`, id.SessionID, id.IP)
}

func (o ops) listCells(ctx context.Context, query string, args ...any) ([]models.Cell, error) {
	rows, err := o.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	defer rows.Close()

	cells := []models.Cell{}
	for rows.Next() {
		c, err := scanCell(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cells: %w", err)
	}
	return cells, nil
}

// ClaimCell inserts c if its coordinate is empty. It reports false when
// another row already holds the coordinate; the insert and the existence
// check are one statement, so concurrent claims cannot both win.
func (o ops) ClaimCell(ctx context.Context, c models.Cell) (bool, error) {
	res, err := o.exec(ctx, `
		INSERT INTO cell (`+cellColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, FALSE)
		ON CONFLICT (x, y) DO NOTHING
	`, c.X, c.Y, c.Color, c.SessionID, c.IP, c.CreatedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("claim cell %d,%d: %w", c.X, c.Y, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim cell %d,%d: %w", c.X, c.Y, err)
	}
	return n == 1, nil
}

// RecolorCell changes the color of an unlocked cell owned by id.
// Returns ErrNotFound, ErrNotOwner or ErrLocked when the update cannot apply.
func (o ops) RecolorCell(ctx context.Context, x, y int, color string, id models.Identity) error {
	res, err := o.exec(ctx, `
		UPDATE cell SET color = ?
		WHERE x = ? AND y = ? AND session_id = ? AND ip = ? AND locked = FALSE
	`, color, x, y, id.SessionID, id.IP)
	if err != nil {
		return fmt.Errorf("recolor cell %d,%d: %w", x, y, err)
	}
	return o.classifyMiss(ctx, res, x, y, id)
}

// ReleaseCell deletes an unlocked cell owned by id.
// Returns ErrNotFound, ErrNotOwner or ErrLocked when the delete cannot apply.
func (o ops) ReleaseCell(ctx context.Context, x, y int, id models.Identity) error {
	res, err := o.exec(ctx, `
		DELETE FROM cell
		WHERE x = ? AND y = ? AND session_id = ? AND ip = ? AND locked = FALSE
	`, x, y, id.SessionID, id.IP)
	if err != nil {
		return fmt.Errorf("release cell %d,%d: %w", x, y, err)
	}
	return o.classifyMiss(ctx, res, x, y, id)
}

// classifyMiss explains why a conditional owner update touched no row.
func (o ops) classifyMiss(ctx context.Context, res sql.Result, x, y int, id models.Identity) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	c, err := o.GetCell(ctx, x, y)
	if err != nil {
		return err
	}
	switch {
	case c == nil:
		return ErrNotFound
	case !id.Owns(*c):
		return ErrNotOwner
	default:
		return ErrLocked
	}
}

// LockBySession locks every unlocked cell owned by sessionID and returns
// how many were locked. Locking is one-way; repeated calls return 0.
func (o ops) LockBySession(ctx context.Context, sessionID string) (int64, error) {
	res, err := o.exec(ctx, `
		UPDATE cell SET locked = TRUE
		WHERE session_id = ? AND locked = FALSE
	`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("lock session cells: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lock session cells: %w", err)
	}
	return n, nil
}

// CountBySession returns how many cells sessionID owns, locked or not.
func (o ops) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := o.queryRow(ctx, `SELECT COUNT(*) FROM cell WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count session cells: %w", err)
	}
	return n, nil
}

// HasAny reports whether any cell exists, restricted to owner when non-nil.
func (o ops) HasAny(ctx context.Context, owner *models.Identity) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM cell`
	var args []any
	if owner != nil {
		query += ` WHERE session_id = ? AND ip = ?`
		args = append(args, owner.SessionID, owner.IP)
	}
	query += `)`

	var exists bool
	if err := o.queryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check cells: %w", err)
	}
	return exists, nil
}

// HasNeighbor reports whether a cell other than (x, y) lies within
// Chebyshev distance 1 of it, restricted to owner when non-nil.
func (o ops) HasNeighbor(ctx context.Context, x, y int, owner *models.Identity) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM cell
			WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ?
			AND NOT (x = ? AND y = ?)`
	args := []any{x - 1, x + 1, y - 1, y + 1, x, y}
	if owner != nil {
		query += ` AND session_id = ? AND ip = ?`
		args = append(args, owner.SessionID, owner.IP)
	}
	query += `)`

	var exists bool
	if err := o.queryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check neighbors of %d,%d: %w", x, y, err)
	}
	return exists, nil
}

// Stats returns total and locked cell counts.
func (o ops) Stats(ctx context.Context) (models.GridStats, error) {
	var s models.GridStats
	err := o.queryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN locked THEN 1 ELSE 0 END), 0) FROM cell
	`).Scan(&s.Total, &s.Locked)
	if err != nil {
		return models.GridStats{}, fmt.Errorf("grid stats: %w", err)
	}
	return s, nil
}
