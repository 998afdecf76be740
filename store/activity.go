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

// Touch records activity for sessionID. created_at is only set on the
// first insert; last_activity and ip are refreshed every time.
func (o ops) Touch(ctx context.Context, sessionID, ip string, now time.Time) error {
	ms := now.UnixMilli()
	_, err := o.exec(ctx, `
		INSERT INTO session_activity (session_id, ip, created_at, last_activity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE
		SET ip = excluded.ip, last_activity = excluded.last_activity
	`, sessionID, ip, ms, ms)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// GetSession returns the activity row for sessionID, or nil if unknown.
func (o ops) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	var createdAt, lastActivity int64
	err := o.queryRow(ctx, `
		SELECT session_id, ip, created_at, last_activity
		FROM session_activity WHERE session_id = ?
	`, sessionID).Scan(&s.SessionID, &s.IP, &createdAt, &lastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt = time.UnixMilli(createdAt).UTC()
	s.LastActivity = time.UnixMilli(lastActivity).UTC()
	return &s, nil
}

// ListIdleSince returns sessions last seen before cutoff that still own
// unlocked cells. Exempt (loopback) identities are never listed.
func (o ops) ListIdleSince(ctx context.Context, cutoff time.Time) ([]models.Identity, error) {
	rows, err := o.query(ctx, `
		SELECT DISTINCT s.session_id, s.ip
		FROM session_activity s
		JOIN cell c ON c.session_id = s.session_id AND c.locked = FALSE
		WHERE s.last_activity < ?
		ORDER BY s.session_id
	`, cutoff.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}
	defer rows.Close()

	var idle []models.Identity
	for rows.Next() {
		var id models.Identity
		if err := rows.Scan(&id.SessionID, &id.IP); err != nil {
			return nil, fmt.Errorf("scan idle session: %w", err)
		}
		if IsExempt(id.IP) {
			continue
		}
		idle = append(idle, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}
	return idle, nil
}
