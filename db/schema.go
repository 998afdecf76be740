// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by PostgreSQL and SQLite; timestamps are unix milliseconds.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Cells: one row per claimed coordinate
CREATE TABLE IF NOT EXISTS cell (
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    color TEXT NOT NULL,
    session_id TEXT NOT NULL,
    ip TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    locked BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (x, y)
);

CREATE INDEX IF NOT EXISTS idx_cell_session_id ON cell(session_id);

-- Daily quota per ip
CREATE TABLE IF NOT EXISTS quota_ledger (
    ip TEXT NOT NULL,
    day TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
    PRIMARY KEY (ip, day)
);

-- Session activity for idle expiry
CREATE TABLE IF NOT EXISTS session_activity (
    session_id TEXT PRIMARY KEY,
    ip TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    last_activity BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_activity_last ON session_activity(last_activity);
`
