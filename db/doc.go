// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

PostgreSQL goes through lib/pq. SQLite goes through modernc.org/sqlite
(pure Go, no cgo) and is the default for local runs and tests.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - cell: one row per claimed coordinate, keyed by (x, y)
  - quota_ledger: claims per (ip, day)
  - session_activity: last-seen time per session

# Relationships

	session_activity 1──* cell        (weak, by session_id)
	quota_ledger     1──* cell        (weak, by ip and claim day)

No foreign keys: locked cells outlive their sessions, and activity rows
are never deleted.
*/
package db
