// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pixelpuzzle API server.

pixelpuzzle is a shared N×N pixel grid. Anonymous visitors claim cells,
recolor or release them while unlocked, and lose the ability to change
them once their session locks: on reaching the daily limit, on request,
or after going idle.

# Starting the Server

The server runs on PostgreSQL:

	DATABASE_URL=postgres://... go run .

For local development a single-connection SQLite file can be used instead:

	go run . -t sqlite

A .env file in the working directory is loaded if present.

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres or sqlite (default: postgres)
  - DATABASE_URL (-d): connection string, required for postgres (SQLite default: pixelpuzzle.db)
  - GRID_SIZE (-grid): grid side length (default: 100)
  - DAILY_LIMIT (-limit): claims per IP per UTC day (default: 5)
  - SESSION_DURATION (-session): idle time before a session locks (default: 10m)
  - SWEEP_INTERVAL (-sweep): idle sweep period (default: 30s)
  - ADJACENCY_POLICY (-adjacency): global or own (default: global)
  - EXEMPT_LOOPBACK (-exempt-loopback): no limits for local callers (default: true)
  - TRUST_PROXY (-trust-proxy): take the client IP from X-Forwarded-For / X-Real-IP (default: false)
  - ADMIN_KEY (-admin-key): enables /admin/stats when set
  - IP_HASH_SALT (-ip-salt): salt for hashed IPs in the activity log

# Architecture

  - placement: claim/recolor/release/lock rules
  - store: grid, quota ledger and session activity on database/sql
  - sweeper: background lock of idle sessions
  - handlers, router, middleware: HTTP surface and sessions
  - activitylog: bounded recent request log
  - auth: session ids, admin key check, IP hashing
  - db: connection and schema
  - cliparse: configuration parsing
  - clock: real and manual time sources

See package documentation for each component.
*/
package main
