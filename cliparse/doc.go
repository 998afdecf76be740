// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Values are resolved in this order, first match wins:

  - CLI flags
  - environment variables
  - a .env file in the working directory (loaded with godotenv)
  - built-in defaults

# CLI Flags and Environment Variables

	-p                PORT              Server port (default: 3318)
	-d                DATABASE_URL      Connection string, or sqlite path (sqlite default: pixelpuzzle.db)
	-t                DATABASE_TYPE     postgres (default) or sqlite for local development
	-grid             GRID_SIZE         Grid side length N (default: 100)
	-limit            DAILY_LIMIT       Pixels per identity per day (default: 5)
	-session          SESSION_DURATION  Idle time before pixels lock (default: 10m)
	-sweep            SWEEP_INTERVAL    Lock sweeper period (default: 30s)
	-adjacency        ADJACENCY_POLICY  global (default) or own
	-exempt-loopback  EXEMPT_LOOPBACK   Loopback callers skip limits (default: true)
	-trust-proxy      TRUST_PROXY       Client IP from proxy headers (default: false)
	-admin-key        ADMIN_KEY         Enables /admin routes when set
	-ip-salt          IP_HASH_SALT      Salt for hashed IPs in the activity log

# Validation

ParseFlags returns an error when:

  - DATABASE_TYPE is postgres and no DATABASE_URL is given
  - a numeric or duration value does not parse
  - grid size, daily limit or durations are not positive
  - the adjacency policy is unknown
  - a true/false setting does not parse
*/
package cliparse
