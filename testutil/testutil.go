// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/db"
	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/store"
)

// Epoch is the fixed start time used by tests that drive a manual clock.
var Epoch = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// Each test gets its own file under t.TempDir(), so tests never share state.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore wraps SetupTestDB in a Store.
func SetupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupTestDB(t), db.TypeSQLite)
}

// PostgresURLEnv names the variable holding the PostgreSQL test database.
// Tests that need PostgreSQL are skipped when it is unset.
const PostgresURLEnv = "TEST_DATABASE_URL"

// SetupPostgresDB connects to TEST_DATABASE_URL and creates the schema in
// a throwaway PostgreSQL schema, dropped again on cleanup.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping PostgreSQL test", PostgresURLEnv)
	}

	admin, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL: %v", err)
	}
	t.Cleanup(func() { admin.Close() })

	schema := "pp_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP SCHEMA IF EXISTS " + schema + " CASCADE"); err != nil {
			t.Logf("Failed to drop test schema %s: %v", schema, err)
		}
	})

	conn, err := db.Open(db.TypePostgres, withSearchPath(url, schema))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupPostgresStore wraps SetupPostgresDB in a Store.
func SetupPostgresStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(SetupPostgresDB(t), db.TypePostgres)
}

// ForEachBackend runs fn once on SQLite and once on PostgreSQL. The
// PostgreSQL subtest is skipped without TEST_DATABASE_URL.
func ForEachBackend(t *testing.T, fn func(t *testing.T, st *store.Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, SetupTestStore(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, SetupPostgresStore(t))
	})
}

// withSearchPath points every pooled connection at schema. lib/pq passes
// unknown connection parameters through as session settings.
func withSearchPath(url, schema string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return url + sep + "search_path=" + schema
	}
	return url + " search_path=" + schema
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    db.TypeSQLite,
		DatabaseURL:     "test.db",
		GridSize:        100,
		DailyLimit:      5,
		SessionDuration: 10 * time.Minute,
		SweepInterval:   time.Minute,
		AdjacencyPolicy: cliparse.AdjacencyGlobal,
		ExemptLoopback:  true,
		TrustProxy:      false,
		AdminKey:        "test-admin-key",
		IPHashSalt:      "test-ip-salt",
	}
}

// Identity returns a non-exempt identity for the given session.
func Identity(session, ip string) models.Identity {
	return models.Identity{SessionID: session, IP: ip}
}

// SeedCell inserts a cell directly, bypassing placement rules.
func SeedCell(t *testing.T, s *store.Store, x, y int, owner models.Identity, locked bool) {
	t.Helper()

	ctx := context.Background()
	ok, err := s.ClaimCell(ctx, models.Cell{
		X: x, Y: y, Color: "#123456",
		SessionID: owner.SessionID, IP: owner.IP,
		CreatedAt: Epoch,
	})
	if err != nil || !ok {
		t.Fatalf("Failed to seed cell %d,%d: ok=%v err=%v", x, y, ok, err)
	}
	if locked {
		if _, err := s.DB().Exec(s.Rebind(`UPDATE cell SET locked = TRUE WHERE x = ? AND y = ?`), x, y); err != nil {
			t.Fatalf("Failed to lock seeded cell: %v", err)
		}
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
