// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/store"
	"github.com/ekai/pixelpuzzle/testutil"
)

var (
	alice = testutil.Identity("sess-alice", "203.0.113.1")
	bob   = testutil.Identity("sess-bob", "203.0.113.2")
)

func cellFor(id models.Identity, x, y int, color string) models.Cell {
	return models.Cell{X: x, Y: y, Color: color, SessionID: id.SessionID, IP: id.IP, CreatedAt: testutil.Epoch}
}

func TestClaimCell(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	ok, err := s.ClaimCell(ctx, cellFor(alice, 5, 5, "#ff0000"))
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}

	ok, err = s.ClaimCell(ctx, cellFor(bob, 5, 5, "#00ff00"))
	if err != nil {
		t.Fatalf("second claim error = %v", err)
	}
	if ok {
		t.Fatal("second claim on the same coordinate should conflict")
	}

	c, err := s.GetCell(ctx, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || !alice.Owns(*c) || c.Color != "#ff0000" || c.Locked {
		t.Errorf("unexpected cell after conflict: %+v", c)
	}
	if !c.CreatedAt.Equal(testutil.Epoch) {
		t.Errorf("created_at = %v, want %v", c.CreatedAt, testutil.Epoch)
	}
}

func TestGetCellAbsent(t *testing.T) {
	s := testutil.SetupTestStore(t)

	c, err := s.GetCell(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil cell, got %+v", c)
	}
}

func TestConcurrentClaimsSameCell(t *testing.T) {
	s := testutil.SetupTestStore(t)

	const attempts = 10
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := testutil.Identity("sess-"+string(rune('a'+i)), "203.0.113.50")
			ok, err := s.ClaimCell(context.Background(), cellFor(id, 7, 7, "#000000"))
			if err != nil {
				t.Errorf("claim error: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("expected exactly 1 winning claim, got %d", wins.Load())
	}
}

func TestRecolorCell(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedCell(t, s, 1, 1, alice, false)
	testutil.SeedCell(t, s, 2, 2, alice, true)

	tests := []struct {
		name    string
		x, y    int
		id      models.Identity
		wantErr error
	}{
		{"owner unlocked", 1, 1, alice, nil},
		{"other identity", 1, 1, bob, store.ErrNotOwner},
		{"same session other ip", 1, 1, testutil.Identity(alice.SessionID, "198.51.100.1"), store.ErrNotOwner},
		{"locked", 2, 2, alice, store.ErrLocked},
		{"missing", 9, 9, alice, store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.RecolorCell(ctx, tt.x, tt.y, "#abcdef", tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecolorCell() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	c, _ := s.GetCell(ctx, 1, 1)
	if c.Color != "#abcdef" || !alice.Owns(*c) || c.Locked || c.X != 1 || c.Y != 1 {
		t.Errorf("recolor changed more than the color: %+v", c)
	}
	locked, _ := s.GetCell(ctx, 2, 2)
	if locked.Color != "#123456" {
		t.Errorf("locked cell color changed to %s", locked.Color)
	}
}

func TestReleaseCell(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedCell(t, s, 1, 1, alice, false)
	testutil.SeedCell(t, s, 2, 2, alice, true)

	if err := s.ReleaseCell(ctx, 1, 1, bob); !errors.Is(err, store.ErrNotOwner) {
		t.Errorf("release by other: got %v, want ErrNotOwner", err)
	}
	if err := s.ReleaseCell(ctx, 2, 2, alice); !errors.Is(err, store.ErrLocked) {
		t.Errorf("release locked: got %v, want ErrLocked", err)
	}
	if err := s.ReleaseCell(ctx, 1, 1, alice); err != nil {
		t.Fatalf("release by owner: %v", err)
	}
	if err := s.ReleaseCell(ctx, 1, 1, alice); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second release: got %v, want ErrNotFound", err)
	}

	c, _ := s.GetCell(ctx, 2, 2)
	if c == nil {
		t.Error("locked cell was deleted")
	}
}

func TestLockBySession(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedCell(t, s, 1, 1, alice, false)
	testutil.SeedCell(t, s, 1, 2, alice, false)
	testutil.SeedCell(t, s, 1, 3, alice, true)
	testutil.SeedCell(t, s, 2, 1, bob, false)

	n, err := s.LockBySession(ctx, alice.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 cells locked, got %d", n)
	}

	n, err = s.LockBySession(ctx, alice.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second lock should be a no-op, locked %d", n)
	}

	c, _ := s.GetCell(ctx, 2, 1)
	if c.Locked {
		t.Error("other session's cell was locked")
	}
}

func TestNeighborQueries(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()

	exists, err := s.HasAny(ctx, nil)
	if err != nil || exists {
		t.Fatalf("empty grid HasAny = %v, %v", exists, err)
	}

	testutil.SeedCell(t, s, 5, 5, alice, false)

	tests := []struct {
		name  string
		x, y  int
		owner *models.Identity
		want  bool
	}{
		{"diagonal", 6, 6, nil, true},
		{"horizontal", 4, 5, nil, true},
		{"vertical", 5, 6, nil, true},
		{"distance two", 7, 5, nil, false},
		{"far away", 50, 50, nil, false},
		{"self is not a neighbor", 5, 5, nil, false},
		{"owner filter match", 6, 5, &alice, true},
		{"owner filter other", 6, 5, &bob, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.HasNeighbor(ctx, tt.x, tt.y, tt.owner)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("HasNeighbor(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if ok, _ := s.HasAny(ctx, &bob); ok {
		t.Error("bob owns no cells")
	}
	if ok, _ := s.HasAny(ctx, &alice); !ok {
		t.Error("alice owns a cell")
	}
}

func TestListAndStats(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	testutil.SeedCell(t, s, 1, 1, alice, true)
	testutil.SeedCell(t, s, 2, 1, alice, false)
	testutil.SeedCell(t, s, 3, 1, bob, false)

	all, err := s.ListCells(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 cells, got %d", len(all))
	}

	mine, err := s.ListByIdentity(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 cells for alice, got %d", len(mine))
	}

	n, err := s.CountBySession(ctx, alice.SessionID)
	if err != nil || n != 2 {
		t.Errorf("CountBySession = %d, %v; want 2", n, err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 || stats.Locked != 1 {
		t.Errorf("Stats = %+v, want total 3 locked 1", stats)
	}
}

func TestQuotaLedger(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	const ip, day, nextDay = "203.0.113.1", "2026-10-18", "2026-10-19"

	rem, err := s.Remaining(ctx, ip, day, 3)
	if err != nil || rem != 3 {
		t.Fatalf("fresh Remaining = %d, %v; want 3", rem, err)
	}

	if err := s.HoldQuota(ctx, ip, day); err != nil {
		t.Fatal(err)
	}
	if rem, _ := s.Remaining(ctx, ip, day, 3); rem != 3 {
		t.Errorf("HoldQuota must not consume quota, remaining %d", rem)
	}

	for i := 1; i <= 4; i++ {
		n, err := s.IncrementQuota(ctx, ip, day)
		if err != nil {
			t.Fatal(err)
		}
		if n != i {
			t.Errorf("IncrementQuota #%d returned %d", i, n)
		}
		rem, _ := s.Remaining(ctx, ip, day, 3)
		if want := max(0, 3-i); rem != want {
			t.Errorf("after %d claims remaining = %d, want %d", i, rem, want)
		}
	}

	if rem, _ := s.Remaining(ctx, ip, nextDay, 3); rem != 3 {
		t.Errorf("next day should start fresh, remaining %d", rem)
	}
}

func TestConcurrentQuotaIncrements(t *testing.T) {
	s := testutil.SetupTestStore(t)
	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementQuota(context.Background(), "203.0.113.7", "2026-10-18"); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	n, err := s.QuotaCount(context.Background(), "203.0.113.7", "2026-10-18")
	if err != nil {
		t.Fatal(err)
	}
	if n != workers {
		t.Errorf("expected count %d, got %d", workers, n)
	}
}

func TestTouchAndIdle(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	t0 := testutil.Epoch

	if err := s.Touch(ctx, alice.SessionID, alice.IP, t0); err != nil {
		t.Fatal(err)
	}
	if err := s.Touch(ctx, alice.SessionID, alice.IP, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	sess, err := s.GetSession(ctx, alice.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if !sess.CreatedAt.Equal(t0) {
		t.Errorf("created_at changed on touch: %v", sess.CreatedAt)
	}
	if !sess.LastActivity.Equal(t0.Add(time.Minute)) {
		t.Errorf("last_activity = %v, want %v", sess.LastActivity, t0.Add(time.Minute))
	}

	local := testutil.Identity("sess-local", "127.0.0.1")
	idleNoCells := testutil.Identity("sess-empty", "203.0.113.9")
	s.Touch(ctx, bob.SessionID, bob.IP, t0)
	s.Touch(ctx, local.SessionID, local.IP, t0)
	s.Touch(ctx, idleNoCells.SessionID, idleNoCells.IP, t0)
	testutil.SeedCell(t, s, 1, 1, alice, false)
	testutil.SeedCell(t, s, 2, 2, bob, false)
	testutil.SeedCell(t, s, 3, 3, local, false)

	idle, err := s.ListIdleSince(ctx, t0.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if len(idle) != 1 || idle[0] != bob {
		t.Errorf("ListIdleSince = %+v, want only bob", idle)
	}

	if _, err := s.LockBySession(ctx, bob.SessionID); err != nil {
		t.Fatal(err)
	}
	idle, _ = s.ListIdleSince(ctx, t0.Add(30*time.Second))
	if len(idle) != 0 {
		t.Errorf("sessions without unlocked cells should not be listed: %+v", idle)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	s := testutil.SetupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.ClaimCell(ctx, cellFor(alice, 1, 1, "#000000")); err != nil {
			return err
		}
		if _, err := tx.IncrementQuota(ctx, alice.IP, "2026-10-18"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	if c, _ := s.GetCell(ctx, 1, 1); c != nil {
		t.Error("claim survived rollback")
	}
	if n, _ := s.QuotaCount(ctx, alice.IP, "2026-10-18"); n != 0 {
		t.Errorf("quota survived rollback: %d", n)
	}
}
