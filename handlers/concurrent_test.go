// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ekai/pixelpuzzle/store"
	"github.com/ekai/pixelpuzzle/testutil"
)

// TestConcurrentClaimsSameCell verifies that when many identities race for
// one coordinate, exactly one wins and the rest see a conflict
func TestConcurrentClaimsSameCell(t *testing.T) {
	testutil.ForEachBackend(t, testConcurrentClaimsSameCell)
}

func testConcurrentClaimsSameCell(t *testing.T, st *store.Store) {
	h := newHarnessOn(t, st, nil)

	numVisitors := 10
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVisitors; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			v := newVisitor("198.51.100." + string(rune('1'+idx%9)))
			w := h.place(v, 20, 20, "#ff00ff")

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 successful claim, got %d", created.Load())
	}
	if int(conflicts.Load()) != numVisitors-1 {
		t.Errorf("Expected %d conflicts, got %d", numVisitors-1, conflicts.Load())
	}

	cells, err := h.st.ListCells(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cells) != 1 {
		t.Errorf("Expected 1 cell in the grid, got %d", len(cells))
	}
}

// TestConcurrentQuotaBypass verifies that one IP cannot exceed its daily
// limit by spreading simultaneous claims across fresh sessions
func TestConcurrentQuotaBypass(t *testing.T) {
	testutil.ForEachBackend(t, testConcurrentQuotaBypass)
}

func testConcurrentQuotaBypass(t *testing.T, st *store.Store) {
	h := newHarnessOn(t, st, nil)
	seed := newVisitor("192.0.2.99")
	testutil.SeedCell(t, h.st, 50, 50, seed.identity(), false)

	neighbors := [][2]int{
		{49, 49}, {50, 49}, {51, 49},
		{49, 50}, {51, 50},
		{49, 51}, {50, 51}, {51, 51},
	}

	var created, rejected atomic.Int32
	var wg sync.WaitGroup

	for _, n := range neighbors {
		wg.Add(1)
		go func(x, y int) {
			defer wg.Done()

			// Same IP, new session every time
			v := newVisitor("203.0.113.77")
			w := h.place(v, x, y, "#00ffff")

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusTooManyRequests:
				rejected.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(n[0], n[1])
	}

	wg.Wait()

	limit := int32(h.cfg.DailyLimit)
	if created.Load() != limit {
		t.Errorf("Expected exactly %d claims to succeed, got %d", limit, created.Load())
	}
	if rejected.Load() != int32(len(neighbors))-limit {
		t.Errorf("Expected %d quota rejections, got %d", int32(len(neighbors))-limit, rejected.Load())
	}

	count, err := h.st.QuotaCount(context.Background(), "203.0.113.77", "2026-10-18")
	if err != nil {
		t.Fatal(err)
	}
	if count != h.cfg.DailyLimit {
		t.Errorf("Expected ledger count %d, got %d", h.cfg.DailyLimit, count)
	}
}
