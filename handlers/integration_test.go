// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/placement"
	"github.com/ekai/pixelpuzzle/sweeper"
	"github.com/ekai/pixelpuzzle/testutil"
)

// TestFullPixelWorkflow tests the end-to-end workflow:
// 1. A claims the first pixel on an empty grid
// 2. B collides with A, then claims an adjacent pixel
// 3. B is refused a far-away pixel
// 4. A recolors, B releases and re-claims
// 5. A goes idle and the sweeper locks A's pixels
// 6. B locks its session voluntarily
func TestFullPixelWorkflow(t *testing.T) {
	h := newHarness(t, nil)
	alice := newVisitor("203.0.113.10")
	bob := newVisitor("203.0.113.20")
	ctx := context.Background()

	remaining := func(v visitor) int {
		t.Helper()
		w := h.serve(h.pixels.GetMine, v.request("GET", "/api/mine", nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var mine models.MineResponse
		testutil.AssertJSON(t, w, &mine)
		return mine.Remaining
	}

	// Step 1
	before := remaining(alice)
	w := h.place(alice, 5, 5, "#ff0000")
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - place failed: %d - %s", w.Code, w.Body.String())
	}
	if after := remaining(alice); after != before-1 {
		t.Fatalf("Step 1 - remaining went %d -> %d", before, after)
	}
	t.Logf("Step 1 - A placed 5,5")

	// Step 2
	assertKind(t, h.place(bob, 5, 5, "#0000ff"), http.StatusConflict, placement.KindConflict)
	if w := h.place(bob, 6, 6, "#0000ff"); w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - adjacent claim failed: %d - %s", w.Code, w.Body.String())
	}
	t.Logf("Step 2 - B placed 6,6")

	// Step 3
	assertKind(t, h.place(bob, 50, 50, "#0000ff"), http.StatusUnprocessableEntity, placement.KindAdjacency)

	// Step 4
	if w := h.place(alice, 5, 5, "#00ff00"); w.Code != http.StatusOK {
		t.Fatalf("Step 4 - recolor failed: %d - %s", w.Code, w.Body.String())
	}
	if w := h.releaseByPath(bob, "6", "6"); w.Code != http.StatusOK {
		t.Fatalf("Step 4 - release failed: %d - %s", w.Code, w.Body.String())
	}
	if w := h.place(bob, 6, 5, "#0000ff"); w.Code != http.StatusCreated {
		t.Fatalf("Step 4 - re-claim failed: %d - %s", w.Code, w.Body.String())
	}
	if got := remaining(bob); got != 3 {
		t.Errorf("Step 4 - expected B to have 3 left after two claims, got %d", got)
	}

	// Step 5: B stays active, A does not
	h.clk.Advance(h.cfg.SessionDuration - time.Minute)
	remaining(bob)
	h.clk.Advance(2 * time.Minute)

	sw := sweeper.New(h.st, h.clk, h.cfg.SessionDuration, h.cfg.SweepInterval)
	res, err := sw.Sweep(ctx)
	if err != nil {
		t.Fatalf("Step 5 - sweep failed: %v", err)
	}
	if res.Sessions != 1 || res.Locked != 1 {
		t.Errorf("Step 5 - expected 1 session and 1 cell locked, got %+v", res)
	}

	cell, _ := h.st.GetCell(ctx, 5, 5)
	if cell == nil || !cell.Locked || cell.Color != "#00ff00" {
		t.Errorf("Step 5 - expected A's pixel locked with its last color, got %+v", cell)
	}
	assertKind(t, h.place(alice, 5, 5, "#ffffff"), http.StatusLocked, placement.KindLocked)

	if res, _ := sw.Sweep(ctx); res.Sessions != 0 || res.Locked != 0 {
		t.Errorf("Step 5 - second sweep should be a no-op, got %+v", res)
	}

	// Step 6
	w = h.serve(h.pixels.LockSession, bob.request("POST", "/api/lock", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = h.serve(h.pixels.GetGrid, bob.request("GET", "/api/grid", nil))
	var grid models.GridResponse
	testutil.AssertJSON(t, w, &grid)
	if len(grid) != 2 {
		t.Fatalf("Step 6 - expected 2 cells, got %d", len(grid))
	}
	for key, c := range grid {
		if !c.Locked {
			t.Errorf("Step 6 - cell %s should be locked", key)
		}
	}
}
