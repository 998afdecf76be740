// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package placement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/store"
)

// Engine applies claim, recolor, release and lock requests to the grid.
// It is the only writer of cells and the quota ledger besides the sweeper,
// which only ever locks.
type Engine struct {
	store *store.Store
	clock clock.Clock

	gridSize        int
	dailyLimit      int
	adjacencyPolicy string
	exemptLoopback  bool
}

func NewEngine(st *store.Store, cfg cliparse.Config, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Engine{
		store:           st,
		clock:           clk,
		gridSize:        cfg.GridSize,
		dailyLimit:      cfg.DailyLimit,
		adjacencyPolicy: cfg.AdjacencyPolicy,
		exemptLoopback:  cfg.ExemptLoopback,
	}
}

// DailyLimit returns the configured per-identity daily claim limit.
func (e *Engine) DailyLimit() int {
	return e.dailyLimit
}

// exempt reports whether ip bypasses quota, session cap and auto-lock.
func (e *Engine) exempt(ip string) bool {
	return e.exemptLoopback && store.IsExempt(ip)
}

func (e *Engine) validateIdentity(id models.Identity) error {
	if id.SessionID == "" || id.IP == "" {
		return reject(KindValidation, "session identity is required")
	}
	return nil
}

func (e *Engine) validateCoords(x, y int) error {
	if x < 0 || x >= e.gridSize || y < 0 || y >= e.gridSize {
		return reject(KindValidation, "coordinates %d,%d outside the %dx%d grid", x, y, e.gridSize, e.gridSize)
	}
	return nil
}

// Place claims the empty cell at (x, y) for id, or recolors it when id
// already owns it unlocked. Reaching the daily limit locks every cell of
// the session in the same transaction and reports SessionLocked.
func (e *Engine) Place(ctx context.Context, x, y int, color string, id models.Identity) (models.PlaceResult, error) {
	if err := e.validateIdentity(id); err != nil {
		return models.PlaceResult{}, err
	}
	if err := e.validateCoords(x, y); err != nil {
		return models.PlaceResult{}, err
	}
	color = NormalizeColor(color)

	now := e.clock.Now()
	day := now.UTC().Format(clock.DayLayout)
	exempt := e.exempt(id.IP)

	var result models.PlaceResult
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		// Session row then quota row: every placement by this identity
		// queues here until the previous one commits.
		if err := tx.Touch(ctx, id.SessionID, id.IP, now); err != nil {
			return err
		}
		if err := tx.HoldQuota(ctx, id.IP, day); err != nil {
			return err
		}

		existing, err := tx.GetCell(ctx, x, y)
		if err != nil {
			return err
		}
		if existing != nil {
			if !id.Owns(*existing) {
				return reject(KindConflict, "pixel %d,%d is already taken", x, y)
			}
			if existing.Locked {
				return reject(KindLocked, "pixel %d,%d is locked", x, y)
			}
			if err := tx.RecolorCell(ctx, x, y, color, id); err != nil {
				return mapStoreError(err, x, y)
			}
			result = models.PlaceResult{Action: models.ActionUpdated}
			return nil
		}

		owned, err := tx.CountBySession(ctx, id.SessionID)
		if err != nil {
			return err
		}
		if !exempt {
			remaining, err := tx.Remaining(ctx, id.IP, day, e.dailyLimit)
			if err != nil {
				return err
			}
			if remaining == 0 {
				return reject(KindQuotaExceeded, "daily limit of %d pixels reached", e.dailyLimit)
			}
			if owned >= e.dailyLimit {
				return reject(KindSessionCap, "this session already holds %d pixels", owned)
			}
		}

		if err := e.checkAdjacency(ctx, tx, x, y, id); err != nil {
			// Under read committed, a racing claim of (x, y) can commit after
			// the read above and then count as the only reference cell.
			if errors.Is(err, ErrAdjacency) {
				if c, gerr := tx.GetCell(ctx, x, y); gerr == nil && c != nil {
					return reject(KindConflict, "pixel %d,%d is already taken", x, y)
				}
			}
			return err
		}

		ok, err := tx.ClaimCell(ctx, models.Cell{
			X:         x,
			Y:         y,
			Color:     color,
			SessionID: id.SessionID,
			IP:        id.IP,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return reject(KindConflict, "pixel %d,%d is already taken", x, y)
		}
		if _, err := tx.IncrementQuota(ctx, id.IP, day); err != nil {
			return err
		}

		result = models.PlaceResult{Action: models.ActionPlaced}
		if !exempt && owned+1 >= e.dailyLimit {
			n, err := tx.LockBySession(ctx, id.SessionID)
			if err != nil {
				return err
			}
			result.SessionLocked = true
			slog.Info("session reached daily limit", "session_id", id.SessionID, "locked", n)
		}
		return nil
	})
	if err != nil {
		return models.PlaceResult{}, err
	}

	return result, nil
}

// checkAdjacency requires (x, y) to touch a reference cell, unless there
// is none yet. The reference set is the whole grid or only id's cells,
// depending on the configured policy.
func (e *Engine) checkAdjacency(ctx context.Context, tx *store.Tx, x, y int, id models.Identity) error {
	var owner *models.Identity
	if e.adjacencyPolicy == cliparse.AdjacencyOwn {
		owner = &id
	}

	exists, err := tx.HasAny(ctx, owner)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	near, err := tx.HasNeighbor(ctx, x, y, owner)
	if err != nil {
		return err
	}
	if !near {
		if owner != nil {
			return reject(KindAdjacency, "pixel %d,%d must touch one of your pixels", x, y)
		}
		return reject(KindAdjacency, "pixel %d,%d must touch an existing pixel", x, y)
	}
	return nil
}

// Release deletes an unlocked cell owned by id. Quota is not restored:
// the ledger counts claims made today, not cells currently held.
func (e *Engine) Release(ctx context.Context, x, y int, id models.Identity) (models.ReleaseResult, error) {
	if err := e.validateIdentity(id); err != nil {
		return models.ReleaseResult{}, err
	}
	if err := e.validateCoords(x, y); err != nil {
		return models.ReleaseResult{}, err
	}

	if err := e.store.ReleaseCell(ctx, x, y, id); err != nil {
		return models.ReleaseResult{}, mapStoreError(err, x, y)
	}
	return models.ReleaseResult{Action: models.ActionReleased}, nil
}

// Grid returns every claimed cell keyed by "x,y".
func (e *Engine) Grid(ctx context.Context) (models.GridResponse, error) {
	cells, err := e.store.ListCells(ctx)
	if err != nil {
		return nil, err
	}

	grid := make(models.GridResponse, len(cells))
	for _, c := range cells {
		grid[c.Key()] = models.GridCell{Color: c.Color, Locked: c.Locked}
	}
	return grid, nil
}

// Mine returns id's cells and today's remaining quota.
func (e *Engine) Mine(ctx context.Context, id models.Identity) (models.MineResponse, error) {
	if err := e.validateIdentity(id); err != nil {
		return models.MineResponse{}, err
	}

	cells, err := e.store.ListByIdentity(ctx, id)
	if err != nil {
		return models.MineResponse{}, err
	}

	remaining := e.dailyLimit
	if !e.exempt(id.IP) {
		remaining, err = e.store.Remaining(ctx, id.IP, clock.Today(e.clock), e.dailyLimit)
		if err != nil {
			return models.MineResponse{}, err
		}
	}

	return models.MineResponse{
		MyPixels:  cells,
		Remaining: remaining,
		MaxPerDay: e.dailyLimit,
	}, nil
}

// LockSession permanently locks every unlocked cell of id's session.
func (e *Engine) LockSession(ctx context.Context, id models.Identity) (int64, error) {
	if err := e.validateIdentity(id); err != nil {
		return 0, err
	}
	return e.store.LockBySession(ctx, id.SessionID)
}

func mapStoreError(err error, x, y int) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return reject(KindNotFound, "no pixel at %d,%d", x, y)
	case errors.Is(err, store.ErrNotOwner):
		return reject(KindNotFound, "pixel %d,%d is not yours", x, y)
	case errors.Is(err, store.ErrLocked):
		return reject(KindLocked, "pixel %d,%d is locked", x, y)
	default:
		return err
	}
}
