// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package sweeper locks the cells of sessions that have gone idle.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/models"
)

// Store is the slice of the store the sweeper needs.
type Store interface {
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]models.Identity, error)
	LockBySession(ctx context.Context, sessionID string) (int64, error)
}

// Result summarizes one sweep.
type Result struct {
	Sessions int
	Locked   int64
	Failed   int
}

type Sweeper struct {
	store           Store
	clock           clock.Clock
	sessionDuration time.Duration
	interval        time.Duration
}

func New(st Store, clk clock.Clock, sessionDuration, interval time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Sweeper{
		store:           st,
		clock:           clk,
		sessionDuration: sessionDuration,
		interval:        interval,
	}
}

// Sweep locks every unlocked cell of sessions idle for longer than the
// session duration. A failure on one session is logged and the sweep
// moves on; locking is idempotent, so the next tick retries it.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	now := s.clock.Now()
	cutoff := now.Add(-s.sessionDuration)
	idle, err := s.store.ListIdleSince(ctx, cutoff)
	if err != nil {
		return res, err
	}

	for _, id := range idle {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := s.store.LockBySession(ctx, id.SessionID)
		if err != nil {
			slog.Error("failed to lock idle session", "session_id", id.SessionID, "error", err)
			res.Failed++
			continue
		}
		res.Sessions++
		res.Locked += n
	}

	if res.Sessions > 0 || res.Failed > 0 {
		slog.Info("lock sweep finished",
			"sessions", res.Sessions,
			"locked", res.Locked,
			"failed", res.Failed,
			"idle_for", humanize.RelTime(cutoff, now, "idle", ""),
		)
	}
	return res, nil
}

// Run sweeps every interval until ctx is cancelled. A failed sweep only
// delays locking until the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("lock sweeper started", "interval", s.interval, "session_duration", s.sessionDuration)
	for {
		select {
		case <-ctx.Done():
			slog.Info("lock sweeper stopped")
			return
		case <-s.clock.After(s.interval):
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.Error("lock sweep failed", "error", err)
			}
		}
	}
}
