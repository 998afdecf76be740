// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/ekai/pixelpuzzle/activitylog"
	"github.com/ekai/pixelpuzzle/auth"
	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/middleware"
	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/store"
)

const defaultActivityLimit = 50

type AdminHandler struct {
	store    *store.Store
	activity *activitylog.Log
	clock    clock.Clock
	cfg      cliparse.Config
}

func NewAdminHandler(st *store.Store, activity *activitylog.Log, clk clock.Clock, cfg cliparse.Config) *AdminHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &AdminHandler{store: st, activity: activity, clock: clk, cfg: cfg}
}

// Stats handles GET /admin/stats
// Requires X-Admin-Key. The route does not exist when no admin key is
// configured. Optional ?limit=N bounds the activity list.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKey); err != nil {
		if errors.Is(err, auth.ErrAdminDisabled) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
			return
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		slog.Error("failed to query grid stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	now := h.clock.Now()
	recent := h.activity.Recent(limit)
	entries := make([]models.ActivityEntry, 0, len(recent))
	for _, e := range recent {
		entries = append(entries, models.ActivityEntry{
			At:     e.At,
			Ago:    humanize.RelTime(e.At, now, "ago", "from now"),
			IPHash: e.IPHash,
			Method: e.Method,
			Path:   e.Path,
		})
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatsResponse{
		Cells:          stats,
		RecentActivity: entries,
	})
}
