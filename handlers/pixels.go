// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/middleware"
	"github.com/ekai/pixelpuzzle/models"
	"github.com/ekai/pixelpuzzle/placement"
)

type PixelHandler struct {
	engine *placement.Engine
	cfg    cliparse.Config
}

func NewPixelHandler(engine *placement.Engine, cfg cliparse.Config) *PixelHandler {
	return &PixelHandler{engine: engine, cfg: cfg}
}

// rejectStatus maps each rejection kind to its HTTP status
var rejectStatus = map[placement.Kind]int{
	placement.KindValidation:    http.StatusBadRequest,
	placement.KindConflict:      http.StatusConflict,
	placement.KindLocked:        http.StatusLocked,
	placement.KindQuotaExceeded: http.StatusTooManyRequests,
	placement.KindSessionCap:    http.StatusTooManyRequests,
	placement.KindAdjacency:     http.StatusUnprocessableEntity,
	placement.KindNotFound:      http.StatusNotFound,
}

// writeEngineError turns an engine error into a response. Rejections carry
// their kind; anything else is a storage failure and is logged.
func writeEngineError(w http.ResponseWriter, err error, op string) {
	var rej *placement.Error
	if errors.As(err, &rej) {
		status, ok := rejectStatus[rej.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		middleware.RejectResponse(w, status, string(rej.Kind), rej.Error())
		return
	}

	slog.Error("pixel operation failed", "op", op, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

func identityOrFail(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "session required")
	}
	return id, ok
}

// PlacePixel handles POST /api/pixels
func (h *PixelHandler) PlacePixel(w http.ResponseWriter, r *http.Request) {
	id, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	var req models.PlacePixelRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.X == nil || req.Y == nil {
		middleware.RejectResponse(w, http.StatusBadRequest, string(placement.KindValidation), "x and y are required")
		return
	}

	result, err := h.engine.Place(r.Context(), *req.X, *req.Y, req.Color, id)
	if err != nil {
		writeEngineError(w, err, "place")
		return
	}

	slog.Info("pixel placed",
		"x", *req.X,
		"y", *req.Y,
		"action", result.Action,
		"session_id", id.SessionID,
		"session_locked", result.SessionLocked,
	)

	status := http.StatusOK
	if result.Action == models.ActionPlaced {
		status = http.StatusCreated
	}
	middleware.JSONResponse(w, status, result)
}

// ReleasePixel handles DELETE /api/pixels/{x}/{y}
func (h *PixelHandler) ReleasePixel(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(r.PathValue("y"))
	if errX != nil || errY != nil {
		middleware.RejectResponse(w, http.StatusBadRequest, string(placement.KindValidation), "x and y must be integers")
		return
	}
	h.release(w, r, x, y)
}

// ReleasePixelBody handles POST /api/pixels/delete, the body-addressed
// form used by clients that cannot send DELETE.
func (h *PixelHandler) ReleasePixelBody(w http.ResponseWriter, r *http.Request) {
	var req models.ReleasePixelRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.X == nil || req.Y == nil {
		middleware.RejectResponse(w, http.StatusBadRequest, string(placement.KindValidation), "x and y are required")
		return
	}
	h.release(w, r, *req.X, *req.Y)
}

func (h *PixelHandler) release(w http.ResponseWriter, r *http.Request, x, y int) {
	id, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Release(r.Context(), x, y, id)
	if err != nil {
		writeEngineError(w, err, "release")
		return
	}

	slog.Info("pixel released", "x", x, "y", y, "session_id", id.SessionID)

	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetGrid handles GET /api/grid
func (h *PixelHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	grid, err := h.engine.Grid(r.Context())
	if err != nil {
		writeEngineError(w, err, "grid")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, grid)
}

// GetMine handles GET /api/mine
func (h *PixelHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	mine, err := h.engine.Mine(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "mine")
		return
	}
	if mine.MyPixels == nil {
		mine.MyPixels = []models.Cell{}
	}
	middleware.JSONResponse(w, http.StatusOK, mine)
}

// LockSession handles POST /api/lock
// Locks the caller's pixels and ends the session, so later pixels start
// a fresh one.
func (h *PixelHandler) LockSession(w http.ResponseWriter, r *http.Request) {
	id, ok := identityOrFail(w, r)
	if !ok {
		return
	}

	n, err := h.engine.LockSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, err, "lock")
		return
	}

	slog.Info("session locked", "session_id", id.SessionID, "locked", n)

	middleware.ClearSessionCookie(w)
	middleware.JSONResponse(w, http.StatusOK, models.LockSessionResponse{
		Success: true,
		Locked:  n,
	})
}

// GetConfig handles GET /api/config
func (h *PixelHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.ConfigResponse{
		GridSize:        h.cfg.GridSize,
		MaxPerDay:       h.cfg.DailyLimit,
		AdjacencyPolicy: h.cfg.AdjacencyPolicy,
		SessionSeconds:  int64(h.cfg.SessionDuration.Seconds()),
	})
}
