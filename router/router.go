// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/ekai/pixelpuzzle/activitylog"
	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/handlers"
	"github.com/ekai/pixelpuzzle/middleware"
	"github.com/ekai/pixelpuzzle/placement"
	"github.com/ekai/pixelpuzzle/store"
)

func NewRouter(st *store.Store, activity *activitylog.Log, clk clock.Clock, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pixelHandler := handlers.NewPixelHandler(placement.NewEngine(st, cfg, clk), cfg)
	adminHandler := handlers.NewAdminHandler(st, activity, clk, cfg)

	// Visitor routes: logged, recorded in the activity log, and bound to a session
	visitor := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(
			middleware.WithActivity(activity, cfg.IPHashSalt, cfg.TrustProxy, clk,
				middleware.WithSession(st, clk, cfg.TrustProxy, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Pixel operations
	mux.HandleFunc("POST /api/pixels", visitor(pixelHandler.PlacePixel))
	mux.HandleFunc("DELETE /api/pixels/{x}/{y}", visitor(pixelHandler.ReleasePixel))
	mux.HandleFunc("POST /api/pixels/delete", visitor(pixelHandler.ReleasePixelBody))
	mux.HandleFunc("GET /api/grid", visitor(pixelHandler.GetGrid))
	mux.HandleFunc("GET /api/mine", visitor(pixelHandler.GetMine))
	mux.HandleFunc("POST /api/lock", visitor(pixelHandler.LockSession))

	// Client bootstrap, no session needed
	mux.HandleFunc("GET /api/config", middleware.WithLogging(pixelHandler.GetConfig))

	// Admin report (requires X-Admin-Key)
	mux.HandleFunc("GET /admin/stats", middleware.WithLogging(adminHandler.Stats))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pixelpuzzle API v1"))
	})

	return mux
}
