package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ekai/pixelpuzzle/activitylog"
	"github.com/ekai/pixelpuzzle/cliparse"
	"github.com/ekai/pixelpuzzle/clock"
	"github.com/ekai/pixelpuzzle/db"
	"github.com/ekai/pixelpuzzle/middleware"
	"github.com/ekai/pixelpuzzle/router"
	"github.com/ekai/pixelpuzzle/store"
	"github.com/ekai/pixelpuzzle/sweeper"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect and verify
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	st := store.New(dbConn, cfg.DatabaseType)
	clk := clock.Real{}
	activity := activitylog.New(activitylog.DefaultCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Lock idle sessions in the background
	sw := sweeper.New(st, clk, cfg.SessionDuration, cfg.SweepInterval)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sw.Run(ctx)
	}()

	// Create server
	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(st, activity, clk, cfg)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening",
		"port", cfg.Port,
		"grid_size", cfg.GridSize,
		"daily_limit", cfg.DailyLimit,
		"adjacency", cfg.AdjacencyPolicy,
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	cancel()
	<-sweepDone
}
