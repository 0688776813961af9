package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/PiperGuy/panic-pocket/internal/analytics"
	"github.com/PiperGuy/panic-pocket/internal/cli"
	apphttp "github.com/PiperGuy/panic-pocket/internal/http"
	"github.com/PiperGuy/panic-pocket/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting pocket")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	recorder := analytics.NewRecorder(repo, logger)
	expenses := services.NewExpenseService(repo, recorder, cfg.GenerationHorizon, logger)
	lifecycle := services.NewLifecycle(repo)

	// Bring the schedule up to date before serving requests.
	if count, err := expenses.Regenerate(context.Background(), time.Now()); err != nil {
		logger.Error("Startup regeneration failed", "error", err)
	} else {
		logger.Info("Startup regeneration complete", "instances_created", count)
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, expenses, lifecycle, recorder)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("HTTP server listening", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
}
