package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PiperGuy/panic-pocket/internal/amqp"
	"github.com/PiperGuy/panic-pocket/internal/analytics"
	"github.com/PiperGuy/panic-pocket/internal/cli"
	"github.com/PiperGuy/panic-pocket/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting pocket-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without it the worker still regenerates instances,
	// it just cannot deliver reminders.
	var publisher services.ReminderPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, reminders will not be delivered")
	}

	recorder := analytics.NewRecorder(repo, logger)
	expenses := services.NewExpenseService(repo, recorder, cfg.GenerationHorizon, logger)
	reminders := services.NewReminderProcessor(repo, publisher, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Worker configured",
		"regeneration_interval", cfg.RegenerationInterval,
		"reminder_interval", cfg.ReminderInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	if count, err := expenses.Regenerate(ctx, time.Now()); err != nil {
		logger.Error("Initial regeneration failed", "error", err)
	} else {
		logger.Info("Initial regeneration complete", "instances_created", count)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.RegenerationInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				count, err := expenses.Regenerate(ctx, now)
				if err != nil {
					logger.Error("Periodic regeneration failed", "error", err)
					continue
				}
				logger.Info("Periodic regeneration complete",
					"instances_created", count,
					"next_check", now.Add(cfg.RegenerationInterval).Format("15:04:05"))
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				count, err := reminders.Scan(ctx, now)
				if err != nil {
					logger.Error("Reminder scan failed", "error", err)
					continue
				}
				logger.Info("Reminder scan complete", "reminders_published", count)

				// A weekly totals message every Monday morning tick.
				if now.Weekday() == time.Monday && now.Hour() < 12 {
					if err := reminders.PublishWeeklySummary(ctx, now); err != nil {
						logger.Error("Weekly summary failed", "error", err)
					}
				}
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
}
