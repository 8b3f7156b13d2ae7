package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ishop/internal/amqp"
	"ishop/internal/cli"
	"ishop/internal/feed"
	apphttp "ishop/internal/http"
	applog "ishop/internal/log"
	"ishop/internal/notify"
	"ishop/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Reminder scheduling goes through AMQP when a broker is configured.
	// Without one the app still runs; reminders live in-process and die
	// with it, which is fine for local development.
	var scheduler notify.Scheduler
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, falling back to in-process reminders", "error", err)
			scheduler = notify.NewMemoryScheduler()
		} else {
			defer client.Close()
			scheduler = client
			logger.Info("AMQP reminder scheduling enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		scheduler = notify.NewMemoryScheduler()
		logger.Info("No AMQP URL configured, using in-process reminders")
	}

	changes := feed.New()
	reconciler := notify.NewReconciler(scheduler)

	srv := apphttp.NewServer(":"+cfg.Port,
		services.NewListService(repo, reconciler, changes),
		services.NewItemService(repo, reconciler, changes),
		services.NewBudgetService(repo),
		changes)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting ishop server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
