// Command hookfreightd runs the HookFreight relay as a standalone process:
// it serves the ingest path and the management/read API over HTTP, and
// drives the delivery engine's poll loop until it receives a shutdown signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hookfreight/hookfreight"
	"github.com/hookfreight/hookfreight/api"
	"github.com/hookfreight/hookfreight/scheduler"
	memoryqueue "github.com/hookfreight/hookfreight/scheduler/memory"
	redisqueue "github.com/hookfreight/hookfreight/scheduler/redis"
	memorystore "github.com/hookfreight/hookfreight/store/memory"
)

func main() {
	if err := run(); err != nil {
		slog.Default().Error("hookfreightd exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.Default()

	cfg, err := hookfreight.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	queue, err := newQueue()
	if err != nil {
		return fmt.Errorf("build queue: %w", err)
	}

	// The primary store defaults to the in-memory backend. A process that
	// wants the Postgres backend embeds store/postgres.New against its own
	// *grove.DB (see DESIGN.md) rather than have hookfreightd build one from
	// a bare DSN string — connection construction is the caller's concern in
	// every reference this module is grounded on.
	st := memorystore.New()

	svc, err := hookfreight.New(
		hookfreight.WithStore(st),
		hookfreight.WithQueue(queue),
		hookfreight.WithLogger(logger),
		hookfreight.WithConfig(cfg),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	svc.Start(ctx)

	router := api.NewRouter(svc)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("hookfreightd listening", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	svc.Stop(shutdownCtx)
	return nil
}

// newQueue builds the scheduler queue from HOOKFREIGHT_QUEUE_BACKEND: "memory"
// (default) or "redis", using HOOKFREIGHT_REDIS_ADDR for the latter.
func newQueue() (scheduler.Queue, error) {
	switch os.Getenv("HOOKFREIGHT_QUEUE_BACKEND") {
	case "redis":
		addr := os.Getenv("HOOKFREIGHT_REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		return redisqueue.New(rdb), nil
	default:
		return memoryqueue.New(), nil
	}
}
