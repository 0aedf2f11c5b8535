// Package main provides the entry point for the soundhound bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redahead/soundhound/internal/bootstrap"
	"github.com/redahead/soundhound/internal/config"
	"github.com/redahead/soundhound/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting soundhound",
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.Int("ops_port", cfg.OpsPort),
		slog.Bool("archive_enabled", cfg.ArchiveEnabled()),
		slog.Bool("keep_action_after_result", cfg.KeepActionAfterResult),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Store.Close()

	botName, err := deps.Client.Identity(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	logger.Info("bot connected", slog.String("username", botName))

	// Ops HTTP server
	handlers := server.NewHandlers(deps.Store, botName, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.OpsPort),
		Handler:      server.NewRouter(handlers, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ops server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server failed: %w", err)
		}
	}()

	events, err := deps.Client.Listen(ctx)
	if err != nil {
		return fmt.Errorf("start update polling: %w", err)
	}

	// One goroutine per event; the per-user lock serializes concurrent
	// events from the same user.
	var wg sync.WaitGroup
loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				deps.Dispatcher.Dispatch(ctx, ev)
			}()
		case err := <-errCh:
			return err
		case <-ctx.Done():
			break loop
		}
	}

	logger.Info("shutting down...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("stopped gracefully")
	return nil
}
