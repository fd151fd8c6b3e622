package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/partyquiz/internal/api"
	"github.com/mcoot/partyquiz/internal/config"
	"github.com/mcoot/partyquiz/internal/factory"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background maintenance
	go app.AuthService.RunSessionJanitor(ctx, cfg.SessionCleanupInterval)
	go app.HubManager.RunReaper(ctx, cfg.HubReapInterval)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.Addr()
	serverConfig.ShutdownTimeout = cfg.ShutdownTimeout
	server := api.NewServer(app.Router, serverConfig, logger)

	// Open streams never go idle, so end them when shutdown starts
	server.RegisterOnShutdown(app.HubManager.Close)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("google_login", cfg.GoogleEnabled()),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
