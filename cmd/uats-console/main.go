package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/internal/infrastructure/monitoring"
	"github.com/turtacn/uats/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./config.yaml or /etc/uats/config.yaml)")
	flag.Parse()

	// Logger for startup
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	// Load config
	loader := config.NewLoader(startupLogger, *configFile)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Assemble the console core
	core, err := app.New(ctx, cfg, appLogger, app.Options{})
	if err != nil {
		appLogger.Fatal(ctx, "Failed to assemble console core", err)
	}
	core.Watch(loader)

	if err := core.Start(ctx); err != nil {
		// a bad configured token leaves the console signed out; the UI can sign in later
		appLogger.Error(ctx, "Configured sign-in failed", err)
	}

	router := core.NewRouter()
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- router.Start()
	}()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			appLogger.Error(context.Background(), "HTTP server failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if err := core.Close(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "Console core shutdown failed", err)
	}
	appLogger.Info(shutdownCtx, "Console stopped", logger.String("address", cfg.Server.Addr()))
}

//Personal.AI order the ending
