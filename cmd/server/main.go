package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lab-report-server/internal/api"
	"github.com/lab-report-server/internal/config"
	"github.com/lab-report-server/internal/history"
	"github.com/lab-report-server/internal/logging"
	"github.com/lab-report-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.WithField("addr", configManager.Address()).Info("Starting lab report server")

	var (
		analyzerOpts []service.AnalyzerOption
		serverOpts   = []api.ServerOption{api.WithLogger(logger)}
	)

	store, err := history.Open(cfg.History, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open analysis history")
	}
	if store != nil {
		defer store.Close()
		recorder := history.NewRecorder(store, cfg.History.Breaker, logger)
		analyzerOpts = append(analyzerOpts, service.WithRecorder(recorder))
		serverOpts = append(serverOpts, api.WithHistory(store), api.WithHistoryBreaker(recorder))
	}

	analyzer := service.NewAnalyzerService(logger, analyzerOpts...)

	// Create server
	server, err := api.NewServer(configManager, analyzer, serverOpts...)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create server")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		return
	}

	logger.Info("Server stopped")
}
