// Package main provides the stdio MCP entry point for the lab report analyzer.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lab-report-server/internal/config"
	"github.com/lab-report-server/internal/mcp"
)

func main() {
	// Environment-only configuration; stdout belongs to the protocol.
	cfg := config.LoadLiteConfig()

	log.Printf("Data directory: %s (history enabled: %t)", cfg.DataDir, cfg.HistoryEnabled)

	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Printf("MCP server failed: %v", err)
		return
	}

	log.Println("Lab report MCP server stopped")
}
