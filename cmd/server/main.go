package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadOrDefault()

	// Parse flags
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Listen address")
	catalogDir := flag.String("catalog", cfg.Catalog.Dir, "Extra snippet directory")
	timeout := flag.Duration("timeout", cfg.Engine.Timeout, "Per-run wall clock limit (0 disables)")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Catalog.Dir = *catalogDir
	cfg.Engine.Timeout = *timeout
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	log.Println(strings.Repeat("=", 60))
	log.Println("Snippet Playground - Go Service")
	log.Println(strings.Repeat("=", 60))

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		log.Printf("Server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Close(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}
