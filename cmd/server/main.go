package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arpablo/henni-repo/internal/infrastructure/config"
	"github.com/arpablo/henni-repo/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configFile := flag.String("config", os.Getenv(config.FileEnv), "Config file (.yaml, .yml or .toml)")
	port := flag.String("port", "", "Server port (overrides config)")
	basedir := flag.String("basedir", "", "Repository root directory (overrides config)")
	dev := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	flag.Parse()

	// Flags go through the environment so they are normalized and validated
	// like every other source
	overrides := map[string]string{"PORT": *port, "HENNI_REPO_BASEDIR": *basedir}
	if *dev {
		overrides["LOG_DEV"] = "true"
		overrides["LOG_LEVEL"] = "debug"
	}
	for key, value := range overrides {
		if value != "" {
			os.Setenv(key, value)
		}
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create server
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
		errChan <- srv.Run()
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
