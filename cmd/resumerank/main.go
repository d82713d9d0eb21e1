package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resumerank/internal/cli"
	"resumerank/internal/config"
	"resumerank/internal/errors"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// RESUMERANK_CONFIG names an explicit config file; otherwise the search
	// paths are used
	cfg, err := config.LoadConfigFile(os.Getenv("RESUMERANK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Debug("Starting resumerank",
		"version", cli.Version,
		"log_level", cfg.App.LogLevel,
		"workers", cfg.App.Workers,
		"vocabulary_file", cfg.Engine.VocabularyFile)

	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
