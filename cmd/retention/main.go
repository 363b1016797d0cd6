// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/netSkope/spo-retention-tool/internal/azureblob"
	"github.com/netSkope/spo-retention-tool/internal/config"
	"github.com/netSkope/spo-retention-tool/internal/console"
	"github.com/netSkope/spo-retention-tool/internal/export"
	spolog "github.com/netSkope/spo-retention-tool/internal/log"
	"github.com/netSkope/spo-retention-tool/internal/retention"
	"github.com/netSkope/spo-retention-tool/internal/s3"
	"github.com/netSkope/spo-retention-tool/internal/sharepoint"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize session logger
	logger, logPath, err := spolog.NewSessionLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cons := console.New(os.Stdin, os.Stdout)
	cons.Printf("Session log: %s\n", logPath)

	// Fill in the auth mode interactively when the config leaves it open.
	if err := retention.PromptAuthMode(cons, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting retention tool",
		zap.String("admin_url", cfg.AdminURL),
		zap.String("auth_mode", cfg.AuthMode),
		zap.String("upload_backend", cfg.UploadBackend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := sharepoint.NewCredential(cfg)
	if err != nil {
		return fmt.Errorf("failed to build credential: %w", err)
	}

	client := sharepoint.NewClient(cfg.AdminURL, cred, logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	cons.Successf("Connected to %s", cfg.AdminURL)

	target, err := buildUploadTarget(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if target != nil {
		cons.Printf("Uploads enabled: %s\n", target.Name())
	}

	tool := retention.NewTool(cfg, client, client, target, cons, logger)
	if err := tool.Run(ctx); err != nil {
		logger.Error("Session ended with error", zap.Error(err))
		return err
	}

	logger.Info("Session finished")
	return nil
}

// buildUploadTarget returns the configured upload backend, or nil when the
// tool runs in download-only mode.
func buildUploadTarget(ctx context.Context, cfg *config.Config, logger *zap.Logger) (export.UploadTarget, error) {
	switch cfg.UploadBackend {
	case "":
		return nil, nil
	case "azure":
		accountURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.BlobAccount)
		return export.NewAzureTarget(azureblob.NewClient(accountURL, cfg.BlobContainer, cfg.BlobSASToken, logger)), nil
	case "s3":
		uploader, err := s3.NewUploader(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 uploader: %w", err)
		}
		return export.NewS3Target(uploader), nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.UploadBackend)
	}
}
