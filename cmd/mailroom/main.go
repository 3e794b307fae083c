package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/smtpintake"
	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/di"
	"github.com/jcheng510/ai-erp-system-sub004/internal/scheduler"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	sched *scheduler.Scheduler,
	spam *core.SpamClassifier,
	orchestrator *core.AttachmentOrchestrator,
	messages core.MessageRepository,
	blobs core.BlobStore,
	aiClient core.AIClient,
	cache core.ClassificationCache,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the periodic scanner
	sched.Start(ctx)

	// Start SMTP intake when enabled
	var intake *smtpintake.Intake
	smtpCfg := cfg.GetSMTP()
	if smtpCfg.Enabled {
		scanCfg := cfg.GetScanner()
		opts := core.ScanOptions{
			ProcessAttachments:  scanCfg.ProcessAttachments,
			AutoFile:            scanCfg.AutoFile,
			FilterSpam:          scanCfg.FilterSpam,
			FilterSolicitations: scanCfg.FilterSolicitations,
		}
		backend := smtpintake.NewBackend(spam, orchestrator, messages, blobs, opts, logger)
		intake = smtpintake.NewIntake(backend, smtpCfg.ListenAddress, smtpCfg.Domain, logger)
		intake.Start()
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	cancel()
	sched.Stop()

	if intake != nil {
		if err := intake.Stop(); err != nil {
			logger.Error("Failed to stop SMTP intake", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if closer, ok := aiClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close AI client", zap.Error(err))
		}
	}
	switch stopper := cache.(type) {
	case interface{ Stop() error }:
		if err := stopper.Stop(); err != nil {
			logger.Error("Failed to stop cache", zap.Error(err))
		}
	case interface{ Stop() }:
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
