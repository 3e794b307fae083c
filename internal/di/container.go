// Package di wires the application graph.
package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/drive"
	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/gmail"
	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/repository"
	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/storage"
	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/factory"
	"github.com/jcheng510/ai-erp-system-sub004/internal/logging"
	"github.com/jcheng510/ai-erp-system-sub004/internal/scheduler"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewAIFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register AI client
	if err := container.Provide(func(f *factory.AIFactory) (core.AIClient, error) {
		return f.CreateAIClient()
	}); err != nil {
		return nil, err
	}

	// Register classification cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ClassificationCache, error) {
		return f.CreateCache()
	}); err != nil {
		return nil, err
	}

	// Register database and repositories
	if err := container.Provide(func(cfg *config.Config) (*gorm.DB, error) {
		dbCfg := cfg.GetDatabase()
		return repository.Open(dbCfg.Driver, dbCfg.DSN)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewMessageRepository); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewFilingRepository); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewRuleRepository); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewSenderListRepository); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewVendorRepository); err != nil {
		return nil, err
	}
	if err := container.Provide(repository.NewStructuredRepository); err != nil {
		return nil, err
	}

	// Register blob storage
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.BlobStore, error) {
		return storage.NewLocalStore(cfg.GetStorage().Path, logger)
	}); err != nil {
		return nil, err
	}

	// Register mailbox client
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.MailboxClient, error) {
		f := gmail.NewFactory(cfg, logger)
		return f.CreateClient(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register cloud file store
	if err := container.Provide(func(logger *zap.Logger) core.CloudFileStore {
		return drive.NewStore(logger)
	}); err != nil {
		return nil, err
	}

	// Register pipeline components
	if err := container.Provide(func(
		senders core.SenderListRepository,
		vendors core.VendorRepository,
		ai core.AIClient,
		cache core.ClassificationCache,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.SpamClassifier {
		spamCfg := cfg.GetSpam()
		return core.NewSpamClassifier(senders, vendors, ai, cache, logger, spamCfg.CacheTTL, spamCfg.AutoBlockThreshold)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewDocumentClassifier); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewRuleMatcher); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		repo core.StructuredRepository,
		blobs core.BlobStore,
		cloud core.CloudFileStore,
		filings core.FilingRepository,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.FilingExecutor {
		return core.NewFilingExecutor(repo, blobs, cloud, filings, cfg.GetDrive().FolderID, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		spam *core.SpamClassifier,
		docs *core.DocumentClassifier,
		rules *core.RuleMatcher,
		executor *core.FilingExecutor,
		vendors core.VendorRepository,
		messages core.MessageRepository,
		filings core.FilingRepository,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.AttachmentOrchestrator {
		useAI := cfg.GetAI().Enabled
		return core.NewAttachmentOrchestrator(spam, docs, rules, executor, vendors, messages, filings, logger, useAI)
	}); err != nil {
		return nil, err
	}

	// Register scanner and scheduler
	if err := container.Provide(func(
		mailbox core.MailboxClient,
		blobs core.BlobStore,
		messages core.MessageRepository,
		spam *core.SpamClassifier,
		orchestrator *core.AttachmentOrchestrator,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.InboxScanner {
		scanCfg := cfg.GetScanner()
		return core.NewInboxScanner(mailbox, blobs, messages, spam, orchestrator, logger, scanCfg.Pacing, scanCfg.WindowDays)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		scanner *core.InboxScanner,
		cfg *config.Config,
		logger *zap.Logger,
	) *scheduler.Scheduler {
		scanCfg := cfg.GetScanner()
		opts := core.ScanOptions{
			MaxMessages:         int64(scanCfg.MaxMessages),
			ProcessAttachments:  scanCfg.ProcessAttachments,
			AutoFile:            scanCfg.AutoFile,
			FilterSpam:          scanCfg.FilterSpam,
			FilterSolicitations: scanCfg.FilterSolicitations,
		}
		return scheduler.New(scanner, opts, scanCfg.Interval, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
