// Package factory assembles configured adapters behind the core ports.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/bedrock"
	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/gemini"
	"github.com/jcheng510/ai-erp-system-sub004/internal/adapters/openai"
	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

// AIFactory creates AI clients
type AIFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewAIFactory creates a new AI factory
func NewAIFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *AIFactory {
	return &AIFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateAIClient creates a new AI client based on the configuration. A
// disabled AI section yields a nil client; the classifiers fall back to
// pattern scoring.
func (f *AIFactory) CreateAIClient() (core.AIClient, error) {
	aiConfig := f.cfg.GetAI()
	if !aiConfig.Enabled {
		return nil, nil
	}

	switch aiConfig.Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient(context.Background())
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClient()
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", aiConfig.Provider)
	}
}
