package gemini

import (
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
	"github.com/jcheng510/ai-erp-system-sub004/internal/utils"
)

// Factory creates Gemini-backed AI clients.
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for Gemini AI clients.
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClient creates a new Gemini AI client from configuration.
func (f *Factory) CreateClient() (*Client, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		geminiCfg.MaxBodySize,
		f.logger,
		f.textProcessor,
	)
}
