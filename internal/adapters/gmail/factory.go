package gmail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/config"
)

// Factory creates Gmail mailbox clients.
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Gmail mailbox clients.
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateClient creates an authenticated Gmail mailbox client from
// configuration.
func (f *Factory) CreateClient(ctx context.Context) (*Client, error) {
	gmailCfg := f.cfg.GetGmail()

	svc, err := LoadService(ctx, gmailCfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate Gmail service: %w", err)
	}

	return NewClient(svc, gmailCfg.User, f.logger), nil
}
