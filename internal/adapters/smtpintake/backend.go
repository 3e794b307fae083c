package smtpintake

import (
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// Server limits
const (
	defaultMaxMessageBytes = 30 * 1024 * 1024
	defaultMaxRecipients   = 50
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 30 * time.Second
)

// Backend implements the go-smtp Backend interface on top of the intake
// pipeline.
type Backend struct {
	spam         *core.SpamClassifier
	orchestrator *core.AttachmentOrchestrator
	messages     core.MessageRepository
	blobs        core.BlobStore
	opts         core.ScanOptions
	logger       *zap.Logger
}

// NewBackend creates a new SMTP intake backend. opts carries the same
// processing switches the mailbox scanner honors.
func NewBackend(
	spam *core.SpamClassifier,
	orchestrator *core.AttachmentOrchestrator,
	messages core.MessageRepository,
	blobs core.BlobStore,
	opts core.ScanOptions,
	logger *zap.Logger,
) *Backend {
	return &Backend{
		spam:         spam,
		orchestrator: orchestrator,
		messages:     messages,
		blobs:        blobs,
		opts:         opts,
		logger:       logger,
	}
}

// NewSession creates a new SMTP session.
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	b.logger.Debug("new SMTP connection", zap.String("remote_addr", c.Conn().RemoteAddr().String()))
	return newSession(b), nil
}

// Intake is a running SMTP intake server.
type Intake struct {
	server *smtp.Server
	logger *zap.Logger
}

// NewIntake builds an SMTP server around the backend.
func NewIntake(backend *Backend, addr, domain string, logger *zap.Logger) *Intake {
	server := smtp.NewServer(backend)
	server.Addr = addr
	server.Domain = domain
	if server.Domain == "" {
		server.Domain = "localhost"
	}
	server.ReadTimeout = defaultReadTimeout
	server.WriteTimeout = defaultWriteTimeout
	server.MaxMessageBytes = defaultMaxMessageBytes
	server.MaxRecipients = defaultMaxRecipients
	server.AllowInsecureAuth = true

	return &Intake{server: server, logger: logger}
}

// Start serves SMTP in a background goroutine.
func (i *Intake) Start() {
	i.logger.Info("SMTP intake starting", zap.String("address", i.server.Addr))
	go func() {
		if err := i.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			i.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
}

// Stop closes the listener.
func (i *Intake) Stop() error {
	return i.server.Close()
}
