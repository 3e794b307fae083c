package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
}

func (s *RepositorySuite) SetupTest() {
	db, err := Open("sqlite", ":memory:")
	s.Require().NoError(err)
	s.db = db
	s.ctx = context.Background()
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) TestOpenRejectsUnknownDriver() {
	_, err := Open("oracle", "dsn")
	s.Error(err)
	s.Contains(err.Error(), "unsupported database driver")
}

func (s *RepositorySuite) TestCreateMessageDuplicateProviderID() {
	repo := NewMessageRepository(s.db)

	first := &core.InboundMessage{ProviderMessageID: "gm-1", SenderEmail: "a@b.test"}
	s.Require().NoError(repo.CreateMessage(s.ctx, first))
	s.NotZero(first.ID)

	dup := &core.InboundMessage{ProviderMessageID: "gm-1", SenderEmail: "c@d.test"}
	err := repo.CreateMessage(s.ctx, dup)
	s.ErrorIs(err, core.ErrDuplicateMessage)
}

func (s *RepositorySuite) TestFindByProviderID() {
	repo := NewMessageRepository(s.db)
	msg := &core.InboundMessage{ProviderMessageID: "gm-1", Subject: "hello"}
	s.Require().NoError(repo.CreateMessage(s.ctx, msg))

	found, err := repo.FindByProviderID(s.ctx, "gm-1")
	s.Require().NoError(err)
	s.Equal(msg.ID, found.ID)
	s.Equal("hello", found.Subject)

	_, err = repo.FindByProviderID(s.ctx, "gm-2")
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestUpdateStatusRejectsRegressionToPending() {
	repo := NewMessageRepository(s.db)
	msg := &core.InboundMessage{ProviderMessageID: "gm-1"}
	s.Require().NoError(repo.CreateMessage(s.ctx, msg))

	s.NoError(repo.UpdateStatus(s.ctx, msg.ID, core.MessageStatusParsed))
	s.Error(repo.UpdateStatus(s.ctx, msg.ID, core.MessageStatusPending))
	s.ErrorIs(repo.UpdateStatus(s.ctx, 999, core.MessageStatusParsed), core.ErrNotFound)

	found, err := repo.FindByProviderID(s.ctx, "gm-1")
	s.Require().NoError(err)
	s.Equal(core.MessageStatusParsed, found.Status)
}

func (s *RepositorySuite) TestAttachmentsRoundTrip() {
	repo := NewMessageRepository(s.db)
	msg := &core.InboundMessage{ProviderMessageID: "gm-1"}
	s.Require().NoError(repo.CreateMessage(s.ctx, msg))

	att := &core.Attachment{
		MessageID:  msg.ID,
		Filename:   "inv.pdf",
		MimeType:   "application/pdf",
		SizeBytes:  42,
		StorageKey: "gm-1/inv.pdf",
	}
	s.Require().NoError(repo.CreateAttachment(s.ctx, att))

	atts, err := repo.ListAttachments(s.ctx, msg.ID)
	s.Require().NoError(err)
	s.Require().Len(atts, 1)
	s.False(atts[0].Processed)

	s.Require().NoError(repo.MarkAttachmentProcessed(s.ctx, att.ID))
	atts, err = repo.ListAttachments(s.ctx, msg.ID)
	s.Require().NoError(err)
	s.True(atts[0].Processed)
}

func (s *RepositorySuite) TestSaveClassificationSerializesSlices() {
	repo := NewMessageRepository(s.db)
	msg := &core.InboundMessage{ProviderMessageID: "gm-1"}
	s.Require().NoError(repo.CreateMessage(s.ctx, msg))

	cls := &core.MessageClassification{
		MessageID:       msg.ID,
		SenderEmail:     "a@b.test",
		Category:        core.CategoryLegitimate,
		Confidence:      0.9,
		Reasons:         []string{"trusted sender"},
		MatchedPatterns: []string{"domain:transactional"},
		ShouldProcess:   true,
	}
	s.NoError(repo.SaveClassification(s.ctx, cls))

	var stored core.MessageClassification
	s.Require().NoError(s.db.First(&stored, "message_id = ?", msg.ID).Error)
	s.Equal([]string{"trusted sender"}, stored.Reasons)
	s.Equal([]string{"domain:transactional"}, stored.MatchedPatterns)
}

func (s *RepositorySuite) TestListEnabledRulesOrdering() {
	repo := NewRuleRepository(s.db)
	rules := []core.FilingRule{
		{Name: "low", Priority: 10, Enabled: true},
		{Name: "high", Priority: 1, Enabled: true},
		{Name: "tie-second", Priority: 5, Enabled: true},
		{Name: "tie-first", Priority: 5, Enabled: true},
		{Name: "disabled", Priority: 0, Enabled: true},
	}
	for i := range rules {
		s.Require().NoError(s.db.Create(&rules[i]).Error)
	}
	s.Require().NoError(s.db.Model(&core.FilingRule{}).
		Where("name = ?", "disabled").Update("enabled", false).Error)

	listed, err := repo.ListEnabled(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 4)
	s.Equal("high", listed[0].Name)
	s.Equal("tie-second", listed[1].Name)
	s.Equal("tie-first", listed[2].Name)
	s.Equal("low", listed[3].Name)
}

func (s *RepositorySuite) TestIncrementUsage() {
	repo := NewRuleRepository(s.db)
	rule := core.FilingRule{Name: "r", Priority: 1, Enabled: true}
	s.Require().NoError(s.db.Create(&rule).Error)

	s.NoError(repo.IncrementUsage(s.ctx, rule.ID))
	s.NoError(repo.IncrementUsage(s.ctx, rule.ID))

	var stored core.FilingRule
	s.Require().NoError(s.db.First(&stored, rule.ID).Error)
	s.Equal(int64(2), stored.TimesUsed)
}

func (s *RepositorySuite) TestRuleConditionsRoundTrip() {
	repo := NewRuleRepository(s.db)
	rule := core.FilingRule{
		Name:               "invoices",
		Priority:           1,
		Enabled:            true,
		DocumentCategories: []core.DocumentCategory{core.DocInvoice, core.DocReceipt},
		VendorIDs:          []uint{3, 7},
		DestinationKind:    core.DestStructuredRepo,
		PathTemplate:       "/Invoices/{year}/",
	}
	s.Require().NoError(s.db.Create(&rule).Error)

	listed, err := repo.ListEnabled(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal([]core.DocumentCategory{core.DocInvoice, core.DocReceipt}, listed[0].DocumentCategories)
	s.Equal([]uint{3, 7}, listed[0].VendorIDs)
}

func (s *RepositorySuite) TestBlockSenderIsIdempotent() {
	repo := NewSenderListRepository(s.db)
	entry := &core.BlockedSender{
		Pattern:     "spammer@bad.test",
		PatternType: core.PatternExact,
		Reason:      "auto-blocked",
	}
	s.NoError(repo.BlockSender(s.ctx, entry))
	s.NoError(repo.BlockSender(s.ctx, &core.BlockedSender{
		Pattern:     "spammer@bad.test",
		PatternType: core.PatternExact,
	}))

	blocked, err := repo.ListBlocked(s.ctx)
	s.Require().NoError(err)
	s.Len(blocked, 1)
}

func (s *RepositorySuite) TestTrustedSenderVendorBinding() {
	repo := NewSenderListRepository(s.db)
	vendorID := uint(7)
	s.Require().NoError(s.db.Create(&core.TrustedSender{
		Pattern:     "acme.test",
		PatternType: core.PatternDomain,
		VendorID:    &vendorID,
	}).Error)

	trusted, err := repo.ListTrusted(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(trusted, 1)
	s.Require().NotNil(trusted[0].VendorID)
	s.Equal(uint(7), *trusted[0].VendorID)
}

func (s *RepositorySuite) TestVendorFindByDomain() {
	repo := NewVendorRepository(s.db)
	s.Require().NoError(s.db.Create(&core.Vendor{
		Name:         "Acme Industrial",
		EmailDomains: []string{"acme.test", "acme-billing.test"},
	}).Error)

	vendor, err := repo.FindByDomain(s.ctx, "ACME-Billing.Test")
	s.Require().NoError(err)
	s.Equal("Acme Industrial", vendor.Name)

	_, err = repo.FindByDomain(s.ctx, "other.test")
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestVendorFindByID() {
	repo := NewVendorRepository(s.db)
	vendor := core.Vendor{Name: "Acme"}
	s.Require().NoError(s.db.Create(&vendor).Error)

	found, err := repo.FindByID(s.ctx, vendor.ID)
	s.Require().NoError(err)
	s.Equal("Acme", found.Name)

	_, err = repo.FindByID(s.ctx, 999)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestStructuredFolderFindOrCreate() {
	repo := NewStructuredRepository(s.db)

	_, err := repo.FindFolder(s.ctx, "", "Invoices")
	s.ErrorIs(err, core.ErrNotFound)

	id, err := repo.CreateFolder(s.ctx, "", "Invoices")
	s.Require().NoError(err)
	s.NotEmpty(id)

	found, err := repo.FindFolder(s.ctx, "", "Invoices")
	s.Require().NoError(err)
	s.Equal(id, found.ID)

	// Same name under a different parent is a different folder.
	other, err := repo.CreateFolder(s.ctx, id, "Invoices")
	s.Require().NoError(err)
	s.NotEqual(id, other)

	// Same (parent, name) pair violates the unique index.
	_, err = repo.CreateFolder(s.ctx, "", "Invoices")
	s.Error(err)
	s.True(isDuplicateKeyError(err))
}

func (s *RepositorySuite) TestStructuredCreateDocument() {
	repo := NewStructuredRepository(s.db)
	folderID, err := repo.CreateFolder(s.ctx, "", "Invoices")
	s.Require().NoError(err)

	docID, err := repo.CreateDocument(s.ctx, folderID, core.DocumentMetadata{
		Title:          "inv.pdf",
		Category:       core.DocInvoice,
		StorageKey:     "gm-1/inv.pdf",
		MimeType:       "application/pdf",
		SizeBytes:      42,
		DocumentNumber: "INV-1001",
	})
	s.Require().NoError(err)
	s.NotEmpty(docID)

	var stored RepoDocument
	s.Require().NoError(s.db.First(&stored, "id = ?", docID).Error)
	s.Equal(folderID, stored.FolderID)
	s.Equal("INV-1001", stored.DocumentNumber)
}

func (s *RepositorySuite) TestFilingLifecycle() {
	repo := NewFilingRepository(s.db)
	filing := &core.AttachmentFiling{
		AttachmentID:    1,
		MessageID:       2,
		Category:        core.DocInvoice,
		Confidence:      0.9,
		DestinationKind: core.DestStructuredRepo,
		DestinationPath: "/Invoices/2026/",
		Status:          core.FilingStatusPending,
	}
	s.Require().NoError(repo.CreateFiling(s.ctx, filing))
	s.NotZero(filing.ID)

	filing.Status = core.FilingStatusFiled
	filing.RepoDocumentID = "doc-1"
	s.Require().NoError(repo.UpdateFiling(s.ctx, filing))

	listed, err := repo.ListByMessage(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(core.FilingStatusFiled, listed[0].Status)
	s.Equal("doc-1", listed[0].RepoDocumentID)

	listed, err = repo.ListByMessage(s.ctx, 99)
	s.Require().NoError(err)
	s.Empty(listed)
}
