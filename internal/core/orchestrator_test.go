package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orchestratorFixture struct {
	orch     *AttachmentOrchestrator
	messages *fakeMessages
	filings  *fakeFilings
	repo     *fakeStructuredRepo
	rules    *fakeRules
	ai       *fakeAI
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	logger := zap.NewNop()
	messages := newFakeMessages()
	filings := newFakeFilings()
	repo := newFakeStructuredRepo()
	blobs := newFakeBlobStore()
	rules := &fakeRules{rules: []FilingRule{{
		ID: 1, Name: "default", Priority: 1,
		DestinationKind: DestStructuredRepo,
		PathTemplate:    "/{type}/{year}/",
	}}}
	ai := &fakeAI{}
	spam := NewSpamClassifier(&fakeSenderLists{}, &fakeVendors{}, nil, nil, logger, time.Hour, 0.9)
	docs := NewDocumentClassifier(ai, logger)
	matcher := NewRuleMatcher(rules, logger)
	executor := NewFilingExecutor(repo, blobs, &fakeCloudStore{}, filings, "", logger)

	return &orchestratorFixture{
		orch: NewAttachmentOrchestrator(spam, docs, matcher, executor,
			&fakeVendors{}, messages, filings, logger, false),
		messages: messages,
		filings:  filings,
		repo:     repo,
		rules:    rules,
		ai:       ai,
	}
}

func (fx *orchestratorFixture) storeMessage(t *testing.T, atts ...Attachment) *InboundMessage {
	t.Helper()
	msg := &InboundMessage{
		ProviderMessageID: "m-1",
		SenderEmail:       "billing@acme.test",
		Subject:           "Invoice INV-1001",
		BodyText:          "Please find invoice INV-1001 attached. Amount due: 4,200 USD",
		Status:            MessageStatusPending,
	}
	require.NoError(t, fx.messages.CreateMessage(context.Background(), msg))
	for i := range atts {
		atts[i].MessageID = msg.ID
		require.NoError(t, fx.messages.CreateAttachment(context.Background(), &atts[i]))
	}
	return msg
}

func legitimateClassification(msgID uint) *MessageClassification {
	return &MessageClassification{
		MessageID:     msgID,
		Category:      CategoryLegitimate,
		Confidence:    0.9,
		ShouldProcess: true,
	}
}

func TestProcessMessageFiltersSpam(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t)
	cls := &MessageClassification{
		MessageID:     msg.ID,
		Category:      CategorySpam,
		Confidence:    0.85,
		ShouldProcess: false,
	}

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil, cls,
		ScanOptions{FilterSpam: true})

	require.NoError(t, err)
	assert.True(t, result.Filtered)
	assert.Contains(t, result.FilterReason, "spam")
	assert.Equal(t, MessageStatusArchived, fx.messages.messages[msg.ID].Status)
	assert.Equal(t, CategorySpam, fx.messages.messages[msg.ID].Category)
}

func TestProcessMessageKeepsSolicitationWhenToggleOff(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t, Attachment{Filename: "inv.pdf", MimeType: "application/pdf"})
	cls := &MessageClassification{
		MessageID:     msg.ID,
		Category:      CategorySolicitation,
		Confidence:    0.7,
		ShouldProcess: false,
	}

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil, cls,
		ScanOptions{FilterSpam: true, FilterSolicitations: false})

	require.NoError(t, err)
	assert.False(t, result.Filtered)
	assert.Equal(t, 1, result.AttachmentsProcessed)
}

func TestProcessMessageShouldProcessOverridesFilters(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t)
	cls := &MessageClassification{
		MessageID:     msg.ID,
		Category:      CategoryNewsletter,
		Confidence:    0.6,
		ShouldProcess: true,
	}

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil, cls,
		ScanOptions{FilterSpam: true, FilterSolicitations: true})

	require.NoError(t, err)
	assert.False(t, result.Filtered)
}

func TestProcessMessageSkipsUnsupportedMimeTypes(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t,
		Attachment{Filename: "inv.pdf", MimeType: "application/pdf"},
		Attachment{Filename: "setup.exe", MimeType: "application/x-msdownload"},
	)

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil,
		legitimateClassification(msg.ID), ScanOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.AttachmentsProcessed)
	assert.Equal(t, 1, result.AttachmentsSkipped)
	assert.Zero(t, result.AttachmentsFailed)
}

func TestProcessMessageWithoutAutoFileLeavesFilingPending(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t, Attachment{Filename: "inv.pdf", MimeType: "application/pdf"})

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil,
		legitimateClassification(msg.ID), ScanOptions{AutoFile: false})

	require.NoError(t, err)
	assert.Equal(t, 1, result.AttachmentsProcessed)
	assert.Zero(t, result.AttachmentsFiled)
	require.Len(t, result.Filings, 1)
	assert.False(t, result.Filings[0].Success)
	assert.Equal(t, DocInvoice, result.Filings[0].Category)

	filing := fx.filings.filings[result.Filings[0].FilingID]
	require.NotNil(t, filing)
	assert.Equal(t, FilingStatusPending, filing.Status)
	assert.Zero(t, fx.repo.createCalls)
	assert.True(t, fx.messages.attachments[msg.ID][0].Processed)
}

func TestProcessMessageWithAutoFileFiles(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t, Attachment{Filename: "inv.pdf", MimeType: "application/pdf", StorageKey: "m-1/inv.pdf"})

	result, err := fx.orch.ProcessMessage(context.Background(), msg, nil,
		legitimateClassification(msg.ID), ScanOptions{AutoFile: true})

	require.NoError(t, err)
	assert.Equal(t, 1, result.AttachmentsFiled)
	require.Len(t, result.Filings, 1)
	assert.True(t, result.Filings[0].Success)
	filing := fx.filings.filings[result.Filings[0].FilingID]
	assert.Equal(t, FilingStatusFiled, filing.Status)
	require.Len(t, fx.repo.documents, 1)
	assert.Equal(t, "inv.pdf", fx.repo.documents[0].Title)
	assert.Equal(t, 1, fx.rules.used[1])
}

func TestProcessMessageClassifiesWhenNoClassificationGiven(t *testing.T) {
	fx := newOrchestratorFixture(t)
	msg := fx.storeMessage(t)
	mail := &MailMessage{
		ProviderID:  "m-1",
		SenderEmail: msg.SenderEmail,
		Subject:     msg.Subject,
		BodyText:    msg.BodyText,
	}

	result, err := fx.orch.ProcessMessage(context.Background(), msg, mail, nil, ScanOptions{})

	require.NoError(t, err)
	assert.False(t, result.Filtered)
	require.Len(t, fx.messages.classes, 1)
	assert.Equal(t, msg.ID, fx.messages.classes[0].MessageID)
}
