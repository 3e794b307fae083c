package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// In-memory port implementations shared by the pipeline tests.

type fakeSenderLists struct {
	blocked   []BlockedSender
	trusted   []TrustedSender
	blockErr  error
	newBlocks []BlockedSender
}

func (f *fakeSenderLists) ListBlocked(ctx context.Context) ([]BlockedSender, error) {
	return f.blocked, nil
}

func (f *fakeSenderLists) ListTrusted(ctx context.Context) ([]TrustedSender, error) {
	return f.trusted, nil
}

func (f *fakeSenderLists) BlockSender(ctx context.Context, entry *BlockedSender) error {
	if f.blockErr != nil {
		return f.blockErr
	}
	f.newBlocks = append(f.newBlocks, *entry)
	f.blocked = append(f.blocked, *entry)
	return nil
}

type fakeVendors struct {
	byDomain map[string]*Vendor
	byID     map[uint]*Vendor
}

func (f *fakeVendors) FindByDomain(ctx context.Context, domain string) (*Vendor, error) {
	if v, ok := f.byDomain[domain]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

func (f *fakeVendors) FindByID(ctx context.Context, id uint) (*Vendor, error) {
	if v, ok := f.byID[id]; ok {
		return v, nil
	}
	return nil, ErrNotFound
}

type fakeAI struct {
	msgResult *AIMessageResult
	msgErr    error
	docResult *AIDocumentResult
	docErr    error
	msgCalls  int
	docCalls  int
}

func (f *fakeAI) ClassifyMessage(ctx context.Context, msg *MailMessage) (*AIMessageResult, error) {
	f.msgCalls++
	return f.msgResult, f.msgErr
}

func (f *fakeAI) ClassifyDocument(ctx context.Context, input DocumentInput) (*AIDocumentResult, error) {
	f.docCalls++
	return f.docResult, f.docErr
}

type fakeCache struct {
	entries map[string]*CachedClassification
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*CachedClassification)}
}

func (f *fakeCache) Get(ctx context.Context, senderEmail string) (*CachedClassification, error) {
	if e, ok := f.entries[senderEmail]; ok {
		return e, nil
	}
	return nil, ErrNotFound
}

func (f *fakeCache) Set(ctx context.Context, entry *CachedClassification, ttl time.Duration) error {
	stored := *entry
	stored.ExpiresAt = time.Now().Add(ttl)
	f.entries[entry.SenderEmail] = &stored
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, senderEmail string) error {
	delete(f.entries, senderEmail)
	return nil
}

func (f *fakeCache) Cleanup(ctx context.Context) error { return nil }

type fakeMessages struct {
	nextID      uint
	messages    map[uint]*InboundMessage
	byProvider  map[string]*InboundMessage
	attachments map[uint][]Attachment
	classes     []MessageClassification
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{
		messages:    make(map[uint]*InboundMessage),
		byProvider:  make(map[string]*InboundMessage),
		attachments: make(map[uint][]Attachment),
	}
}

func (f *fakeMessages) CreateMessage(ctx context.Context, msg *InboundMessage) error {
	if _, ok := f.byProvider[msg.ProviderMessageID]; ok {
		return ErrDuplicateMessage
	}
	f.nextID++
	msg.ID = f.nextID
	f.messages[msg.ID] = msg
	f.byProvider[msg.ProviderMessageID] = msg
	return nil
}

func (f *fakeMessages) FindByProviderID(ctx context.Context, providerID string) (*InboundMessage, error) {
	if m, ok := f.byProvider[providerID]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

func (f *fakeMessages) UpdateStatus(ctx context.Context, id uint, status MessageStatus) error {
	m, ok := f.messages[id]
	if !ok {
		return ErrNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeMessages) UpdateCategory(ctx context.Context, id uint, category MessageCategory) error {
	m, ok := f.messages[id]
	if !ok {
		return ErrNotFound
	}
	m.Category = category
	return nil
}

func (f *fakeMessages) CreateAttachment(ctx context.Context, att *Attachment) error {
	f.nextID++
	att.ID = f.nextID
	f.attachments[att.MessageID] = append(f.attachments[att.MessageID], *att)
	return nil
}

func (f *fakeMessages) ListAttachments(ctx context.Context, messageID uint) ([]Attachment, error) {
	return f.attachments[messageID], nil
}

func (f *fakeMessages) MarkAttachmentProcessed(ctx context.Context, id uint) error {
	for msgID, atts := range f.attachments {
		for i := range atts {
			if atts[i].ID == id {
				f.attachments[msgID][i].Processed = true
				return nil
			}
		}
	}
	return ErrNotFound
}

func (f *fakeMessages) SaveClassification(ctx context.Context, cls *MessageClassification) error {
	f.classes = append(f.classes, *cls)
	return nil
}

type fakeFilings struct {
	nextID  uint
	filings map[uint]*AttachmentFiling
}

func newFakeFilings() *fakeFilings {
	return &fakeFilings{filings: make(map[uint]*AttachmentFiling)}
}

func (f *fakeFilings) CreateFiling(ctx context.Context, filing *AttachmentFiling) error {
	f.nextID++
	filing.ID = f.nextID
	stored := *filing
	f.filings[filing.ID] = &stored
	return nil
}

func (f *fakeFilings) UpdateFiling(ctx context.Context, filing *AttachmentFiling) error {
	if _, ok := f.filings[filing.ID]; !ok {
		return ErrNotFound
	}
	stored := *filing
	f.filings[filing.ID] = &stored
	return nil
}

func (f *fakeFilings) ListByMessage(ctx context.Context, messageID uint) ([]AttachmentFiling, error) {
	var out []AttachmentFiling
	for _, filing := range f.filings {
		if filing.MessageID == messageID {
			out = append(out, *filing)
		}
	}
	return out, nil
}

type fakeRules struct {
	rules []FilingRule
	used  map[uint]int
}

func (f *fakeRules) ListEnabled(ctx context.Context) ([]FilingRule, error) {
	return f.rules, nil
}

func (f *fakeRules) IncrementUsage(ctx context.Context, id uint) error {
	if f.used == nil {
		f.used = make(map[uint]int)
	}
	f.used[id]++
	return nil
}

type fakeStructuredRepo struct {
	nextID      int
	folders     map[string]string // parentID + "/" + name -> folder id
	documents   []DocumentMetadata
	folderDirs  map[string]string // folder id -> name
	createCalls int
	failCreate  bool // simulate losing the creation race once
}

func newFakeStructuredRepo() *fakeStructuredRepo {
	return &fakeStructuredRepo{
		folders:    make(map[string]string),
		folderDirs: make(map[string]string),
	}
}

func (f *fakeStructuredRepo) key(parentID, name string) string {
	return parentID + "/" + name
}

func (f *fakeStructuredRepo) FindFolder(ctx context.Context, parentID, name string) (*Folder, error) {
	if id, ok := f.folders[f.key(parentID, name)]; ok {
		return &Folder{ID: id, Name: name}, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStructuredRepo) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	f.createCalls++
	if f.failCreate {
		// Another creator won the race; the folder now exists.
		f.failCreate = false
		f.nextID++
		id := fmt.Sprintf("f%d", f.nextID)
		f.folders[f.key(parentID, name)] = id
		f.folderDirs[id] = name
		return "", errors.New("unique constraint violated")
	}
	f.nextID++
	id := fmt.Sprintf("f%d", f.nextID)
	f.folders[f.key(parentID, name)] = id
	f.folderDirs[id] = name
	return id, nil
}

func (f *fakeStructuredRepo) CreateDocument(ctx context.Context, folderID string, meta DocumentMetadata) (string, error) {
	f.documents = append(f.documents, meta)
	return fmt.Sprintf("d%d", len(f.documents)), nil
}

type fakeBlobStore struct {
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(key string, data []byte, mimeType string) (string, error) {
	f.blobs[key] = data
	return key, nil
}

func (f *fakeBlobStore) Get(key string) ([]byte, error) {
	if data, ok := f.blobs[key]; ok {
		return data, nil
	}
	return nil, ErrNotFound
}

type fakeCloudStore struct {
	uploads []UploadRequest
	err     error
}

func (f *fakeCloudStore) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads = append(f.uploads, req)
	return &UploadResult{FileID: fmt.Sprintf("cloud-%d", len(f.uploads))}, nil
}

type fakeMailbox struct {
	ids         []string
	messages    map[string]*MailMessage
	attachments map[string][]byte // attachment id -> bytes
	getCalls    int
	listErr     error
}

func (f *fakeMailbox) ListMessages(ctx context.Context, query string, maxResults int64) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeMailbox) GetMessage(ctx context.Context, id string) (*MailMessage, error) {
	f.getCalls++
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, ErrNotFound
}

func (f *fakeMailbox) DownloadAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if data, ok := f.attachments[attachmentID]; ok {
		return data, nil
	}
	return nil, ErrNotFound
}
