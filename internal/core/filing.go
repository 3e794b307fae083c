package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FilingExecutor performs the actual filing action against one of the
// destination kinds. Folder-path creation is idempotent: repeated calls with
// the same path converge to the same folder chain.
type FilingExecutor struct {
	repo        StructuredRepository
	blobs       BlobStore
	cloud       CloudFileStore
	filings     FilingRepository
	cloudFolder string
	logger      *zap.Logger
}

// NewFilingExecutor creates a filing executor. cloudFolder is the parent
// folder id for cloud file-store uploads; leave empty if the cloud path is
// not configured.
func NewFilingExecutor(
	repo StructuredRepository,
	blobs BlobStore,
	cloud CloudFileStore,
	filings FilingRepository,
	cloudFolder string,
	logger *zap.Logger,
) *FilingExecutor {
	return &FilingExecutor{
		repo:        repo,
		blobs:       blobs,
		cloud:       cloud,
		filings:     filings,
		cloudFolder: cloudFolder,
		logger:      logger,
	}
}

// Execute files one attachment to its resolved destination and records the
// outcome on the filing record. A missing precondition leaves the filing
// pending with an explanatory note instead of failing it.
func (e *FilingExecutor) Execute(ctx context.Context, filing *AttachmentFiling, att *Attachment, credential string) *FilingResult {
	result := &FilingResult{
		DestinationKind: filing.DestinationKind,
		DestinationPath: filing.DestinationPath,
		Category:        filing.Category,
		FilingID:        filing.ID,
	}

	if filing.DestinationKind == DestPending {
		// Routing left for a manual action; nothing to execute.
		return result
	}

	filing.Status = FilingStatusProcessing
	if err := e.filings.UpdateFiling(ctx, filing); err != nil {
		e.logger.Warn("failed to mark filing processing", zap.Error(err))
	}

	var err error
	switch filing.DestinationKind {
	case DestStructuredRepo, DestVendorFolder, DestCustoms:
		err = e.fileToRepository(ctx, filing, att)
	case DestCloudFileStore:
		err = e.fileToCloud(ctx, filing, att, credential)
	default:
		err = fmt.Errorf("unsupported destination kind %q", filing.DestinationKind)
	}

	if errors.Is(err, errMissingPrecondition) {
		filing.Status = FilingStatusPending
		if uerr := e.filings.UpdateFiling(ctx, filing); uerr != nil {
			e.logger.Warn("failed to update filing", zap.Error(uerr))
		}
		result.Error = filing.ErrorText
		return result
	}
	if err != nil {
		filing.Status = FilingStatusFailed
		filing.ErrorText = err.Error()
		if uerr := e.filings.UpdateFiling(ctx, filing); uerr != nil {
			e.logger.Warn("failed to update filing", zap.Error(uerr))
		}
		result.Error = err.Error()
		return result
	}

	filing.Status = FilingStatusFiled
	filing.ErrorText = ""
	if uerr := e.filings.UpdateFiling(ctx, filing); uerr != nil {
		e.logger.Warn("failed to update filing", zap.Error(uerr))
	}
	result.Success = true
	return result
}

// errMissingPrecondition marks a filing that cannot run yet (no destination
// folder, no credential). The filing stays pending for manual completion.
var errMissingPrecondition = errors.New("filing precondition missing")

func (e *FilingExecutor) fileToRepository(ctx context.Context, filing *AttachmentFiling, att *Attachment) error {
	if e.repo == nil {
		filing.ErrorText = "structured repository not configured; left pending"
		return errMissingPrecondition
	}

	folderID, err := e.ensureFolderPath(ctx, filing.DestinationPath)
	if err != nil {
		return fmt.Errorf("ensure folder path %q: %w", filing.DestinationPath, err)
	}

	docID, err := e.repo.CreateDocument(ctx, folderID, DocumentMetadata{
		Title:          att.Filename,
		Category:       filing.Category,
		StorageKey:     att.StorageKey,
		MimeType:       att.MimeType,
		SizeBytes:      att.SizeBytes,
		DocumentNumber: filing.DocumentNumber,
	})
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	filing.RepoDocumentID = docID
	e.logger.Info("filed to structured repository",
		zap.String("path", filing.DestinationPath),
		zap.String("document_id", docID))
	return nil
}

func (e *FilingExecutor) fileToCloud(ctx context.Context, filing *AttachmentFiling, att *Attachment, credential string) error {
	if e.cloud == nil || credential == "" {
		filing.ErrorText = "cloud credential not provided; left pending"
		return errMissingPrecondition
	}
	if e.cloudFolder == "" {
		filing.ErrorText = "cloud destination folder not configured; left pending"
		return errMissingPrecondition
	}

	data, err := e.blobs.Get(att.StorageKey)
	if err != nil {
		return fmt.Errorf("fetch attachment bytes: %w", err)
	}

	uploaded, err := e.cloud.Upload(ctx, UploadRequest{
		FolderID:    e.cloudFolder,
		Filename:    att.Filename,
		MimeType:    att.MimeType,
		Data:        data,
		AccessToken: credential,
	})
	if err != nil {
		return fmt.Errorf("upload to cloud store: %w", err)
	}

	filing.CloudFileID = uploaded.FileID
	e.logger.Info("filed to cloud store",
		zap.String("filename", att.Filename),
		zap.String("file_id", uploaded.FileID))
	return nil
}

// ensureFolderPath folds over the path segments, finding or creating each
// in order. A create that loses a race to a concurrent creator is resolved
// by a follow-up find.
func (e *FilingExecutor) ensureFolderPath(ctx context.Context, path string) (string, error) {
	parentID := ""
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		folder, err := e.repo.FindFolder(ctx, parentID, segment)
		if err == nil {
			parentID = folder.ID
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("find folder %q: %w", segment, err)
		}

		created, err := e.repo.CreateFolder(ctx, parentID, segment)
		if err != nil {
			// Concurrent creator may have won; look the segment up again.
			folder, findErr := e.repo.FindFolder(ctx, parentID, segment)
			if findErr != nil {
				return "", fmt.Errorf("create folder %q: %w", segment, err)
			}
			parentID = folder.ID
			continue
		}
		parentID = created
	}
	return parentID, nil
}
