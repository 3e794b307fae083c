// Package drive implements the cloud file-store port using Google Drive.
package drive

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gd "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jcheng510/ai-erp-system-sub004/internal/core"
)

// Store is an implementation of the core.CloudFileStore interface backed by
// Google Drive. Uploads carry a per-request access token, so one store
// instance serves every connected account.
type Store struct {
	logger *zap.Logger
}

// NewStore creates a new Drive file store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// Upload creates a file in the target Drive folder and returns its id and
// web link.
func (s *Store) Upload(ctx context.Context, req core.UploadRequest) (*core.UploadResult, error) {
	if req.AccessToken == "" {
		return nil, fmt.Errorf("drive upload requires an access token")
	}

	svc, err := s.service(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}

	meta := &gd.File{
		Name:     req.Filename,
		MimeType: req.MimeType,
	}
	if req.FolderID != "" {
		meta.Parents = []string{req.FolderID}
	}

	file, err := svc.Files.Create(meta).
		Media(bytes.NewReader(req.Data), googleapi.ContentType(req.MimeType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload %s: %w", req.Filename, err)
	}

	s.logger.Debug("uploaded file to Drive",
		zap.String("filename", req.Filename),
		zap.String("file_id", file.Id))

	return &core.UploadResult{
		FileID: file.Id,
		Link:   file.WebViewLink,
	}, nil
}

func (s *Store) service(ctx context.Context, accessToken string) (*gd.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gd.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}
