package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/storage"
)

type calendarExporter interface {
	Export(ctx context.Context, auth *models.AuthContext, format models.ExportFormat) (*models.ExportFile, error)
}

type exportStore interface {
	Save(name string, data []byte) error
	Read(name string) ([]byte, error)
	CleanupOlderThan(now time.Time, ttl time.Duration) ([]string, error)
}

type linkSigner interface {
	Generate(fileID, filename, contentType string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (*storage.DownloadClaims, error)
	TTL() time.Duration
}

// ExportLinkService renders a calendar export once and hands out a signed link to it, so the
// file can be fetched without a bearer token, e.g. by a calendar app.
type ExportLinkService struct {
	exporter calendarExporter
	store    exportStore
	signer   linkSigner
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportLinkService constructs the service.
func NewExportLinkService(exporter calendarExporter, store exportStore, signer linkSigner, logger *zap.Logger) *ExportLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportLinkService{exporter: exporter, store: store, signer: signer, logger: logger, now: time.Now}
}

// Create renders the caller's calendar in format and returns a link to it. downloadPrefix is
// prepended to the token to form DownloadPath.
func (s *ExportLinkService) Create(ctx context.Context, auth *models.AuthContext, format models.ExportFormat, downloadPrefix string) (*models.ExportLink, error) {
	if format == "" {
		format = models.ExportFormatICS
	}
	file, err := s.exporter.Export(ctx, auth, format)
	if err != nil {
		return nil, err
	}
	fileID := uuid.NewString()
	if err := s.store.Save(fileID, file.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(fileID, file.Filename, file.ContentType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("export link issued", zap.String("user_id", auth.UserID()), zap.String("file_id", fileID), zap.String("format", string(format)))
	return &models.ExportLink{
		Token:        token,
		DownloadPath: downloadPrefix + token,
		Filename:     file.Filename,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open resolves a link token to its file. Invalid or expired tokens are Unauthorized; files
// already cleaned up are NotFound.
func (s *ExportLinkService) Open(token string) (*models.ExportFile, error) {
	claims, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "download link invalid or expired")
	}
	body, err := s.store.Read(claims.FileID())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}
	return &models.ExportFile{Filename: claims.Filename, ContentType: claims.ContentType, Body: body}, nil
}

// Cleanup removes stored exports whose links have expired.
func (s *ExportLinkService) Cleanup(context.Context) error {
	deleted, err := s.store.CleanupOlderThan(s.now(), s.signer.TTL())
	if err != nil {
		return err
	}
	if len(deleted) > 0 {
		s.logger.Info("removed expired exports", zap.Int("count", len(deleted)))
	}
	return nil
}
