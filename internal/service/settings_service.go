package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type settingsRepository interface {
	Settings(ctx context.Context, token string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, token string, input models.UpdateSettingsRequest) (*models.UserSettings, error)
}

// SettingsService reads and updates account settings.
type SettingsService struct {
	repo      settingsRepository
	validator structValidator
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo settingsRepository, validate structValidator, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the caller's settings, filling gaps from the session.
func (s *SettingsService) Get(ctx context.Context, auth *models.AuthContext) (*models.UserSettings, error) {
	settings, err := s.repo.Settings(ctx, auth.UpstreamToken())
	if err != nil {
		return nil, err
	}
	fillFromSession(settings, auth)
	return settings, nil
}

// Update applies non-empty fields. An update with no fields is rejected.
func (s *SettingsService) Update(ctx context.Context, auth *models.AuthContext, input models.UpdateSettingsRequest) (*models.UserSettings, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	if input.FullName == "" && input.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}
	settings, err := s.repo.UpdateSettings(ctx, auth.UpstreamToken(), input)
	if err != nil {
		return nil, err
	}
	fillFromSession(settings, auth)
	return settings, nil
}

func fillFromSession(settings *models.UserSettings, auth *models.AuthContext) {
	if auth == nil || auth.Session == nil {
		return
	}
	if settings.ID == "" {
		settings.ID = auth.Session.User.ID
	}
	if settings.FullName == "" {
		settings.FullName = auth.Session.User.FullName
	}
	if settings.Email == "" {
		settings.Email = auth.Session.User.Email
	}
}
