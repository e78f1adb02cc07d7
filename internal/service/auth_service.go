package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type authAccountRepository interface {
	Login(ctx context.Context, email, password string) (*models.UpstreamAuth, error)
	Register(ctx context.Context, fullName, email, password string) (*models.UpstreamAuth, error)
	Logout(ctx context.Context, token string) error
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type collectionDropper interface {
	Drop(userID string)
}

type structValidator interface {
	Struct(payload interface{}) error
}

// AuthConfig defines configuration for gateway sessions.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService signs users in against the backend and manages the gateway session that holds
// the backend credential. There is no global signed-in flag; every request carries its session.
type AuthService struct {
	accounts    authAccountRepository
	sessions    sessionStore
	collections collectionDropper
	validator   structValidator
	logger      *zap.Logger
	config      AuthConfig
	now         func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(accounts authAccountRepository, sessions sessionStore, collections collectionDropper, validate structValidator, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Expiry <= 0 {
		config.Expiry = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "dunzo-api"
	}
	return &AuthService{
		accounts:    accounts,
		sessions:    sessions,
		collections: collections,
		validator:   validate,
		logger:      logger,
		config:      config,
		now:         time.Now,
	}
}

// Login authenticates against the backend and opens a session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	auth, err := s.accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnauthorized) || errors.Is(err, appErrors.ErrUpstreamRejected) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, err
	}
	return s.open(ctx, auth, req.IP, req.UserAgent)
}

// Register creates the account on the backend and opens a session.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	auth, err := s.accounts.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if auth.User.FullName == "" {
		auth.User.FullName = req.FullName
	}
	return s.open(ctx, auth, req.IP, req.UserAgent)
}

// Logout ends the session, tells the backend and forgets the user's calendar collection.
// Backend failures are logged; the local session is dropped regardless.
func (s *AuthService) Logout(ctx context.Context, auth *models.AuthContext) error {
	if auth == nil || auth.Session == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.accounts.Logout(ctx, auth.UpstreamToken()); err != nil {
		s.logger.Warn("backend logout failed", zap.String("user_id", auth.UserID()), zap.Error(err))
	}
	if err := s.sessions.Delete(ctx, auth.Session.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}
	if s.collections != nil {
		s.collections.Drop(auth.UserID())
	}
	s.logger.Info("session closed", zap.String("user_id", auth.UserID()), zap.String("session_id", auth.Session.ID))
	return nil
}

// ValidateToken parses and verifies a gateway token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.AuthContext, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.User.ID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session does not match token")
	}
	return &models.AuthContext{Claims: claims, Session: session}, nil
}

func (s *AuthService) open(ctx context.Context, auth *models.UpstreamAuth, ip, userAgent string) (*models.LoginResponse, error) {
	if auth == nil || strings.TrimSpace(auth.Token) == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstreamRejected, "backend issued no credential")
	}
	user := auth.User
	if user.ID == "" {
		// The backend omits ids on some deployments; the email is stable per account.
		user.ID = user.Email
	}

	issuedAt := s.now().UTC()
	session := &models.Session{
		ID:            uuid.NewString(),
		User:          user,
		UpstreamToken: auth.Token,
		CreatedAt:     issuedAt,
		ExpiresAt:     issuedAt.Add(s.config.Expiry),
		IPAddress:     ip,
		UserAgent:     userAgent,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	signed, err := s.sign(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.logger.Info("session opened", zap.String("user_id", user.ID), zap.String("session_id", session.ID))

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.Expiry.Seconds()),
		User:        user,
		IssuedAt:    issuedAt,
	}, nil
}

func (s *AuthService) sign(session *models.Session) (string, error) {
	claims := &models.JWTClaims{
		SessionID: session.ID,
		UserID:    session.User.ID,
		Email:     session.User.Email,
		FullName:  session.User.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.User.ID,
			ID:        session.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			NotBefore: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}
