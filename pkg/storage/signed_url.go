package storage

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadClaims describe one stored file a link grants access to.
type DownloadClaims struct {
	Filename    string `json:"fn"`
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

// FileID returns the storage name carried in the subject.
func (c *DownloadClaims) FileID() string {
	return c.Subject
}

// SignedURLSigner issues and validates short-lived download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. ttl <= 0 defaults to 15 minutes.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token for fileID and its expiry.
func (s *SignedURLSigner) Generate(fileID, filename, contentType string) (string, time.Time, error) {
	if fileID == "" || filename == "" {
		return "", time.Time{}, fmt.Errorf("file id and filename required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := DownloadClaims{
		Filename:    filename,
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fileID,
			Audience:  jwt.ClaimStrings{"download"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Parse validates a token. When allowExpired is true the expiry check is skipped.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*DownloadClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience("download"),
		jwt.WithTimeFunc(s.now),
	}
	if allowExpired {
		options = append(options, jwt.WithoutClaimsValidation())
	}
	claims := &DownloadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("invalid download token: %w", err)
	}
	if claims.FileID() == "" {
		return nil, fmt.Errorf("invalid download token: missing file")
	}
	return claims, nil
}
