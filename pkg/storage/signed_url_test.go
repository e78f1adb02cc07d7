package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("file-1", "calendar_20250101.ics", "text/calendar")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	claims, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "file-1", claims.FileID())
	require.Equal(t, "calendar_20250101.ics", claims.Filename)
	require.Equal(t, "text/calendar", claims.ContentType)
	require.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Minute)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("file-1", "calendar.csv", "text/csv")
	require.NoError(t, err)

	signer.now = time.Now
	_, err = signer.Parse(token, false)
	require.Error(t, err)

	claims, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "file-1", claims.FileID())
}

func TestSignedURLSignerRejectsForeignSecret(t *testing.T) {
	token, _, err := NewSignedURLSigner("one", time.Hour).Generate("file-1", "a.ics", "text/calendar")
	require.NoError(t, err)
	_, err = NewSignedURLSigner("two", time.Hour).Parse(token, false)
	require.Error(t, err)
}
