package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestErrorEnvelope(t *testing.T) {
	c, rec := newContext()
	err := appErrors.Clone(appErrors.ErrInvalidRange, "")
	err.Field = "end"
	Error(c, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_RANGE", envelope.Error.Code)
	assert.Equal(t, "end", envelope.Error.Field)
	assert.Empty(t, c.Errors)
}

func TestErrorAttachesServerFailures(t *testing.T) {
	c, rec := newContext()
	Error(c, errors.New("nil pointer"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, c.Errors, 1)
}

func TestJSONWithMeta(t *testing.T) {
	c, rec := newContext()
	JSON(c, http.StatusOK, gin.H{"ok": true}, nil, map[string]interface{}{"cache_hit": true})

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestFileSetsDisposition(t *testing.T) {
	c, rec := newContext()
	File(c, &models.ExportFile{Filename: "calendar_20250101.pdf", ContentType: "application/pdf", Body: []byte("%PDF")})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="calendar_20250101.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", rec.Body.String())
}
