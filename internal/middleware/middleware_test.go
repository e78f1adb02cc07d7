package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/dunzo-api/internal/models"
	"github.com/noah-isme/dunzo-api/internal/service"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
)

type stubAuthenticator struct {
	tokens map[string]*models.AuthContext
}

func (s stubAuthenticator) Authenticate(ctx context.Context, token string) (*models.AuthContext, error) {
	if authCtx, ok := s.tokens[token]; ok {
		return authCtx, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
}

func newRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta("Asia/Manila"))
	r.GET("/me", JWT(auth), func(c *gin.Context) {
		authCtx := AuthFromContext(c)
		SetCacheHit(c, false)
		c.JSON(http.StatusOK, gin.H{"user": authCtx.UserID(), "meta": ExtractMeta(c)})
	})
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := newRouter(stubAuthenticator{})
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer unknown"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTAttachesSession(t *testing.T) {
	authCtx := &models.AuthContext{Claims: &models.JWTClaims{UserID: "u1"}, Session: &models.Session{ID: "s1"}}
	r := newRouter(stubAuthenticator{tokens: map[string]*models.AuthContext{"good": authCtx}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User string                 `json:"user"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u1", body.User)
	assert.Equal(t, "Asia/Manila", body.Meta["timezone"])
	assert.Equal(t, false, body.Meta["cache_hit"])
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestAuditLogsSuccessfulWritesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextAuthKey, &models.AuthContext{Claims: &models.JWTClaims{UserID: "u1"}})
	})
	r.PUT("/projects/:id", Audit(zap.New(core), "update", "project"), func(c *gin.Context) {
		if c.Param("id") == "bad" {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/projects/p1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/projects/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "p1", fields["resource_id"])
	assert.Equal(t, "project", fields["resource"])
}
