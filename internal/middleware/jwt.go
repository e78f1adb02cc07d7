package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/logger"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

// ContextAuthKey is the gin context key storing the *models.AuthContext of the request.
const ContextAuthKey = "currentSession"

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.AuthContext, error)
}

// JWT guards routes: the request must carry a valid token whose session still exists.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		authCtx, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAuthKey, authCtx)
		c.Set(logger.UserIDKey, authCtx.UserID())
		c.Next()
	}
}

// AuthFromContext returns the session attached by JWT, or nil.
func AuthFromContext(c *gin.Context) *models.AuthContext {
	value, exists := c.Get(ContextAuthKey)
	if !exists {
		return nil
	}
	authCtx, _ := value.(*models.AuthContext)
	return authCtx
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
