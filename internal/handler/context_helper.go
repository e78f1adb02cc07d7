package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dunzo-api/internal/middleware"
	"github.com/noah-isme/dunzo-api/internal/models"
	appErrors "github.com/noah-isme/dunzo-api/pkg/errors"
	"github.com/noah-isme/dunzo-api/pkg/response"
)

// authFromContext returns the caller's session, responding 401 when the route guard did not
// attach one.
func authFromContext(c *gin.Context) (*models.AuthContext, bool) {
	auth := middleware.AuthFromContext(c)
	if auth == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return auth, true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
