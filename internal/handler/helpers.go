package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/models"
	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/response"
)

const msgInvalidPayload = "Datos de entrada inválidos"

// bindJSON decodes the body into dst, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, msgInvalidPayload))
		return false
	}
	return true
}

// bindOptionalJSON decodes the body when one was sent.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

func currentPrincipal(c *gin.Context) *models.Principal {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return nil
	}
	return principal
}

func principalID(c *gin.Context) string {
	if p := currentPrincipal(c); p != nil {
		return p.ID
	}
	return ""
}

// requirePrincipal answers 401 when the gate attached nobody.
func requirePrincipal(c *gin.Context) (*models.Principal, bool) {
	p := currentPrincipal(c)
	if p == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return p, true
}

func pageQuery(c *gin.Context) models.PageQuery {
	var q models.PageQuery
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		q.Limit = limit
	}
	return q
}

// boolQuery returns nil unless the parameter is "true" or "false".
func boolQuery(c *gin.Context, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func trimmedQuery(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}
