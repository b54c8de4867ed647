package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
)

// page is the envelope of every page response.
type page struct {
	Route       string `json:"route"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Data        any    `json:"data,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) renderPage(c *gin.Context, status int, data any) {
	t := currentTarget(c)
	c.JSON(status, page{
		Route:       t.Name,
		Title:       t.Meta.Title,
		Description: t.Meta.Description,
		Data:        data,
	})
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{auth.ErrDuplicateAccount, "duplicate_account", http.StatusConflict},
	{auth.ErrRegistrationRequiresCredentials, "registration_requires_credentials", http.StatusConflict},
	{auth.ErrInvalidCredentials, "invalid_credentials", http.StatusUnauthorized},
	{auth.ErrVerificationRequired, "verification_required", http.StatusAccepted},
	{auth.ErrPermissionDenied, "permission_denied", http.StatusForbidden},
	{auth.ErrInvalidPassword, "invalid_password", http.StatusBadRequest},
	{auth.ErrBackendUnavailable, "backend_unavailable", http.StatusServiceUnavailable},
	{catalogue.ErrNotFound, "not_found", http.StatusNotFound},
	{catalogue.ErrInvalidPoem, "invalid_poem", http.StatusBadRequest},
	{errNoCatalogue, "catalogue_unavailable", http.StatusServiceUnavailable},
}

// fail writes err as a JSON error. Unclassified errors are logged and
// hidden behind a 500.
func (s *Server) fail(c *gin.Context, err error) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			msg := auth.Message(err)
			if auth.Kind(err) == nil {
				msg = err.Error()
			}
			c.AbortWithStatusJSON(ec.status, errorBody{Error: ec.code, Message: msg})
			return
		}
	}

	s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"})
}
