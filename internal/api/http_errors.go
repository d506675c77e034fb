package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Hint    string                 `json:"hint,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatPermission:
		return http.StatusForbidden, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps err onto a status and body. Internal failures are
// logged and answered without their cause.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok || status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var domErr *core.DomainError
	errors.As(err, &domErr)
	respondJSON(w, status, ErrorResponse{
		Error:   domErr.Message,
		Code:    domErr.Code,
		Hint:    domErr.Hint,
		Details: domErr.Details,
	})
}
