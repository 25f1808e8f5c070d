package web

// errors.go turns errors into JSON responses. The technical error is logged
// with the request id; the client gets the mapped operator message and its
// support code. Status codes follow the sentinel in the error chain.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/checkbench/internal/approval"
	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/JonMunkholm/checkbench/internal/logging"
)

var errNoFile = errors.New("no file provided")

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrImportNotFound),
		errors.Is(err, core.ErrEntryNotFound),
		errors.Is(err, approval.ErrApplicationNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrVersionConflict),
		errors.Is(err, approval.ErrNotPending):
		return http.StatusConflict

	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidDefaults),
		errors.Is(err, core.ErrInvalidSelection),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrNothingToImport),
		errors.Is(err, core.ErrNothingToSubmit),
		errors.Is(err, approval.ErrInvalidStatus),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
