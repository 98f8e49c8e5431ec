package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request ID; the client gets the
// mapped user message and its support code.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/importme/internal/core"
	"github.com/JonMunkholm/importme/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form with statusCode.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userErr := core.NewUserError(err)
	userMsg := userErr.User

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", userErr.Technical.Error(),
		"code", userMsg.Code,
	}
	if !core.IsUserFacing(err) {
		attrs = append(attrs, "unmapped", true)
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	writeJSONStatus(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSchemaNotFound), errors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyParses):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case core.IsFatal(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
