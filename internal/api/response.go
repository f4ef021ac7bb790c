package api

import (
	"errors"
	"net/http"
	"strings"

	"storyboard/server/internal/compose"
	"storyboard/server/internal/media"
	"storyboard/server/internal/session"
	"storyboard/server/internal/store"
	"storyboard/server/internal/storyboard"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"data":     data,
		"trace_id": traceIDFromContext(c),
	})
}

func writeError(c *gin.Context, status int, code, message string, retryable bool, details map[string]any) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			Retryable: retryable,
			Details:   details,
		},
		"trace_id": traceIDFromContext(c),
	})
}

// writeServiceError maps domain errors onto HTTP statuses. Validation
// messages are surfaced without the sentinel prefix so the client sees
// only the guidance text.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", false, nil)
	case errors.Is(err, store.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid request", false, nil)
	case errors.Is(err, compose.ErrValidation):
		writeError(c, http.StatusBadRequest, "VALIDATION", validationMessage(err), false, nil)
	case errors.Is(err, session.ErrBusy):
		writeError(c, http.StatusConflict, "BUSY", err.Error(), true, nil)
	case errors.Is(err, session.ErrCredential):
		writeError(c, http.StatusConflict, "CREDENTIAL_MISSING", err.Error(), false, nil)
	case errors.Is(err, storyboard.ErrEmptyScript):
		writeError(c, http.StatusBadRequest, "EMPTY_SCRIPT", err.Error(), false, nil)
	case errors.Is(err, storyboard.ErrIncomplete):
		writeError(c, http.StatusConflict, "STORYBOARD_INCOMPLETE", err.Error(), true, nil)
	case errors.Is(err, media.ErrUnsupported):
		writeError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE", err.Error(), false, nil)
	case errors.Is(err, media.ErrEncoding):
		writeError(c, http.StatusBadRequest, "ENCODING_FAILED", err.Error(), false, nil)
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal error", true, nil)
	}
}

func validationMessage(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}
