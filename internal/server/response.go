package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/concentra-cli/internal/concentration"
	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/schema"
	"github.com/KaramelBytes/concentra-cli/internal/session"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusFor maps domain errors onto an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, dataset.ErrInvalidColumn):
		return http.StatusBadRequest, "invalid_column"
	case errors.Is(err, schema.ErrConflictingClassification):
		return http.StatusBadRequest, "conflicting_classification"
	case errors.Is(err, concentration.ErrInvalidBucket),
		errors.Is(err, concentration.ErrMissingParameter),
		errors.Is(err, concentration.ErrNonNumericMeasure),
		errors.Is(err, concentration.ErrNumericOverflow),
		errors.Is(err, concentration.ErrReservedColumn):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, dataset.ErrUnsupportedSource):
		return http.StatusUnsupportedMediaType, "unsupported_source"
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, session.ErrExpired):
		return http.StatusGone, "session_expired"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondErr writes err with its mapped status. Server errors are logged and
// their message is not echoed to the client.
func (h *Handler) respondErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= 500 {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		RespondError(c, status, code, errors.New("internal server error"))
		return
	}
	RespondError(c, status, code, err)
}
