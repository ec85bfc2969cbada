// Package response renders the wire envelope of §6.1 and maps apperr.Error
// values onto it, so handlers never hand-build success/error JSON.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-core/internal/apperr"
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type Envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       any                `json:"data,omitempty"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
	ErrorCode  string             `json:"errorCode,omitempty"`
	Timestamp  string             `json:"timestamp"`
	Pagination *Pagination        `json:"pagination,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func Paginated(c *gin.Context, message string, data any, p Pagination) {
	c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Pagination: &p,
	})
}

// Fail renders err (ideally an *apperr.Error) using the taxonomy's status
// code. Unrecognized errors are redacted to a bare "internal error".
func Fail(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Wrap(apperr.Internal, "internal error", err)
	}
	c.JSON(ae.Kind.HTTPStatus(), Envelope{
		Success:   false,
		Message:   ae.Message,
		ErrorCode: string(ae.Kind),
		Errors:    ae.Fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
