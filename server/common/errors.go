package common

import (
	"errors"
	"net/http"

	"socialstakes/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// StatusFor maps a business error to its HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyJoined),
		errors.Is(err, models.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError writes err as JSON. Business errors carry their message;
// anything else is logged and hidden behind the request id.
func RespondWithError(c *gin.Context, err error) {
	status := StatusFor(err)
	requestID := RequestID(c)

	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
		RespondInternal(c)
		return
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     err.Error(),
		RequestID: requestID,
	})
}

// RespondInternal writes the opaque 500 body
func RespondInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:     "internal server error",
		RequestID: RequestID(c),
	})
}

// RespondBadRequest writes a 400 with optional field details
func RespondBadRequest(c *gin.Context, message string, details ...string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: RequestID(c),
	})
}

// RespondUnauthorized writes a 401
func RespondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:     message,
		RequestID: RequestID(c),
	})
}
