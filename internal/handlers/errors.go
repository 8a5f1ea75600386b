package handlers

import (
	"net/http"

	apperrors "github.com/getmentor/portfolio-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
// so the observability middleware can include the reason in the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondServiceError maps a service error to its status. fallback is the
// message of unexpected errors.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch status := apperrors.StatusCode(err); status {
	case http.StatusNotFound:
		respondError(c, status, "Not found", err)
	case http.StatusForbidden:
		respondError(c, status, "Access denied", err)
	case http.StatusUnauthorized:
		respondError(c, status, "Unauthorized", err)
	case http.StatusBadRequest:
		respondErrorWithDetails(c, status, "Invalid input", gin.H{"message": err.Error()}, err)
	case http.StatusBadGateway:
		respondError(c, status, "Upstream service unavailable", err)
	default:
		respondError(c, http.StatusInternalServerError, fallback, err)
	}
}

// respondBindError reports a request body that failed to bind
func respondBindError(c *gin.Context, err error) {
	if details := ParseValidationErrors(err); len(details) > 0 {
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details, err)
		return
	}
	respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", gin.H{"message": err.Error()}, err)
}
