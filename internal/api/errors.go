package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/httputil"
	"github.com/persistorai/backlog/internal/metrics"
	"github.com/persistorai/backlog/internal/middleware"
	"github.com/persistorai/backlog/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeInternalError   = "internal_error"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service error onto its HTTP status. Errors that
// are not domain sentinels are logged and reported as 500.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error, action string) {
	switch {
	case errors.Is(err, models.ErrProjectNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "project not found")
	case errors.Is(err, models.ErrBacklogNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "backlog not found")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "a record with this key already exists")
	case errors.Is(err, models.ErrProjectHasBacklogs):
		respondError(c, http.StatusConflict, ErrCodeConflict, "project slug is referenced by backlogs")
	case errors.Is(err, models.ErrUnknownProject):
		respondError(c, http.StatusUnprocessableEntity, ErrCodeValidationError, "project_slug does not reference an existing project")
	default:
		middleware.Logger(c, log).WithError(err).Error(action)
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
