package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bus_tracker/internal/middleware"
	"bus_tracker/internal/models"
	"bus_tracker/internal/tracking"
)

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, msg := classifyError(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed.")
	}
	c.JSON(status, gin.H{"error": msg})
}

// classifyError returns the status and client-safe message for err. Only domain sentinels are
// echoed; anything else becomes a generic message.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, tracking.ErrInvalidCoordinates):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrBusNotFound),
		errors.Is(err, models.ErrDriverNotFound),
		errors.Is(err, models.ErrNoBusAssigned),
		errors.Is(err, models.ErrStopNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrSubscriptionNotFound),
		errors.Is(err, models.ErrNotificationNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// uuidParam reads a UUID path parameter, answering 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// principal reads the caller set by the auth middleware.
func principal(c *gin.Context) (middleware.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return p, ok
}
