package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bus_tracker/internal/models"
	"bus_tracker/internal/tracking"
)

// LocationReporter is the tracking pipeline as seen by the transport layer.
type LocationReporter interface {
	ReportLocation(ctx context.Context, orgID, driverID uuid.UUID, lat, lng float64) (tracking.LocationResult, error)
	ResolveAssignedBus(ctx context.Context, orgID, driverID uuid.UUID) (models.Bus, error)
	UpdateBusLocation(ctx context.Context, orgID, busID uuid.UUID, lat, lng float64) (tracking.LocationResult, error)
}

type TrackingController struct {
	tracker LocationReporter
}

func NewTrackingController(tracker LocationReporter) *TrackingController {
	return &TrackingController{tracker: tracker}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ReportMyLocation handles POST /tracking/me/location from the driver app.
func (tc *TrackingController) ReportMyLocation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	res, err := tc.tracker.ReportLocation(c.Request.Context(), p.OrganizationID, p.UserID, *req.Latitude, *req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}

	if res.Throttled {
		c.JSON(http.StatusOK, gin.H{
			"throttled":    true,
			"reason":       res.Reason,
			"retryAfterMs": res.RetryAfterMs,
			"location":     res,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": res})
}

// MyBus handles GET /driver/me/bus.
func (tc *TrackingController) MyBus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	bus, err := tc.tracker.ResolveAssignedBus(c.Request.Context(), p.OrganizationID, p.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bus": bus})
}
