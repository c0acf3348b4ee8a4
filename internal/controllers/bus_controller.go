package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bus_tracker/internal/geo"
	"bus_tracker/internal/models"
)

const maxPathPoints = 5000

// BusReader serves the rider-facing live views.
type BusReader interface {
	FindBus(ctx context.Context, orgID, busID uuid.UUID) (models.Bus, error)
	ListLocationLog(ctx context.Context, orgID, busID uuid.UUID, since time.Time, limit int) ([]models.LocationLogEntry, error)
}

type BusController struct {
	buses BusReader
}

func NewBusController(buses BusReader) *BusController {
	return &BusController{buses: buses}
}

type liveBusResponse struct {
	BusID          uuid.UUID             `json:"busId"`
	NumberPlate    string                `json:"numberPlate"`
	Status         models.BusStatus      `json:"status"`
	TrackingStatus models.TrackingStatus `json:"trackingStatus"`
	Location       *models.Fix           `json:"location"`
}

// Live handles GET /app/buses/:busId/live.
func (bc *BusController) Live(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	busID, ok := uuidParam(c, "busId")
	if !ok {
		return
	}

	bus, err := bc.buses.FindBus(c.Request.Context(), p.OrganizationID, busID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := liveBusResponse{
		BusID:          bus.ID,
		NumberPlate:    bus.NumberPlate,
		Status:         bus.Status,
		TrackingStatus: bus.TrackingStatus,
	}
	if fix, ok := bus.LastFix().Get(); ok {
		resp.Location = &fix
	}
	c.JSON(http.StatusOK, resp)
}

// Path handles GET /app/buses/:busId/path?since=RFC3339 and answers with GeoJSON.
func (bc *BusController) Path(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	busID, ok := uuidParam(c, "busId")
	if !ok {
		return
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = t
	}

	ctx := c.Request.Context()
	if _, err := bc.buses.FindBus(ctx, p.OrganizationID, busID); err != nil {
		respondError(c, err)
		return
	}

	entries, err := bc.buses.ListLocationLog(ctx, p.OrganizationID, busID, since, maxPathPoints)
	if err != nil {
		respondError(c, err)
		return
	}

	points := make([]geo.Point, 0, len(entries))
	for _, e := range entries {
		points = append(points, geo.Point{Latitude: e.Latitude, Longitude: e.Longitude})
	}

	body, err := geo.PathGeoJSON(points)
	if err != nil {
		respondError(c, err)
		return
	}
	if body == nil {
		body = []byte(`{"type":"LineString","coordinates":[]}`)
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}
