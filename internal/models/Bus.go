// internal/models/bus.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type BusStatus string

const (
	BusStatusActive   BusStatus = "active"
	BusStatusInactive BusStatus = "inactive"
)

type TrackingStatus string

const (
	TrackingRunning TrackingStatus = "running"
	TrackingStopped TrackingStatus = "stopped"
)

// Bus is a tenant-scoped vehicle. The position fields and TrackingStatus are written only by
// the tracking pipeline; everything else belongs to the admin CRUD surface.
type Bus struct {
	Base
	OrganizationID uuid.UUID      `json:"organizationId" gorm:"type:uuid;not null;uniqueIndex:idx_bus_org_plate,priority:1"`
	NumberPlate    string         `json:"numberPlate" gorm:"not null;uniqueIndex:idx_bus_org_plate,priority:2"`
	DriverID       *uuid.UUID     `json:"driverId,omitempty" gorm:"type:uuid;index"`
	RouteID        *uuid.UUID     `json:"routeId,omitempty" gorm:"type:uuid;index"`
	Status         BusStatus      `json:"status" gorm:"not null;default:active"`
	TrackingStatus TrackingStatus `json:"trackingStatus" gorm:"not null;default:stopped;index"`

	CurrentLatitude  *float64   `json:"currentLatitude,omitempty"`
	CurrentLongitude *float64   `json:"currentLongitude,omitempty"`
	LastUpdatedAt    *time.Time `json:"lastUpdatedAt,omitempty"`
}

// LastFix returns the last accepted position, if the bus has ever reported one.
func (b Bus) LastFix() Optional[Fix] {
	if b.CurrentLatitude == nil || b.CurrentLongitude == nil || b.LastUpdatedAt == nil {
		return None[Fix]()
	}
	return Some(Fix{
		Latitude:   *b.CurrentLatitude,
		Longitude:  *b.CurrentLongitude,
		RecordedAt: *b.LastUpdatedAt,
	})
}

// Fix is a single recorded coordinate.
type Fix struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recordedAt"`
}

// PositionUpdate is an accepted report about to be persisted.
type PositionUpdate struct {
	OrganizationID uuid.UUID
	BusID          uuid.UUID
	Latitude       float64
	Longitude      float64
	RecordedAt     time.Time
}
