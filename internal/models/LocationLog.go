package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationLogEntry is the append-only history of accepted positions. Nothing updates or
// deletes these rows.
type LocationLogEntry struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null;index"`
	BusID          uuid.UUID `json:"busId" gorm:"type:uuid;not null;index:idx_location_bus_time,priority:1"`
	Latitude       float64   `json:"latitude" gorm:"not null"`
	Longitude      float64   `json:"longitude" gorm:"not null"`
	RecordedAt     time.Time `json:"recordedAt" gorm:"not null;index:idx_location_bus_time,priority:2"`
}

func (LocationLogEntry) TableName() string {
	return "location_logs"
}

func (e *LocationLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
