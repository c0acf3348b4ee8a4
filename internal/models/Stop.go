package models

import "github.com/google/uuid"

const DefaultStopRadiusMeters = 100

// Stop is a pickup point along a route. SequenceOrder is unique per route.
type Stop struct {
	Base
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null;index;uniqueIndex:idx_stop_route_seq,priority:1"`
	RouteID        uuid.UUID `json:"routeId" gorm:"type:uuid;not null;index;uniqueIndex:idx_stop_route_seq,priority:2"`
	Name           string    `json:"name" gorm:"not null"`
	Latitude       float64   `json:"latitude" gorm:"not null"`
	Longitude      float64   `json:"longitude" gorm:"not null"`
	SequenceOrder  int       `json:"sequenceOrder" gorm:"not null;uniqueIndex:idx_stop_route_seq,priority:3"`
	RadiusMeters   float64   `json:"radiusMeters" gorm:"not null;default:100"`
}
