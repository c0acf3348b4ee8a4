package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription ties a rider to a bus. At most one row exists per (organization, user, bus);
// unsubscribing flips IsActive instead of deleting.
type Subscription struct {
	Base
	OrganizationID uuid.UUID  `json:"organizationId" gorm:"type:uuid;not null;uniqueIndex:idx_sub_org_user_bus,priority:1;index:idx_sub_bus_active,priority:1"`
	UserID         uuid.UUID  `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_sub_org_user_bus,priority:2"`
	BusID          uuid.UUID  `json:"busId" gorm:"type:uuid;not null;uniqueIndex:idx_sub_org_user_bus,priority:3;index:idx_sub_bus_active,priority:2"`
	StopID         *uuid.UUID `json:"stopId,omitempty" gorm:"type:uuid"`

	NotifyOnBusStart bool `json:"notifyOnBusStart" gorm:"not null"`
	NotifyOnNearStop bool `json:"notifyOnNearStop" gorm:"not null"`

	// UserLatitude/UserLongitude override the stop's coordinates when both are set.
	UserLatitude     *float64 `json:"userLatitude,omitempty"`
	UserLongitude    *float64 `json:"userLongitude,omitempty"`
	NearRadiusMeters *float64 `json:"nearRadiusMeters,omitempty"`

	IsActive bool `json:"isActive" gorm:"not null;index:idx_sub_bus_active,priority:3"`

	LastStartNotifiedAt    *time.Time `json:"lastStartNotifiedAt,omitempty"`
	LastNearStopNotifiedAt *time.Time `json:"lastNearStopNotifiedAt,omitempty"`
}
