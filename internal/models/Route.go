package models

import "github.com/google/uuid"

// Route is an ordered list of stops operated by an organization.
type Route struct {
	Base
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null;index"`
	Name           string    `json:"name" gorm:"not null"`
	Description    string    `json:"description"`

	Stops []Stop `json:"stops,omitempty" gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
