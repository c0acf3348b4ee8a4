package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationBusStarted  NotificationType = "bus_started"
	NotificationBusNearStop NotificationType = "bus_near_stop"
)

// Notification is the inbox record created for every fired subscription event. The
// pipeline only inserts; IsRead is flipped by the rider.
type Notification struct {
	Base
	OrganizationID uuid.UUID        `json:"organizationId" gorm:"type:uuid;not null;index"`
	UserID         uuid.UUID        `json:"userId" gorm:"type:uuid;not null;index:idx_notification_user_read,priority:1"`
	BusID          *uuid.UUID       `json:"busId,omitempty" gorm:"type:uuid"`
	StopID         *uuid.UUID       `json:"stopId,omitempty" gorm:"type:uuid"`
	Type           NotificationType `json:"type" gorm:"not null"`
	Title          string           `json:"title" gorm:"not null"`
	Message        string           `json:"message" gorm:"not null"`
	Payload        datatypes.JSON   `json:"payload"`
	IsRead         bool             `json:"isRead" gorm:"not null;default:false;index:idx_notification_user_read,priority:2"`
}
