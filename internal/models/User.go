package models

import "github.com/google/uuid"

// User is a rider. PushToken is either an FCM registration token or a JSON encoded
// Web Push subscription, depending on the configured push backend.
type User struct {
	Base
	OrganizationID uuid.UUID `json:"organizationId" gorm:"type:uuid;not null;uniqueIndex:idx_user_org_member,priority:1"`
	Name           string    `json:"name" gorm:"not null"`
	MemberID       string    `json:"memberId" gorm:"not null;uniqueIndex:idx_user_org_member,priority:2"`
	PushToken      string    `json:"-" gorm:"index"`
}
