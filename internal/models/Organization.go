package models

// Organization is the tenant boundary. Every other entity carries its ID.
type Organization struct {
	Base
	Name string `json:"name" gorm:"not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;not null"`
}
