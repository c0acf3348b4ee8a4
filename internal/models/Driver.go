// internal/models/driver.go
package models

import "github.com/google/uuid"

type Driver struct {
	Base
	OrganizationID uuid.UUID  `json:"organizationId" gorm:"type:uuid;not null;uniqueIndex:idx_driver_org_employee,priority:1"`
	Name           string     `json:"name" gorm:"not null"`
	EmployeeID     string     `json:"employeeId" gorm:"not null;uniqueIndex:idx_driver_org_employee,priority:2"`
	AssignedBusID  *uuid.UUID `json:"assignedBusId,omitempty" gorm:"type:uuid;index"`
}

// AssignedBus is the driver -> bus relationship as an explicit present/absent value.
func (d Driver) AssignedBus() Optional[uuid.UUID] {
	if d.AssignedBusID == nil || *d.AssignedBusID == uuid.Nil {
		return None[uuid.UUID]()
	}
	return Some(*d.AssignedBusID)
}
