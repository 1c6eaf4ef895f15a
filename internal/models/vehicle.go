package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VehicleAvailable = "AVAILABLE"
	VehicleAssigned  = "ASSIGNED"
)

// Vehicle assignment is a weak reference: AssignedTo points at an employee for
// lookup only. The one automatic transition is unassignment on clock-out.
type Vehicle struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Plate      string     `gorm:"uniqueIndex;size:40;not null" json:"plate"`
	Model      string     `gorm:"size:120" json:"model,omitempty"`
	Status     string     `gorm:"size:20;not null;default:AVAILABLE" json:"status"`
	AssignedTo *uuid.UUID `gorm:"type:char(36);index" json:"assignedTo,omitempty"`
	AssignedAt *time.Time `json:"assignedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
