package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationAssignment is the place an employee is expected to report from on a
// given day. Either authoritative coordinates plus a radius, or a free-text
// area matched against reverse-geocoded addresses. TaskBased assignments skip
// attendance-window enforcement for that day.
type LocationAssignment struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_assignment_employee_day,priority:1" json:"employeeId"`
	Day        string    `gorm:"size:10;not null;uniqueIndex:idx_assignment_employee_day,priority:2" json:"day"`

	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters float64  `gorm:"type:decimal(8,2)" json:"radiusMeters,omitempty"`
	Area         string   `gorm:"size:500" json:"area,omitempty"`

	// "15:04" wall-clock strings; empty means no window bound on that side.
	WindowStart string `gorm:"size:5" json:"windowStart,omitempty"`
	WindowEnd   string `gorm:"size:5" json:"windowEnd,omitempty"`

	TaskBased bool `gorm:"not null;default:false" json:"taskBased"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *LocationAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
