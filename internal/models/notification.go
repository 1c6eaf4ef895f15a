package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotificationApprovalRequest = "ATTENDANCE_APPROVAL_REQUEST"
	NotificationAttendanceAlert = "ATTENDANCE_ALERT"
	NotificationVehicleUnassign = "VEHICLE_UNASSIGNED"
)

// Notification is a row in the admin inbox. Data carries a JSON payload whose
// shape depends on Type (attendance id, vehicle id, employee id, timestamps).
type Notification struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Type      string    `gorm:"size:50;index;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"size:1000" json:"message"`
	Data      string    `gorm:"type:longtext" json:"data,omitempty"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
