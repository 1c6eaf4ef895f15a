package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendancePresent = "PRESENT"
	AttendanceLate    = "LATE"
	AttendanceAbsent  = "ABSENT"
)

const (
	ApprovalNotRequired = "NOT_REQUIRED"
	ApprovalPending     = "PENDING"
	ApprovalApproved    = "APPROVED"
	ApprovalRejected    = "REJECTED"
)

const (
	SourceSelf  = "SELF"
	SourceAdmin = "ADMIN"
)

// AttendanceRecord is the daily attendance row, one per employee per day.
// Day is the calendar date in "2006-01-02" form; the composite unique index
// is what guarantees a single record per employee per day.
type AttendanceRecord struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_attendance_employee_day,priority:1" json:"employeeId"`
	Day        string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_employee_day,priority:2" json:"day"`

	Status         string `gorm:"size:20;not null;default:PRESENT" json:"status"`
	ApprovalStatus string `gorm:"size:20;not null;default:NOT_REQUIRED" json:"approvalStatus"`

	ClockIn          *time.Time `json:"clockIn,omitempty"`
	ClockOut         *time.Time `json:"clockOut,omitempty"`
	PendingCheckInAt *time.Time `json:"pendingCheckInAt,omitempty"`

	// Task session overlay; free-text clock strings for the current task,
	// independent of ClockIn/ClockOut.
	TaskStartTime string `gorm:"size:40" json:"taskStartTime,omitempty"`
	TaskEndTime   string `gorm:"size:40" json:"taskEndTime,omitempty"`

	Location   string   `gorm:"size:500" json:"location,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	IPAddress  string   `gorm:"size:64" json:"ipAddress,omitempty"`
	DeviceInfo string   `gorm:"size:500" json:"deviceInfo,omitempty"`
	Photo      string   `gorm:"size:2048" json:"photo,omitempty"`

	AttemptCount int    `gorm:"not null;default:0;check:attempt_count >= 0 AND attempt_count <= 3" json:"attemptCount"`
	Locked       bool   `gorm:"not null;default:false" json:"locked"`
	LockedReason string `gorm:"size:255" json:"lockedReason,omitempty"`

	Source string `gorm:"size:10;not null;default:SELF" json:"source"`

	ApprovedBy     *uuid.UUID `gorm:"type:char(36)" json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	RejectedBy     *uuid.UUID `gorm:"type:char(36)" json:"rejectedBy,omitempty"`
	RejectedAt     *time.Time `json:"rejectedAt,omitempty"`
	ApprovalReason string     `gorm:"size:500" json:"approvalReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
