package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

// Effects receives state-transition notifications. Implementations are best
// effort: they log their own failures and never propagate them back into the
// transition that triggered them.
type Effects interface {
	ApprovalRequested(ctx context.Context, employee models.Employee, record models.AttendanceRecord)
	ApprovalResolved(ctx context.Context, record models.AttendanceRecord)
	ClockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord)
	LockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord)
}

// ClockAction is the submission kind on the action-based entry point.
type ClockAction int

const (
	ActionImplicit ClockAction = iota
	ActionCheckIn
	ActionCheckOut
	ActionTaskCheckout
)

// ParseClockAction maps the wire-level action string to its tagged value. An
// empty string is the implicit (admin-entered / self-reported) mode.
func ParseClockAction(value string) (ClockAction, error) {
	switch value {
	case "":
		return ActionImplicit, nil
	case "check-in":
		return ActionCheckIn, nil
	case "check-out":
		return ActionCheckOut, nil
	case "task-checkout":
		return ActionTaskCheckout, nil
	}
	return ActionImplicit, fmt.Errorf("unknown action %q", value)
}

// Evidence is what the client captured at submission time.
type Evidence struct {
	Latitude   *float64
	Longitude  *float64
	Location   string
	IPAddress  string
	DeviceInfo string
	Photo      string
}

type SubmitInput struct {
	EmployeeID uuid.UUID
	Action     ClockAction
	Source     string
	Evidence   Evidence
}

type ClockOutResult struct {
	Record    models.AttendanceRecord `json:"record"`
	WorkHours float64                 `json:"workHours"`
}

type DayStatus struct {
	Day        string                     `json:"day"`
	Record     *models.AttendanceRecord   `json:"record,omitempty"`
	Assignment *models.LocationAssignment `json:"assignment,omitempty"`
	Attempts   Attempts                   `json:"attempts"`
}

// Service is the attendance engine: the daily record state machine, the
// attempt/lockout tracker, and the task session overlay, with validation
// delegated to the Validator and side effects to Effects.
type Service struct {
	db        *gorm.DB
	validator *Validator
	effects   Effects
	policy    Policy
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(db *gorm.DB, validator *Validator, effects Effects, policy Policy, log zerolog.Logger) *Service {
	return &Service{
		db:        db,
		validator: validator,
		effects:   effects,
		policy:    policy,
		log:       log,
		now:       time.Now,
	}
}

func (s *Service) dayKey() string {
	return s.now().Format("2006-01-02")
}

func (s *Service) employee(ctx context.Context, id uuid.UUID) (models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employee, newError(CodeEmployeeNotFound, "employee not found")
		}
		return employee, err
	}
	return employee, nil
}

// findOrCreateRecord returns today's record, creating it on the first
// attempt of the day. The unique (employee, day) index backs this up: a
// racing create loses to the index and re-reads the winner's row.
func (s *Service) findOrCreateRecord(ctx context.Context, employeeID uuid.UUID, source string) (models.AttendanceRecord, error) {
	day := s.dayKey()

	var record models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, day).
		First(&record).Error
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return record, err
	}

	record = models.AttendanceRecord{
		EmployeeID:     employeeID,
		Day:            day,
		Status:         models.AttendancePresent,
		ApprovalStatus: models.ApprovalNotRequired,
		Source:         source,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		var existing models.AttendanceRecord
		if readErr := s.db.WithContext(ctx).
			Where("employee_id = ? AND day = ?", employeeID, day).
			First(&existing).Error; readErr == nil {
			return existing, nil
		}
		return record, err
	}
	return record, nil
}

func (s *Service) record(ctx context.Context, id uuid.UUID) (models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return record, newError(CodeAttendanceNotFound, "attendance record not found")
		}
		return record, err
	}
	return record, nil
}

// validateEvidence runs the location validator and feeds the attempt tracker.
// A policy rejection burns an attempt; hitting the bound locks the record and
// fires the lockout effect. Success resets the counter.
func (s *Service) validateEvidence(ctx context.Context, employee models.Employee, record *models.AttendanceRecord, evidence Evidence) error {
	if evidence.Latitude == nil || evidence.Longitude == nil {
		return newError(CodeMissingCoordinates, "coordinates are required")
	}

	verdict := s.validator.Validate(ctx, employee.ID, record.Day, *evidence.Latitude, *evidence.Longitude, s.now())
	if verdict.OK {
		if err := s.recordSuccess(ctx, record.ID); err != nil {
			return err
		}
		record.AttemptCount = 0
		return nil
	}

	if !countsAgainstAttempts(verdict.Code) {
		return newError(verdict.Code, verdict.Details)
	}

	remaining, locked, err := s.recordFailure(ctx, record.ID)
	if err != nil {
		return err
	}
	if locked {
		refreshed, readErr := s.record(ctx, record.ID)
		if readErr == nil {
			*record = refreshed
		}
		s.effects.LockedOut(ctx, employee, *record)
		return newAttemptError(CodeMaxAttemptsExceeded,
			"maximum attempts exceeded, attendance locked for today", 0)
	}
	record.AttemptCount = MaxAttempts - remaining
	return newAttemptError(verdict.Code, verdict.Details, remaining)
}

// statusFor derives PRESENT vs LATE from the assignment window at the moment
// the clock-in becomes final. Arriving inside the flexible-minutes grace after
// the window opens still counts as present.
func (s *Service) statusFor(ctx context.Context, employeeID uuid.UUID, day string, at time.Time) string {
	var assignment models.LocationAssignment
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, day).
		First(&assignment).Error
	if err != nil || assignment.TaskBased || assignment.WindowStart == "" {
		return models.AttendancePresent
	}
	start, parseErr := time.Parse("15:04", assignment.WindowStart)
	if parseErr != nil {
		return models.AttendancePresent
	}
	deadline := start.Hour()*60 + start.Minute() + s.policy.FlexWindowMinutes
	if at.Hour()*60+at.Minute() > deadline {
		return models.AttendanceLate
	}
	return models.AttendancePresent
}

func applyEvidence(record *models.AttendanceRecord, evidence Evidence) {
	if evidence.Location != "" {
		record.Location = evidence.Location
	}
	if evidence.Latitude != nil {
		record.Latitude = evidence.Latitude
	}
	if evidence.Longitude != nil {
		record.Longitude = evidence.Longitude
	}
	if evidence.IPAddress != "" {
		record.IPAddress = evidence.IPAddress
	}
	if evidence.DeviceInfo != "" {
		record.DeviceInfo = evidence.DeviceInfo
	}
	if evidence.Photo != "" {
		record.Photo = evidence.Photo
	}
}

// DailyClockIn starts the approval-gated daily path. The clock-in is not
// final until an admin approves it; until then the record sits in PENDING
// with pendingCheckInAt holding the submission time. Repeated calls are
// idempotent.
func (s *Service) DailyClockIn(ctx context.Context, employeeID uuid.UUID, evidence Evidence) (*models.AttendanceRecord, error) {
	employee, err := s.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	record, err := s.findOrCreateRecord(ctx, employeeID, models.SourceSelf)
	if err != nil {
		return nil, err
	}

	if record.Locked {
		return nil, newAttemptError(CodeAttendanceLocked, record.LockedReason, 0)
	}
	if record.ClockIn != nil {
		return &record, nil
	}
	if record.ApprovalStatus == models.ApprovalPending && record.PendingCheckInAt != nil {
		return &record, nil
	}
	if record.ApprovalStatus == models.ApprovalRejected {
		return nil, newError(CodeAttendanceRejected, "attendance was rejected, ask an admin to re-enable")
	}

	if err := s.validateEvidence(ctx, employee, &record, evidence); err != nil {
		return nil, err
	}

	now := s.now()
	applyEvidence(&record, evidence)

	if s.policy.RequireApproval {
		record.PendingCheckInAt = &now
		record.ApprovalStatus = models.ApprovalPending
		if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, err
		}
		s.effects.ApprovalRequested(ctx, employee, record)
		return &record, nil
	}

	record.ClockIn = &now
	record.ApprovalStatus = models.ApprovalNotRequired
	record.Status = s.statusFor(ctx, employeeID, record.Day, now)
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Approve finalizes a pending clock-in: clockIn becomes the time the
// employee originally submitted, not the time the admin got around to it.
func (s *Service) Approve(ctx context.Context, attendanceID, adminID uuid.UUID) (*models.AttendanceRecord, error) {
	record, err := s.record(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if record.ApprovalStatus != models.ApprovalPending {
		return nil, newError(CodeNotPending, "attendance is not awaiting approval")
	}

	now := s.now()
	clockIn := now
	if record.PendingCheckInAt != nil {
		clockIn = *record.PendingCheckInAt
	}
	record.ClockIn = &clockIn
	record.PendingCheckInAt = nil
	record.ApprovalStatus = models.ApprovalApproved
	record.ApprovedBy = &adminID
	record.ApprovedAt = &now
	record.Status = s.statusFor(ctx, record.EmployeeID, record.Day, clockIn)

	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	s.effects.ApprovalResolved(ctx, record)
	return &record, nil
}

// Reject denies a pending clock-in. The employee cannot clock out afterwards;
// only ReEnable reopens the day.
func (s *Service) Reject(ctx context.Context, attendanceID, adminID uuid.UUID, reason string) (*models.AttendanceRecord, error) {
	record, err := s.record(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if record.ApprovalStatus != models.ApprovalPending {
		return nil, newError(CodeNotPending, "attendance is not awaiting approval")
	}

	now := s.now()
	record.ApprovalStatus = models.ApprovalRejected
	record.RejectedBy = &adminID
	record.RejectedAt = &now
	record.ApprovalReason = reason
	record.PendingCheckInAt = nil

	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	s.effects.ApprovalResolved(ctx, record)
	return &record, nil
}

// ReEnable is the admin escape hatch out of REJECTED or the locked ABSENT
// terminal state: attempts reset, lock cleared, record back to PENDING so the
// employee can resubmit.
func (s *Service) ReEnable(ctx context.Context, attendanceID, adminID uuid.UUID) (*models.AttendanceRecord, error) {
	record, err := s.record(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	if record.ApprovalStatus != models.ApprovalRejected && !record.Locked {
		return nil, newError(CodeNotPending, "attendance is neither rejected nor locked")
	}

	record.Locked = false
	record.LockedReason = ""
	record.AttemptCount = 0
	record.Status = models.AttendancePresent
	record.ApprovalStatus = models.ApprovalPending
	record.PendingCheckInAt = nil
	record.RejectedBy = nil
	record.RejectedAt = nil
	record.ApprovalReason = ""

	// Save skips zero values on struct updates; the cleared lock fields need
	// an explicit column list.
	updates := map[string]interface{}{
		"locked":              false,
		"locked_reason":       "",
		"attempt_count":       0,
		"status":              models.AttendancePresent,
		"approval_status":     models.ApprovalPending,
		"pending_check_in_at": nil,
		"rejected_by":         nil,
		"rejected_at":         nil,
		"approval_reason":     "",
	}
	if err := s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("id = ?", record.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.log.Info().Str("attendance", record.ID.String()).Str("admin", adminID.String()).Msg("attendance re-enabled")
	return &record, nil
}

// DailyClockOut closes the day. Requires a finalized clock-in, is idempotent,
// and triggers the best-effort side effects (vehicle unassignment,
// notification) whose failure never fails the clock-out.
func (s *Service) DailyClockOut(ctx context.Context, employeeID uuid.UUID) (*ClockOutResult, error) {
	employee, err := s.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	var record models.AttendanceRecord
	err = s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, s.dayKey()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeCannotCheckoutWithoutCheckin, "no clock-in recorded today")
		}
		return nil, err
	}

	if record.Locked {
		return nil, newAttemptError(CodeAttendanceLocked, record.LockedReason, 0)
	}
	if record.ApprovalStatus == models.ApprovalRejected {
		return nil, newError(CodeAttendanceRejected, "attendance was rejected, clock-out not allowed")
	}
	if record.ClockIn == nil {
		return nil, newError(CodeCannotCheckoutWithoutCheckin, "clock-in has not been approved yet")
	}
	if record.ClockOut != nil {
		return &ClockOutResult{
			Record:    record,
			WorkHours: record.ClockOut.Sub(*record.ClockIn).Hours(),
		}, nil
	}

	now := s.now()
	if now.Before(*record.ClockIn) {
		now = *record.ClockIn
	}
	record.ClockOut = &now
	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}

	s.effects.ClockedOut(ctx, employee, record)

	return &ClockOutResult{
		Record:    record,
		WorkHours: record.ClockOut.Sub(*record.ClockIn).Hours(),
	}, nil
}

// Submit is the action-based entry point shared by self submissions and
// admin-entered records. ADMIN-sourced free-text submissions bypass the
// validator by construction; everything else goes through the same state
// machine.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.AttendanceRecord, error) {
	employee, err := s.employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if in.Source == "" {
		in.Source = models.SourceSelf
	}

	record, err := s.findOrCreateRecord(ctx, in.EmployeeID, in.Source)
	if err != nil {
		return nil, err
	}
	if record.Locked {
		return nil, newAttemptError(CodeAttendanceLocked, record.LockedReason, 0)
	}

	trusted := in.Source == models.SourceAdmin &&
		strings.TrimSpace(in.Evidence.Location) != "" &&
		in.Evidence.Latitude == nil && in.Evidence.Longitude == nil

	now := s.now()

	switch in.Action {
	case ActionCheckIn:
		if in.Source == models.SourceSelf {
			if err := s.validateEvidence(ctx, employee, &record, in.Evidence); err != nil {
				return nil, err
			}
		}
		applyEvidence(&record, in.Evidence)
		switch {
		case record.ClockIn == nil:
			record.ClockIn = &now
			record.Status = s.statusFor(ctx, in.EmployeeID, record.Day, now)
		case record.Source == models.SourceAdmin && in.Source == models.SourceSelf:
			// A genuine self check-in supersedes an admin-entered record:
			// restart the day.
			record.ClockIn = &now
			record.ClockOut = nil
			record.Status = s.statusFor(ctx, in.EmployeeID, record.Day, now)
		}
		record.Source = in.Source
		record.TaskStartTime = now.Format("15:04")
		if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil

	case ActionCheckOut:
		if record.ApprovalStatus == models.ApprovalRejected {
			return nil, newError(CodeAttendanceRejected, "attendance was rejected, clock-out not allowed")
		}
		if record.ClockIn == nil {
			return nil, newError(CodeCannotCheckoutWithoutCheckin, "cannot check out without a prior check-in")
		}
		if record.ClockOut != nil {
			return &record, nil
		}
		if now.Before(*record.ClockIn) {
			now = *record.ClockIn
		}
		record.ClockOut = &now
		if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, err
		}
		s.effects.ClockedOut(ctx, employee, record)
		return &record, nil

	case ActionTaskCheckout:
		if record.ApprovalStatus == models.ApprovalPending || record.ApprovalStatus == models.ApprovalRejected {
			return nil, newError(CodeNotApproved, "task actions require an approved day")
		}
		// Only the task session ends; the employee stays on shift.
		if err := s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
			Where("id = ?", record.ID).
			Update("task_end_time", now.Format("15:04")).Error; err != nil {
			return nil, err
		}
		record.TaskEndTime = now.Format("15:04")
		return &record, nil

	case ActionImplicit:
		if !trusted && in.Source == models.SourceSelf && in.Evidence.Latitude != nil && in.Evidence.Longitude != nil {
			if err := s.validateEvidence(ctx, employee, &record, in.Evidence); err != nil {
				return nil, err
			}
		}
		applyEvidence(&record, in.Evidence)
		if record.ClockIn == nil {
			record.ClockIn = &now
			record.Status = models.AttendancePresent
		}
		record.Source = in.Source
		if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	}

	return nil, fmt.Errorf("unhandled action %d", in.Action)
}

// DailyStatus is a read-only snapshot of today: the record if any, the
// assignment if any, and the attempt budget.
func (s *Service) DailyStatus(ctx context.Context, employeeID uuid.UUID) (DayStatus, error) {
	if _, err := s.employee(ctx, employeeID); err != nil {
		return DayStatus{}, err
	}

	day := s.dayKey()
	status := DayStatus{Day: day, Attempts: Attempts{Remaining: MaxAttempts}}

	var record models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, day).
		First(&record).Error
	if err == nil {
		status.Record = &record
		remaining := MaxAttempts - record.AttemptCount
		if remaining < 0 {
			remaining = 0
		}
		status.Attempts = Attempts{Remaining: remaining, Locked: record.Locked}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DayStatus{}, err
	}

	var assignment models.LocationAssignment
	err = s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, day).
		First(&assignment).Error
	if err == nil {
		status.Assignment = &assignment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return DayStatus{}, err
	}

	return status, nil
}
