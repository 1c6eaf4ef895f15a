package attendance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

// MaxAttempts is the per-day bound on failed validations before the record
// locks into ABSENT.
const MaxAttempts = 3

const lockedReason = "maximum validation attempts exceeded"

type Attempts struct {
	Remaining int  `json:"remaining"`
	Locked    bool `json:"locked"`
}

// RemainingAttempts is a pure read of the attempt budget for today. No record
// yet means the full budget.
func (s *Service) RemainingAttempts(ctx context.Context, employeeID uuid.UUID) (Attempts, error) {
	if _, err := s.employee(ctx, employeeID); err != nil {
		return Attempts{}, err
	}

	var record models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND day = ?", employeeID, s.dayKey()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Attempts{Remaining: MaxAttempts}, nil
		}
		return Attempts{}, err
	}

	remaining := MaxAttempts - record.AttemptCount
	if remaining < 0 {
		remaining = 0
	}
	return Attempts{Remaining: remaining, Locked: record.Locked}, nil
}

// recordFailure bumps the attempt counter and flips the record into the
// locked ABSENT state when the bound is reached. Concurrent failing
// submissions serialize through the guarded update: the increment only
// applies when attempt_count still holds the value we read, so two racing
// writers can never both consume the same attempt or skip the lock
// transition. A lost race reloads and retries.
func (s *Service) recordFailure(ctx context.Context, recordID uuid.UUID) (remaining int, locked bool, err error) {
	for tries := 0; tries <= MaxAttempts; tries++ {
		var record models.AttendanceRecord
		if err := s.db.WithContext(ctx).First(&record, "id = ?", recordID).Error; err != nil {
			return 0, false, err
		}
		if record.Locked {
			return 0, true, nil
		}

		next := record.AttemptCount + 1
		if next > MaxAttempts {
			next = MaxAttempts
		}

		updates := map[string]interface{}{"attempt_count": next}
		if next >= MaxAttempts {
			updates["locked"] = true
			updates["locked_reason"] = lockedReason
			updates["status"] = models.AttendanceAbsent
		}

		result := s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
			Where("id = ? AND attempt_count = ? AND locked = ?", recordID, record.AttemptCount, false).
			Updates(updates)
		if result.Error != nil {
			return 0, false, result.Error
		}
		if result.RowsAffected == 1 {
			remaining = MaxAttempts - next
			return remaining, next >= MaxAttempts, nil
		}
	}
	return 0, false, errors.New("attempt tracker contention")
}

// recordSuccess resets the attempt counter after any successful validation.
func (s *Service) recordSuccess(ctx context.Context, recordID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("id = ?", recordID).
		Update("attempt_count", 0).Error
}
