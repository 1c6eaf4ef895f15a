package attendance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"staffhub-backend/internal/models"
)

func TestRecordFailureLocksAtBound(t *testing.T) {
	database := newTestDB(t)
	service, _ := newTestService(t, database, &fakeGeocoder{}, defaultTestPolicy())
	employee := seedEmployee(t, database)
	ctx := context.Background()

	record, err := service.findOrCreateRecord(ctx, employee.ID, models.SourceSelf)
	require.NoError(t, err)

	remaining, locked, err := service.recordFailure(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, 2, remaining)
	require.False(t, locked)

	remaining, locked, err = service.recordFailure(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)
	require.False(t, locked)

	remaining, locked, err = service.recordFailure(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
	require.True(t, locked)

	var stored models.AttendanceRecord
	require.NoError(t, database.First(&stored, "id = ?", record.ID).Error)
	require.True(t, stored.Locked)
	require.Equal(t, MaxAttempts, stored.AttemptCount)
	require.Equal(t, models.AttendanceAbsent, stored.Status)
	require.NotEmpty(t, stored.LockedReason)

	// Further failures on a locked record are absorbed, not double counted.
	remaining, locked, err = service.recordFailure(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)
	require.True(t, locked)
}

func TestRecordSuccessResetsCounter(t *testing.T) {
	database := newTestDB(t)
	service, _ := newTestService(t, database, &fakeGeocoder{}, defaultTestPolicy())
	employee := seedEmployee(t, database)
	ctx := context.Background()

	record, err := service.findOrCreateRecord(ctx, employee.ID, models.SourceSelf)
	require.NoError(t, err)

	_, _, err = service.recordFailure(ctx, record.ID)
	require.NoError(t, err)
	_, _, err = service.recordFailure(ctx, record.ID)
	require.NoError(t, err)

	require.NoError(t, service.recordSuccess(ctx, record.ID))

	attempts, err := service.RemainingAttempts(ctx, employee.ID)
	require.NoError(t, err)
	require.Equal(t, MaxAttempts, attempts.Remaining)
	require.False(t, attempts.Locked)
}

func TestRemainingAttempts(t *testing.T) {
	database := newTestDB(t)
	service, _ := newTestService(t, database, &fakeGeocoder{}, defaultTestPolicy())
	employee := seedEmployee(t, database)
	ctx := context.Background()

	t.Run("full budget before any record exists", func(t *testing.T) {
		attempts, err := service.RemainingAttempts(ctx, employee.ID)
		require.NoError(t, err)
		require.Equal(t, Attempts{Remaining: MaxAttempts}, attempts)
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := service.RemainingAttempts(ctx, seedEmployeeID())
		var engineErr *Error
		require.ErrorAs(t, err, &engineErr)
		require.Equal(t, CodeEmployeeNotFound, engineErr.Code)
	})

	t.Run("tracks consumed attempts", func(t *testing.T) {
		record, err := service.findOrCreateRecord(ctx, employee.ID, models.SourceSelf)
		require.NoError(t, err)
		_, _, err = service.recordFailure(ctx, record.ID)
		require.NoError(t, err)

		attempts, err := service.RemainingAttempts(ctx, employee.ID)
		require.NoError(t, err)
		require.Equal(t, Attempts{Remaining: 2}, attempts)
	})
}

func TestFindOrCreateRecordIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	service, _ := newTestService(t, database, &fakeGeocoder{}, defaultTestPolicy())
	employee := seedEmployee(t, database)
	ctx := context.Background()

	first, err := service.findOrCreateRecord(ctx, employee.ID, models.SourceSelf)
	require.NoError(t, err)
	second, err := service.findOrCreateRecord(ctx, employee.ID, models.SourceAdmin)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, database.Model(&models.AttendanceRecord{}).
		Where("employee_id = ?", employee.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
