package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"staffhub-backend/internal/models"
)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, subject)
	return nil
}

func seedAssignedVehicle(t *testing.T, database *gorm.DB, employee models.Employee) models.Vehicle {
	t.Helper()
	now := time.Now()
	vehicle := models.Vehicle{
		Plate:      "KA-01-AB-1234",
		Model:      "Tata Ace",
		Status:     models.VehicleAssigned,
		AssignedTo: &employee.ID,
		AssignedAt: &now,
	}
	require.NoError(t, database.Create(&vehicle).Error)
	return vehicle
}

func TestDispatcherApprovalLifecycle(t *testing.T) {
	database := newTestDB(t)
	dispatcher := NewDispatcher(database, zerolog.Nop(), nil, "")
	employee := seedEmployee(t, database)
	ctx := context.Background()

	pendingAt := time.Now()
	record := models.AttendanceRecord{
		EmployeeID:       employee.ID,
		Day:              testDay,
		ApprovalStatus:   models.ApprovalPending,
		PendingCheckInAt: &pendingAt,
	}
	require.NoError(t, database.Create(&record).Error)

	dispatcher.ApprovalRequested(ctx, employee, record)

	var notifications []models.Notification
	require.NoError(t, database.Where("type = ?", models.NotificationApprovalRequest).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Contains(t, notifications[0].Data, record.ID.String())

	// Resolution sweeps the request away.
	dispatcher.ApprovalResolved(ctx, record)
	var count int64
	require.NoError(t, database.Model(&models.Notification{}).
		Where("type = ?", models.NotificationApprovalRequest).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestDispatcherReleasesVehicleOnClockOut(t *testing.T) {
	database := newTestDB(t)
	dispatcher := NewDispatcher(database, zerolog.Nop(), nil, "")
	employee := seedEmployee(t, database)
	vehicle := seedAssignedVehicle(t, database, employee)
	ctx := context.Background()

	out := time.Now()
	record := models.AttendanceRecord{EmployeeID: employee.ID, Day: testDay, ClockOut: &out}
	require.NoError(t, database.Create(&record).Error)

	dispatcher.ClockedOut(ctx, employee, record)

	var stored models.Vehicle
	require.NoError(t, database.First(&stored, "id = ?", vehicle.ID).Error)
	require.Equal(t, models.VehicleAvailable, stored.Status)
	require.Nil(t, stored.AssignedTo)
	require.Nil(t, stored.AssignedAt)

	var count int64
	require.NoError(t, database.Model(&models.Notification{}).
		Where("type = ?", models.NotificationVehicleUnassign).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// A second clock-out finds nothing assigned and stays quiet.
	dispatcher.ClockedOut(ctx, employee, record)
	require.NoError(t, database.Model(&models.Notification{}).
		Where("type = ?", models.NotificationVehicleUnassign).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDispatcherClockOutWithoutVehicle(t *testing.T) {
	database := newTestDB(t)
	dispatcher := NewDispatcher(database, zerolog.Nop(), nil, "")
	employee := seedEmployee(t, database)

	record := models.AttendanceRecord{EmployeeID: employee.ID, Day: testDay}
	require.NoError(t, database.Create(&record).Error)

	dispatcher.ClockedOut(context.Background(), employee, record)

	var count int64
	require.NoError(t, database.Model(&models.Notification{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestDispatcherLockedOut(t *testing.T) {
	database := newTestDB(t)
	mailer := &fakeMailer{}
	dispatcher := NewDispatcher(database, zerolog.Nop(), mailer, "ops@example.com")
	employee := seedEmployee(t, database)

	record := models.AttendanceRecord{
		EmployeeID:   employee.ID,
		Day:          testDay,
		Status:       models.AttendanceAbsent,
		Locked:       true,
		LockedReason: "maximum validation attempts exceeded",
	}
	require.NoError(t, database.Create(&record).Error)

	dispatcher.LockedOut(context.Background(), employee, record)

	var notifications []models.Notification
	require.NoError(t, database.Where("type = ?", models.NotificationAttendanceAlert).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Len(t, mailer.sent, 1)
}

func TestDispatcherMailFailureIsSwallowed(t *testing.T) {
	database := newTestDB(t)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	dispatcher := NewDispatcher(database, zerolog.Nop(), mailer, "ops@example.com")
	employee := seedEmployee(t, database)

	record := models.AttendanceRecord{EmployeeID: employee.ID, Day: testDay, Locked: true}
	require.NoError(t, database.Create(&record).Error)

	// Must not panic or propagate; the notification row still lands.
	dispatcher.LockedOut(context.Background(), employee, record)

	var count int64
	require.NoError(t, database.Model(&models.Notification{}).
		Where("type = ?", models.NotificationAttendanceAlert).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

// A broken dispatcher backend must never fail the state transition that
// fired it.
func TestClockOutSurvivesDispatcherFailure(t *testing.T) {
	database := newTestDB(t)
	policy := defaultTestPolicy()
	policy.RequireApproval = false

	log := zerolog.Nop()
	validator := NewValidator(database, &fakeGeocoder{}, policy, log)
	dispatcher := NewDispatcher(database, log, nil, "")
	service := NewService(database, validator, dispatcher, policy, log)
	service.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	}

	employee := seedEmployee(t, database)
	seedStandardAssignment(t, database, employee.ID)
	seedAssignedVehicle(t, database, employee)

	_, err := service.DailyClockIn(context.Background(), employee.ID, goodEvidence())
	require.NoError(t, err)

	// Drop the notification table out from under the dispatcher.
	require.NoError(t, database.Migrator().DropTable(&models.Notification{}))

	service.now = func() time.Time {
		return time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	}
	result, err := service.DailyClockOut(context.Background(), employee.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Record.ClockOut)

	// The vehicle release itself still went through.
	var vehicle models.Vehicle
	require.NoError(t, database.First(&vehicle, "plate = ?", "KA-01-AB-1234").Error)
	require.Equal(t, models.VehicleAvailable, vehicle.Status)
}
