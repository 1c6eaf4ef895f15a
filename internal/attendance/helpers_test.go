package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"staffhub-backend/internal/db"
	"staffhub-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	return database
}

// fakeGeocoder returns a canned address, or an error when set.
type fakeGeocoder struct {
	address string
	err     error
}

func (g *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.address, nil
}

func (g *fakeGeocoder) Geocode(ctx context.Context, query string) (float64, float64, error) {
	return 0, 0, errors.New("not implemented")
}

// effectsRecorder counts effect invocations so tests can assert dispatch
// without a real dispatcher.
type effectsRecorder struct {
	approvalRequested int
	approvalResolved  int
	clockedOut        int
	lockedOut         int
}

func (e *effectsRecorder) ApprovalRequested(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	e.approvalRequested++
}

func (e *effectsRecorder) ApprovalResolved(ctx context.Context, record models.AttendanceRecord) {
	e.approvalResolved++
}

func (e *effectsRecorder) ClockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	e.clockedOut++
}

func (e *effectsRecorder) LockedOut(ctx context.Context, employee models.Employee, record models.AttendanceRecord) {
	e.lockedOut++
}

func defaultTestPolicy() Policy {
	return Policy{
		DefaultRadiusMeters: 100,
		FlexWindowMinutes:   30,
		RequireApproval:     true,
	}
}

// newTestService wires a service over an in-memory database with a fixed
// clock of 2026-03-02 09:30 UTC.
func newTestService(t *testing.T, database *gorm.DB, geocoder Geocoder, policy Policy) (*Service, *effectsRecorder) {
	t.Helper()

	log := zerolog.Nop()
	effects := &effectsRecorder{}
	validator := NewValidator(database, geocoder, policy, log)
	service := NewService(database, validator, effects, policy, log)
	service.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	}
	return service, effects
}

func seedEmployee(t *testing.T, database *gorm.DB) models.Employee {
	t.Helper()

	employee := models.Employee{
		DisplayID: "EMP-" + uuid.NewString()[:8],
		FirstName: "Ravi",
		LastName:  "Kumar",
		Email:     uuid.NewString() + "@example.com",
		Role:      "employee",
	}
	require.NoError(t, database.Create(&employee).Error)
	return employee
}

func seedAssignment(t *testing.T, database *gorm.DB, assignment models.LocationAssignment) models.LocationAssignment {
	t.Helper()
	require.NoError(t, database.Create(&assignment).Error)
	return assignment
}

func f64(v float64) *float64 { return &v }

// seedEmployeeID is enough for validator tests, which only join assignments
// by employee id.
func seedEmployeeID() uuid.UUID { return uuid.New() }
