package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"staffhub-backend/internal/models"
)

const testDay = "2026-03-02"

var testClock = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestValidator(t *testing.T, geocoder Geocoder, policy Policy) (*Validator, func(models.LocationAssignment) models.LocationAssignment) {
	t.Helper()
	database := newTestDB(t)
	validator := NewValidator(database, geocoder, policy, zerolog.Nop())
	seed := func(assignment models.LocationAssignment) models.LocationAssignment {
		return seedAssignment(t, database, assignment)
	}
	return validator, seed
}

func TestValidateCoordinateAssignment(t *testing.T) {
	ctx := context.Background()
	employee := func() (v *Validator, seed func(models.LocationAssignment) models.LocationAssignment) {
		return newTestValidator(t, &fakeGeocoder{}, defaultTestPolicy())
	}

	t.Run("inside radius is an exact match", func(t *testing.T) {
		validator, seed := employee()
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6), RadiusMeters: 50,
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.9001, 77.6001, testClock)
		require.True(t, verdict.OK)
		require.Equal(t, ConfidenceExact, verdict.Confidence)
		require.Less(t, verdict.DistanceMeters, 50.0)
	})

	t.Run("between one and two radii is a nearby rejection", func(t *testing.T) {
		validator, seed := employee()
		// ~78m away from the assigned point, radius 50m.
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6), RadiusMeters: 50,
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.9007, 77.6, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeLocationMismatch, verdict.Code)
		require.Equal(t, ConfidenceNearby, verdict.Confidence)
	})

	t.Run("beyond two radii has no confidence", func(t *testing.T) {
		validator, seed := employee()
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6), RadiusMeters: 50,
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.91, 77.61, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeLocationMismatch, verdict.Code)
		require.Equal(t, ConfidenceNone, verdict.Confidence)
	})

	t.Run("zero radius falls back to the policy default", func(t *testing.T) {
		validator, seed := employee()
		// ~78m away, default radius 100m.
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6),
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.9007, 77.6, testClock)
		require.True(t, verdict.OK)
	})

	t.Run("hard window rejects with no flex", func(t *testing.T) {
		validator, seed := employee()
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6), RadiusMeters: 50,
			WindowStart: "09:45", WindowEnd: "18:00",
		})

		// 09:30 submission, window opens 09:45. A coordinate assignment gets
		// no flex minutes.
		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.9, 77.6, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeTimeWindowViolation, verdict.Code)
	})

	t.Run("task based assignment ignores the window", func(t *testing.T) {
		validator, seed := employee()
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Latitude: f64(12.9), Longitude: f64(77.6), RadiusMeters: 50,
			WindowStart: "09:45", WindowEnd: "18:00", TaskBased: true,
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.9, 77.6, testClock)
		require.True(t, verdict.OK)
	})
}

func TestValidateAreaAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("address containing a specific token is exact", func(t *testing.T) {
		geocoder := &fakeGeocoder{address: "100 Feet Road, Indiranagar, Bangalore, Karnataka, India"}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area: "Indiranagar, Bangalore",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.True(t, verdict.OK)
		require.Equal(t, ConfidenceExact, verdict.Confidence)
	})

	t.Run("only the city matching is a soft rejection", func(t *testing.T) {
		geocoder := &fakeGeocoder{address: "Koramangala, Bangalore, Karnataka, India"}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area: "Indiranagar, Bangalore",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.93, 77.62, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeCityLevelMatch, verdict.Code)
		require.Equal(t, ConfidenceCity, verdict.Confidence)
	})

	t.Run("no token match is a mismatch", func(t *testing.T) {
		geocoder := &fakeGeocoder{address: "Connaught Place, Delhi, India"}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area: "Indiranagar, Bangalore",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 28.63, 77.21, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeLocationMismatch, verdict.Code)
	})

	t.Run("geocoder outage is a service error", func(t *testing.T) {
		geocoder := &fakeGeocoder{err: errors.New("timeout")}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area: "Indiranagar, Bangalore",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeLocationServiceError, verdict.Code)
	})

	t.Run("area too short to tokenize is generic", func(t *testing.T) {
		validator, seed := newTestValidator(t, &fakeGeocoder{address: "anywhere"}, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area: "hq",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeAssignedLocationGeneric, verdict.Code)
	})

	t.Run("empty area with no coordinates is unusable", func(t *testing.T) {
		validator, seed := newTestValidator(t, &fakeGeocoder{}, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeAssignedCoordsMissing, verdict.Code)
	})

	t.Run("flex window tolerates an early report", func(t *testing.T) {
		geocoder := &fakeGeocoder{address: "Indiranagar, Bangalore, India"}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area:        "Indiranagar, Bangalore",
			WindowStart: "09:45", WindowEnd: "18:00",
		})

		// 09:30 is 15 minutes early; the 30 minute flex covers it.
		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.True(t, verdict.OK)
	})

	t.Run("flex window still bounds a very early report", func(t *testing.T) {
		geocoder := &fakeGeocoder{address: "Indiranagar, Bangalore, India"}
		validator, seed := newTestValidator(t, geocoder, defaultTestPolicy())
		assignment := seed(models.LocationAssignment{
			EmployeeID: seedEmployeeID(), Day: testDay,
			Area:        "Indiranagar, Bangalore",
			WindowStart: "10:30", WindowEnd: "18:00",
		})

		verdict := validator.Validate(ctx, assignment.EmployeeID, testDay, 12.97, 77.64, testClock)
		require.False(t, verdict.OK)
		require.Equal(t, CodeTimeWindowViolation, verdict.Code)
	})
}

func TestValidateWithoutAssignment(t *testing.T) {
	validator, _ := newTestValidator(t, &fakeGeocoder{}, defaultTestPolicy())

	verdict := validator.Validate(context.Background(), seedEmployeeID(), testDay, 12.97, 77.64, testClock)
	require.False(t, verdict.OK)
	require.Equal(t, CodeNoAssignment, verdict.Code)
	require.False(t, countsAgainstAttempts(verdict.Code))
}

func TestValidateInvalidCoordinates(t *testing.T) {
	validator, _ := newTestValidator(t, &fakeGeocoder{}, defaultTestPolicy())

	verdict := validator.Validate(context.Background(), seedEmployeeID(), testDay, 0, 0, testClock)
	require.False(t, verdict.OK)
	require.Equal(t, CodeInvalidCoordinates, verdict.Code)
	require.False(t, countsAgainstAttempts(verdict.Code))
}

func TestAreaKeywords(t *testing.T) {
	t.Run("last segment becomes the city", func(t *testing.T) {
		specific, city := areaKeywords("Indiranagar, Bangalore")
		require.Equal(t, []string{"indiranagar"}, specific)
		require.Equal(t, []string{"bangalore"}, city)
	})

	t.Run("single segment has no city tier", func(t *testing.T) {
		specific, city := areaKeywords("Indiranagar")
		require.Equal(t, []string{"indiranagar"}, specific)
		require.Empty(t, city)
	})

	t.Run("short tokens are dropped", func(t *testing.T) {
		specific, city := areaKeywords("MG Road, Bangalore")
		require.Equal(t, []string{"road"}, specific)
		require.Equal(t, []string{"bangalore"}, city)
	})

	t.Run("punctuation is trimmed", func(t *testing.T) {
		specific, _ := areaKeywords("Whitefield (East).")
		require.Equal(t, []string{"whitefield", "east"}, specific)
	})
}

func TestWithinWindow(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name       string
		start, end string
		flex       int
		want       bool
	}{
		{"open window", "", "", 0, true},
		{"inside", "09:00", "18:00", 0, true},
		{"before start", "10:00", "18:00", 0, false},
		{"after end", "06:00", "09:00", 0, false},
		{"before start within flex", "10:00", "18:00", 30, true},
		{"after end within flex", "06:00", "09:15", 30, true},
		{"start bound only", "09:30", "", 0, true},
		{"unparseable bound is open", "soon", "", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, _ := withinWindow(at, tc.start, tc.end, tc.flex)
			require.Equal(t, tc.want, ok)
		})
	}
}
