package attendance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		require.InDelta(t, 0, distanceMeters(12.9716, 77.5946, 12.9716, 77.5946), 0.01)
	})

	t.Run("one millidegree of latitude is about 111m", func(t *testing.T) {
		d := distanceMeters(12.9716, 77.5946, 12.9726, 77.5946)
		require.InDelta(t, 111.2, d, 1.0)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := distanceMeters(12.9, 77.6, 12.95, 77.65)
		b := distanceMeters(12.95, 77.65, 12.9, 77.6)
		require.InDelta(t, a, b, 0.001)
	})
}

func TestValidCoordinate(t *testing.T) {
	cases := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"bangalore", 12.9716, 77.5946, true},
		{"zero zero placeholder", 0, 0, false},
		{"zero latitude only", 0, 77.5946, true},
		{"latitude out of range", 91, 77.5946, false},
		{"latitude below range", -91, 77.5946, false},
		{"longitude out of range", 12.97, 181, false},
		{"longitude below range", 12.97, -181, false},
		{"boundary values", 90, 180, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, validCoordinate(tc.lat, tc.lng))
		})
	}
}
