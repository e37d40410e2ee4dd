package kernel_test

import (
	"testing"

	"ordertrack/internal/core/domain/model/kernel"

	"ordertrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"valid_point", 41.0082, 28.9784, false},
		{"equator_meridian", 0, 0, false},
		{"boundary_north_east", 90, 180, false},
		{"boundary_south_west", -90, -180, false},
		{"latitude_too_high", 90.1, 0, true},
		{"latitude_too_low", -90.1, 0, true},
		{"longitude_too_high", 0, 180.1, true},
		{"longitude_too_low", 0, -180.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			point, err := kernel.NewGeoPoint(tt.lat, tt.lng)

			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				return
			}

			require.NoError(t, err)
			require.NoError(t, point.Validate())
			assert.Equal(t, tt.lat, point.Lat())
			assert.Equal(t, tt.lng, point.Lng())
		})
	}
}

func TestNewGeoPointWithMotion(t *testing.T) {
	t.Run("carries_heading_and_speed", func(t *testing.T) {
		point, err := kernel.NewGeoPointWithMotion(41, 29, 90, 12.5)

		require.NoError(t, err)
		assert.Equal(t, 90.0, point.Heading())
		assert.Equal(t, 12.5, point.Speed())
	})

	t.Run("normalizes_heading", func(t *testing.T) {
		point, err := kernel.NewGeoPointWithMotion(41, 29, 450, 0)

		require.NoError(t, err)
		assert.Equal(t, 90.0, point.Heading())
	})

	t.Run("rejects_negative_speed", func(t *testing.T) {
		_, err := kernel.NewGeoPointWithMotion(41, 29, 0, -1)
		require.Error(t, err)
	})
}

func TestGeoPoint_Validate(t *testing.T) {
	t.Run("zero_value_is_invalid", func(t *testing.T) {
		var point kernel.GeoPoint
		require.Error(t, point.Validate())
	})
}
