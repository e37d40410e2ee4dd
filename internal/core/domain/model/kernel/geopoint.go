package kernel

import (
	"fmt"

	"ordertrack/internal/pkg/errs"
	"ordertrack/internal/pkg/guard"
)

const (
	// LatitudeMin is the minimum valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the maximum valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the minimum valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the maximum valid longitude in degrees.
	LongitudeMax = 180.0
)

// ErrGeoPointIsNotConstructed is returned when validating a zero-value GeoPoint.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError(
	"GeoPoint must be created via NewGeoPoint constructor")

// GeoPoint is an immutable value object representing a courier position on the
// map: latitude/longitude in degrees plus optional heading (degrees clockwise
// from north) and speed. The zero value is invalid and fails validation.
//
// Example:
//
//	pos, err := kernel.NewGeoPoint(41.01, 28.97)
//	if err != nil {
//	    // handle validation error
//	}
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat     float64
	lng     float64
	heading float64
	speed   float64

	guard guard.ConstructorGuard
}

// NewGeoPoint creates a GeoPoint with validated coordinates.
// Latitude must be within [-90, 90] and longitude within [-180, 180].
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	if lat < LatitudeMin || lat > LatitudeMax {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	if lng < LongitudeMin || lng > LongitudeMax {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("longitude", lng, LongitudeMin, LongitudeMax)
	}

	return GeoPoint{
		lat:   lat,
		lng:   lng,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// NewGeoPointWithMotion creates a GeoPoint carrying heading and speed, as
// reported by courier position feeds. Heading is normalized into [0, 360).
func NewGeoPointWithMotion(lat, lng, heading, speed float64) (GeoPoint, error) {
	point, err := NewGeoPoint(lat, lng)
	if err != nil {
		return GeoPoint{}, err
	}
	if speed < 0 {
		return GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("speed",
			fmt.Errorf("%f is negative", speed))
	}

	for heading < 0 {
		heading += 360
	}
	for heading >= 360 {
		heading -= 360
	}

	point.heading = heading
	point.speed = speed
	return point, nil
}

// Lat returns the latitude in degrees.
func (p GeoPoint) Lat() float64 {
	return p.lat
}

// Lng returns the longitude in degrees.
func (p GeoPoint) Lng() float64 {
	return p.lng
}

// Heading returns the heading in degrees clockwise from north.
func (p GeoPoint) Heading() float64 {
	return p.heading
}

// Speed returns the reported speed. Units are whatever the position feed
// reports; the core only passes them through.
func (p GeoPoint) Speed() float64 {
	return p.speed
}

// IsEqual reports whether two points share the same coordinates.
func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.lat == other.lat && p.lng == other.lng
}

// String implements fmt.Stringer.
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lng)
}

// Validate ensures the point was created via a constructor.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}
