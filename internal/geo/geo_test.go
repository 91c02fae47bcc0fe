package geo

import (
	"testing"

	"perimeter/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_SamePointIsZero(t *testing.T) {
	assert.Zero(t, DistanceMeters(25.0330, 121.5654, 25.0330, 121.5654))
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// Taipei 101 to Taipei Main Station, roughly 5.1 km.
	d := DistanceMeters(25.0330, 121.5654, 25.0478, 121.5170)
	assert.InDelta(t, 5150, d, 300)
}

func TestContains_CenterAlwaysInside(t *testing.T) {
	specs := []entity.GeofenceSpec{
		{CenterLatitude: 25.0330, CenterLongitude: 121.5654, RadiusMeters: 10},
		{CenterLatitude: -33.8688, CenterLongitude: 151.2093, RadiusMeters: 50},
		{CenterLatitude: 0, CenterLongitude: 0, RadiusMeters: 500},
	}
	for _, spec := range specs {
		assert.True(t, Contains(spec, spec.CenterLatitude, spec.CenterLongitude))
	}
}

func TestContains_PointBeyondRadius(t *testing.T) {
	spec := entity.GeofenceSpec{CenterLatitude: 25.0330, CenterLongitude: 121.5654, RadiusMeters: 100}

	// ~0.01 degrees of latitude is roughly 1.1 km.
	assert.False(t, Contains(spec, 25.0430, 121.5654))
}

func TestOffsetEast_RoundTripsThroughDistance(t *testing.T) {
	const radius = 250.0
	lat, lon := OffsetEast(25.0330, 121.5654, radius)

	assert.Equal(t, 25.0330, lat)
	assert.InDelta(t, radius, DistanceMeters(25.0330, 121.5654, lat, lon), 1.0)
}

func TestComputeHandlePosition_SitsOnCircleEdge(t *testing.T) {
	spec := entity.GeofenceSpec{CenterLatitude: 48.8566, CenterLongitude: 2.3522, RadiusMeters: 120}

	lat, lon := ComputeHandlePosition(spec)
	assert.Greater(t, lon, spec.CenterLongitude)
	assert.InDelta(t, spec.RadiusMeters, DistanceMeters(spec.CenterLatitude, spec.CenterLongitude, lat, lon), 1.0)
}

func TestRadiusFromHandleDrag_MatchesOffset(t *testing.T) {
	const radius = 75.0
	lat, lon := OffsetEast(25.0330, 121.5654, radius)

	got := RadiusFromHandleDrag(25.0330, 121.5654, lat, lon)
	assert.InDelta(t, radius, got, 1.0)
}

func TestClampRadius_FloorsAtMinimum(t *testing.T) {
	spec := entity.GeofenceSpec{CenterLatitude: 25.0330, CenterLongitude: 121.5654, RadiusMeters: 5}

	clamped := spec.ClampRadius()
	assert.Equal(t, entity.MinGeofenceRadiusMeters, clamped.RadiusMeters)

	// Radii at or above the floor pass through untouched.
	spec.RadiusMeters = 42
	assert.Equal(t, 42.0, spec.ClampRadius().RadiusMeters)
}
