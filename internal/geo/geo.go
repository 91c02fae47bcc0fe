// Package geo provides the geometric primitives for event perimeters:
// containment tests, great-circle distances, and the marker offset math used
// by the interactive geofence editor.
package geo

import (
	"math"

	"perimeter/internal/domain/entity"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceMeters returns the great-circle distance between two coordinates.
// Haversine on a spherical earth; accurate to within a few meters at event
// scale (up to a few kilometers).
func DistanceMeters(aLat, aLon, bLat, bLon float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{aLon, aLat}, orb.Point{bLon, bLat})
}

// Contains reports whether the point lies on or inside the geofence circle.
func Contains(spec entity.GeofenceSpec, lat, lon float64) bool {
	return DistanceMeters(spec.CenterLatitude, spec.CenterLongitude, lat, lon) <= spec.RadiusMeters
}

// OffsetEast returns the point radiusMeters due east of the given center,
// holding latitude fixed. The radius is converted to a longitude delta:
//
//	dLon = (radius / earthRadius) * (180/pi) / cos(latRadians)
//
// The flat-longitude approximation holds for circle radii up to a few
// kilometers. It degrades near the poles (|lat| > ~85 degrees) and for radii
// beyond ~20 km; no error is raised for out-of-range input, that is a known
// precision boundary of the editor.
func OffsetEast(lat, lon, radiusMeters float64) (offsetLat, offsetLon float64) {
	dLon := (radiusMeters / orb.EarthRadius) * (180 / math.Pi) / math.Cos(lat*math.Pi/180)

	return lat, lon + dLon
}

// ComputeHandlePosition returns the position of the draggable resize handle
// on the circle's eastern edge.
func ComputeHandlePosition(spec entity.GeofenceSpec) (lat, lon float64) {
	return OffsetEast(spec.CenterLatitude, spec.CenterLongitude, spec.RadiusMeters)
}

// RadiusFromHandleDrag converts a dragged handle position back into a radius.
// The result is the raw distance; callers clamp it to the minimum radius
// before persisting.
func RadiusFromHandleDrag(centerLat, centerLon, handleLat, handleLon float64) float64 {
	return DistanceMeters(centerLat, centerLon, handleLat, handleLon)
}
