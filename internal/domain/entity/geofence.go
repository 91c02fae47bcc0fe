package entity

// MinGeofenceRadiusMeters is the floor applied to every geofence radius.
// Editors may produce smaller values while dragging; they are clamped
// before the spec is persisted.
const MinGeofenceRadiusMeters = 10.0

// GeofenceSpec represents a circular boundary defining an event's premises.
// Center and radius are immutable snapshots owned by the event and are
// mutated only through an explicit update.
type GeofenceSpec struct {
	CenterLatitude  float64 `json:"center_latitude"`  // The geographic latitude of the circle center.
	CenterLongitude float64 `json:"center_longitude"` // The geographic longitude of the circle center.
	RadiusMeters    float64 `json:"radius_meters"`    // The circle radius in meters, never below MinGeofenceRadiusMeters.
}

// ClampRadius returns a copy of the spec with the radius raised to the
// minimum if it falls below it.
func (g GeofenceSpec) ClampRadius() GeofenceSpec {
	if g.RadiusMeters < MinGeofenceRadiusMeters {
		g.RadiusMeters = MinGeofenceRadiusMeters
	}

	return g
}
