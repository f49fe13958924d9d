// Package geofence gates member self-attendance on device location.
package geofence

import (
	"errors"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distance.
const EarthRadiusMeters = 6371000.0

var (
	// ErrLocationRequired is returned when the venue is configured but the
	// caller sent no coordinates.
	ErrLocationRequired = errors.New("location required")
	// ErrOutsideVenue is returned when the caller is farther than the
	// configured radius from the venue.
	ErrOutsideVenue = errors.New("outside venue")
)

// Venue is the optional venue configuration. The gate is active only when
// all three values are set.
type Venue struct {
	Lat          *float64
	Lng          *float64
	RadiusMeters *float64
}

// Gate checks coordinates against a fixed venue.
type Gate struct {
	venue Venue
}

// New returns a Gate for v.
func New(v Venue) *Gate {
	return &Gate{venue: v}
}

// Required reports whether callers must send coordinates.
func (g *Gate) Required() bool {
	return g != nil && g.venue.Lat != nil && g.venue.Lng != nil && g.venue.RadiusMeters != nil
}

// Check returns nil when the gate is disabled or (lat, lng) is within the
// radius. Distances are compared at one-meter resolution.
func (g *Gate) Check(lat, lng *float64) error {
	if !g.Required() {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrLocationRequired
	}
	d := DistanceMeters(*lat, *lng, *g.venue.Lat, *g.venue.Lng)
	if math.Round(d) > *g.venue.RadiusMeters {
		return ErrOutsideVenue
	}
	return nil
}

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}
