package geofence

import (
	"errors"
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		venue Venue
		want  bool
	}{
		{"unset", Venue{}, false},
		{"missing radius", Venue{Lat: f(0), Lng: f(0)}, false},
		{"missing lng", Venue{Lat: f(0), RadiusMeters: f(100)}, false},
		{"complete", Venue{Lat: f(0), Lng: f(0), RadiusMeters: f(100)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.venue).Required(); got != tt.want {
				t.Errorf("Required() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck_Disabled(t *testing.T) {
	g := New(Venue{Lat: f(10), Lng: f(10)})
	if err := g.Check(nil, nil); err != nil {
		t.Errorf("disabled gate should pass, got %v", err)
	}
}

func TestCheck_Boundary(t *testing.T) {
	g := New(Venue{Lat: f(0), Lng: f(0), RadiusMeters: f(100)})

	tests := []struct {
		name    string
		lat     *float64
		lng     *float64
		wantErr error
	}{
		{"at venue", f(0), f(0), nil},
		{"about 100m", f(0.0009), f(0), nil},
		{"about 1.1km", f(0.01), f(0), ErrOutsideVenue},
		{"no coordinates", nil, nil, ErrLocationRequired},
		{"lat only", f(0), nil, ErrLocationRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Check(tt.lat, tt.lng)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	d := DistanceMeters(0, 0, 0.01, 0)
	if math.Abs(d-1111.95) > 1 {
		t.Errorf("DistanceMeters = %.2f, want about 1111.95", d)
	}
	if DistanceMeters(51.5, -0.12, 51.5, -0.12) != 0 {
		t.Error("distance to self should be zero")
	}
}
