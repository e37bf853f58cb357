package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	orlando = LatLng{Lat: 28.5384, Lng: -81.3789}
	tampa   = LatLng{Lat: 27.9506, Lng: -82.4572}
	sydney  = LatLng{Lat: -33.8688, Lng: 151.2093}
)

func TestHaversineMiles_Identity(t *testing.T) {
	for _, p := range []LatLng{orlando, tampa, sydney, {}, {Lat: 90, Lng: 0}} {
		assert.Zero(t, HaversineMiles(p, p))
	}
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	assert.InDelta(t, HaversineMiles(orlando, tampa), HaversineMiles(tampa, orlando), 1e-9)
	assert.InDelta(t, HaversineMiles(orlando, sydney), HaversineMiles(sydney, orlando), 1e-9)
}

func TestHaversineMiles_KnownDistances(t *testing.T) {
	assert.InDelta(t, 77.3, HaversineMiles(orlando, tampa), 1.0)

	// A quarter of a meridian is exactly a quarter circumference.
	quarter := HaversineMiles(LatLng{Lat: 0, Lng: 0}, LatLng{Lat: 90, Lng: 0})
	assert.InDelta(t, EarthRadiusMiles*3.141592653589793/2, quarter, 1e-6)
}

func TestNewGeoKey(t *testing.T) {
	k := NewGeoKey("  Orlando ", " fl")
	assert.Equal(t, GeoKey{City: "ORLANDO", State: "FL"}, k)
	assert.Equal(t, "ORLANDO|FL", k.String())
	assert.False(t, k.Empty())

	assert.True(t, NewGeoKey("", "FL").Empty())
	assert.True(t, NewGeoKey("Orlando", "  ").Empty())
}

func TestGeocodingResult_HasCoordinates(t *testing.T) {
	assert.False(t, GeocodingResult{}.HasCoordinates())
	assert.True(t, GeocodingResult{Lat: 28.5}.HasCoordinates())
	assert.Equal(t, LatLng{Lat: 1, Lng: 2}, GeocodingResult{Lat: 1, Lon: 2}.LatLng())
}
