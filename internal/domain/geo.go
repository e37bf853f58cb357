package domain

import (
	"context"
	"math"
	"strings"
)

// EarthRadiusMiles is the mean Earth radius in statute miles used for all
// distance calculations.
const EarthRadiusMiles = 3958.7613

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineMiles returns the great-circle distance between a and b in miles.
func HaversineMiles(a, b LatLng) float64 {
	toRad := func(x float64) float64 { return x * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	s := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Pow(math.Sin(dLng/2), 2)
	return 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s)) * EarthRadiusMiles
}

// GeoKey identifies a geocode cache entry. Build it with NewGeoKey.
type GeoKey struct {
	City  string
	State string
}

// NewGeoKey trims both parts and upper-cases them so "Austin"/"AUSTIN " and
// "tx" share one cache entry.
func NewGeoKey(city, state string) GeoKey {
	return GeoKey{
		City:  strings.ToUpper(strings.TrimSpace(city)),
		State: strings.ToUpper(strings.TrimSpace(state)),
	}
}

// Empty reports whether either part of the key is blank.
func (k GeoKey) Empty() bool {
	return k.City == "" || k.State == ""
}

// String renders the key as "CITY|STATE".
func (k GeoKey) String() string {
	return k.City + "|" + k.State
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// HasCoordinates reports whether the provider returned a usable position.
func (r GeocodingResult) HasCoordinates() bool {
	return r.Lat != 0 || r.Lon != 0
}

// LatLng returns the result's position.
func (r GeocodingResult) LatLng() LatLng {
	return LatLng{Lat: r.Lat, Lng: r.Lon}
}

// Geocoder resolves a free-text place query to its single best match. A
// result without coordinates means "no result".
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
