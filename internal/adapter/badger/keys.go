package badger

import (
	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// Key prefixes for different data types
const (
	airmanPrefix  = "airman:"
	geocodePrefix = "geo:"
	importMetaKey = "meta:import"
)

// makeAirmanKey generates the key for one airman by unique id.
func makeAirmanKey(uniqueID string) []byte {
	return []byte(airmanPrefix + uniqueID)
}

// makeGeocodeKey generates the key for a cached city/state location.
// Format: geo:CITY|STATE
func makeGeocodeKey(k domain.GeoKey) []byte {
	return []byte(geocodePrefix + k.String())
}
