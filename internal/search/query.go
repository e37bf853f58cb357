package search

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// ErrInvalidQuery is wrapped by every query validation failure.
var ErrInvalidQuery = errors.New("invalid query")

// Query is a qualification search with an optional radius filter.
type Query struct {
	Aircraft   string
	State      string
	City       string
	RadiusMi   float64
	MinLevel   string
	Instrument bool
	Multi      bool
}

// DefaultQuery returns the query used when no parameters are given:
// commercial or better, instrument rated, multi-engine rated.
func DefaultQuery() Query {
	return Query{MinLevel: "C", Instrument: true, Multi: true}
}

// Normalize trims every text field and upper-cases State and MinLevel.
// An empty MinLevel becomes "C".
func (q *Query) Normalize() {
	q.Aircraft = strings.TrimSpace(q.Aircraft)
	q.State = strings.ToUpper(strings.TrimSpace(q.State))
	q.City = strings.TrimSpace(q.City)
	q.MinLevel = strings.ToUpper(strings.TrimSpace(q.MinLevel))
	if q.MinLevel == "" {
		q.MinLevel = "C"
	}
}

// Validate reports the first invalid field. Call Normalize first.
func (q Query) Validate() error {
	if q.State != "" && !isStateCode(q.State) {
		return fmt.Errorf("%w: state must be a 2-letter code, got %q", ErrInvalidQuery, q.State)
	}
	if !domain.ValidLevel(q.MinLevel) {
		return fmt.Errorf("%w: minLevel must be one of S, T, V, P, C, A, got %q", ErrInvalidQuery, q.MinLevel)
	}
	if math.IsNaN(q.RadiusMi) || math.IsInf(q.RadiusMi, 0) || q.RadiusMi < 0 {
		return fmt.Errorf("%w: radiusMi must be a non-negative number", ErrInvalidQuery)
	}
	return nil
}

// GeoRequested reports whether the radius filter applies.
func (q Query) GeoRequested() bool {
	return q.City != "" && q.State != "" && q.RadiusMi > 0
}

// ParseQuery builds a normalized, validated Query from URL parameters:
// aircraft, state, city, radiusMi, minLevel, instrument, multi.
func ParseQuery(v url.Values) (Query, error) {
	q := DefaultQuery()
	q.Aircraft = v.Get("aircraft")
	q.State = v.Get("state")
	q.City = v.Get("city")
	if s := strings.TrimSpace(v.Get("minLevel")); s != "" {
		q.MinLevel = s
	}

	var err error
	if s := strings.TrimSpace(v.Get("radiusMi")); s != "" {
		if q.RadiusMi, err = strconv.ParseFloat(s, 64); err != nil {
			return Query{}, fmt.Errorf("%w: radiusMi must be a number, got %q", ErrInvalidQuery, s)
		}
	}
	if q.Instrument, err = parseBool(v, "instrument", q.Instrument); err != nil {
		return Query{}, err
	}
	if q.Multi, err = parseBool(v, "multi", q.Multi); err != nil {
		return Query{}, err
	}

	q.Normalize()
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

func parseBool(v url.Values, key string, def bool) (bool, error) {
	s := strings.TrimSpace(v.Get(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidQuery, key, s)
	}
	return b, nil
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
