// Package geo resolves city/state pairs to coordinates and filters points by
// great-circle distance.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/observability"
)

// CacheStore persists resolved locations across runs.
type CacheStore interface {
	GetGeocode(ctx context.Context, k domain.GeoKey) (domain.LatLng, bool, error)
	PutGeocode(ctx context.Context, k domain.GeoKey, loc domain.LatLng) error
}

// Resolver answers "where is CITY, STATE" from the cache first and the
// geocoding provider second. Failed lookups are never cached, so a later
// call retries the provider.
type Resolver struct {
	cache    CacheStore
	provider domain.Geocoder
	timeout  time.Duration
	country  string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver. A nil provider makes every cache miss
// unresolvable.
func NewResolver(cache CacheStore, provider domain.Geocoder, timeout time.Duration, country string, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		timeout:  timeout,
		country:  country,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resolve returns the coordinates of city/state. The second result is
// false when the location is unresolvable; callers treat that as a missing
// location, never as an error.
func (r *Resolver) Resolve(ctx context.Context, city, state string) (domain.LatLng, bool) {
	key := domain.NewGeoKey(city, state)
	if key.Empty() {
		return domain.LatLng{}, false
	}

	loc, ok, err := r.cache.GetGeocode(ctx, key)
	switch {
	case err != nil:
		r.logger.Warn("geocode cache read failed", "key", key.String(), "error", err)
	case ok:
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return loc, true
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	if r.provider == nil {
		return domain.LatLng{}, false
	}

	loc, ok = r.lookup(ctx, key)
	if !ok {
		return domain.LatLng{}, false
	}

	if err := r.cache.PutGeocode(ctx, key, loc); err != nil {
		r.metrics.GeocodeCacheWrites.WithLabelValues("failed").Inc()
		r.logger.Warn("geocode cache write failed", "key", key.String(), "error", err)
	} else {
		r.metrics.GeocodeCacheWrites.WithLabelValues("stored").Inc()
	}
	return loc, true
}

func (r *Resolver) lookup(ctx context.Context, key domain.GeoKey) (domain.LatLng, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res, err := r.provider.ForwardGeocode(ctx, r.query(key))
	r.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		r.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
		r.logger.Warn("geocode failed", "key", key.String(), "outcome", outcome, "error", err)
		return domain.LatLng{}, false
	}
	if !res.HasCoordinates() {
		r.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		r.logger.Debug("geocode returned no match", "key", key.String())
		return domain.LatLng{}, false
	}

	r.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return res.LatLng(), true
}

// query formats the provider query as "City, ST, Country".
func (r *Resolver) query(key domain.GeoKey) string {
	parts := []string{key.City, key.State}
	if r.country != "" {
		parts = append(parts, r.country)
	}
	return strings.Join(parts, ", ")
}
