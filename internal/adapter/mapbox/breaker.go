package mapbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
)

// BreakerGeocoder stops calling the wrapped geocoder after maxFailures
// consecutive errors and fails fast until cooldown has passed.
type BreakerGeocoder struct {
	inner domain.Geocoder
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerGeocoder wraps inner with a circuit breaker.
func NewBreakerGeocoder(inner domain.Geocoder, maxFailures uint32, cooldown time.Duration, logger *slog.Logger) *BreakerGeocoder {
	if maxFailures == 0 {
		maxFailures = 1
	}
	st := gobreaker.Settings{
		Name:        "mapbox",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller giving up is not a provider failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerGeocoder{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(st),
	}
}

// ForwardGeocode implements domain.Geocoder. While the breaker is open it
// returns gobreaker.ErrOpenState without calling the provider.
func (b *BreakerGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.ForwardGeocode(ctx, query)
	})
	if err != nil {
		return domain.GeocodingResult{}, err
	}
	return res.(domain.GeocodingResult), nil
}

// State reports the breaker state, for logging and tests.
func (b *BreakerGeocoder) State() gobreaker.State {
	return b.cb.State()
}
