// Package search answers qualification queries over the normalized record
// store, with optional aircraft-type and radius filtering.
package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/geo"
	"github.com/couchcryptid/airmen-search-service/internal/observability"
)

// DefaultLimit caps the number of results returned by a search.
const DefaultLimit = 200

// Finder returns the airmen matching the scalar store filter.
type Finder interface {
	FindAirmen(ctx context.Context, f domain.StoreFilter) ([]domain.Airman, error)
}

// AircraftMapper maps a free-text aircraft name to type-rating codes.
type AircraftMapper interface {
	Map(q string) []string
}

// Resolver resolves a city/state pair to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, city, state string) (domain.LatLng, bool)
}

// Result is one matching airman as returned to callers.
type Result struct {
	UniqueID          string   `json:"uniqueId"`
	FirstName         string   `json:"firstName"`
	LastName          string   `json:"lastName"`
	Name              string   `json:"name"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	CertificateLevels []string `json:"certificateLevels"`
	Ratings           []string `json:"ratings"`
	TypeRatings       []string `json:"typeRatings"`
}

// Response is the outcome of one search.
type Response struct {
	Results []Result `json:"results"`
	// TypeCodes are the codes the aircraft query mapped to. Empty means
	// the aircraft filter was not applied.
	TypeCodes []string `json:"typeCodes"`
	// GeoApplied is false when no radius was requested or the query
	// location could not be resolved.
	GeoApplied bool `json:"geoApplied"`
	Truncated  bool `json:"truncated"`
}

// Engine runs searches. It is safe for concurrent use.
type Engine struct {
	finder   Finder
	mapper   AircraftMapper
	resolver Resolver
	pool     *ants.Pool
	limit    int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEngine creates an Engine. resolver may be nil, which disables the
// radius filter. workers bounds concurrent geocode resolutions.
func NewEngine(finder Finder, mapper AircraftMapper, resolver Resolver, workers, limit int, logger *slog.Logger, metrics *observability.Metrics) (*Engine, error) {
	if workers < 1 {
		workers = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Engine{
		finder:   finder,
		mapper:   mapper,
		resolver: resolver,
		pool:     pool,
		limit:    limit,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Close releases the geocoding worker pool.
func (e *Engine) Close() {
	e.pool.Release()
}

// Search applies, in order: state, instrument and multi-engine predicates
// (evaluated by the store), the minimum certificate level, the aircraft
// type match, and the radius filter. Results are ordered by last name,
// first name and unique id, then capped.
func (e *Engine) Search(ctx context.Context, q Query) (Response, error) {
	start := time.Now()
	q.Normalize()
	if err := q.Validate(); err != nil {
		return Response{}, err
	}

	candidates, err := e.finder.FindAirmen(ctx, domain.StoreFilter{
		State:             q.State,
		RequireInstrument: q.Instrument,
		RequireMulti:      q.Multi,
	})
	if err != nil {
		return Response{}, err
	}

	codes := e.mapper.Map(q.Aircraft)
	matched := make([]domain.Airman, 0, len(candidates))
	for _, a := range candidates {
		if !domain.MeetsMinimumLevel(a.CertificateLevels, q.MinLevel) {
			continue
		}
		if len(codes) > 0 && !holdsAnyType(a, codes) {
			continue
		}
		matched = append(matched, a)
	}

	slices.SortFunc(matched, func(a, b domain.Airman) int {
		return cmp.Or(
			cmp.Compare(a.LastName, b.LastName),
			cmp.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.UniqueID, b.UniqueID),
		)
	})

	resp := Response{TypeCodes: codes}
	if resp.TypeCodes == nil {
		resp.TypeCodes = []string{}
	}
	if q.GeoRequested() && e.resolver != nil {
		if center, ok := e.resolver.Resolve(ctx, q.City, q.State); ok {
			matched = e.withinRadius(ctx, center, q.RadiusMi, matched)
			resp.GeoApplied = true
		} else {
			e.logger.Info("query location unresolved, radius filter skipped", "city", q.City, "state", q.State)
		}
	}

	if len(matched) > e.limit {
		matched = matched[:e.limit]
		resp.Truncated = true
	}
	resp.Results = make([]Result, 0, len(matched))
	for _, a := range matched {
		resp.Results = append(resp.Results, toResult(a))
	}

	e.metrics.Searches.Inc()
	e.metrics.SearchResults.Observe(float64(len(resp.Results)))
	e.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return resp, nil
}

// withinRadius keeps the candidates whose own location resolves and lies
// within radiusMi of center. Order is preserved. Each distinct location is
// resolved once, in parallel.
func (e *Engine) withinRadius(ctx context.Context, center domain.LatLng, radiusMi float64, candidates []domain.Airman) []domain.Airman {
	locs := e.resolveAll(ctx, candidates)

	points := make([]geo.Point, 0, len(candidates))
	for _, a := range candidates {
		if loc, ok := locs[domain.NewGeoKey(a.City, a.State)]; ok {
			points = append(points, geo.Point{ID: a.UniqueID, Loc: loc})
		}
	}

	keep := make(map[string]struct{}, len(points))
	for _, id := range geo.WithinRadius(center, radiusMi, points) {
		keep[id] = struct{}{}
	}

	out := candidates[:0]
	for _, a := range candidates {
		if _, ok := keep[a.UniqueID]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) resolveAll(ctx context.Context, candidates []domain.Airman) map[domain.GeoKey]domain.LatLng {
	keys := make(map[domain.GeoKey]struct{})
	for _, a := range candidates {
		if k := domain.NewGeoKey(a.City, a.State); !k.Empty() {
			keys[k] = struct{}{}
		}
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		locs = make(map[domain.GeoKey]domain.LatLng, len(keys))
	)
	resolve := func(k domain.GeoKey) {
		loc, ok := e.resolver.Resolve(ctx, k.City, k.State)
		if !ok {
			return
		}
		mu.Lock()
		locs[k] = loc
		mu.Unlock()
	}

	for k := range keys {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			resolve(k)
		}
		if err := e.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return locs
}

func holdsAnyType(a domain.Airman, codes []string) bool {
	for _, t := range a.TypeRatings {
		if slices.Contains(codes, t.TypeCode) {
			return true
		}
	}
	return false
}

func toResult(a domain.Airman) Result {
	r := Result{
		UniqueID:          a.UniqueID,
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Name:              strings.TrimSpace(a.FirstName + " " + a.LastName),
		City:              a.City,
		State:             a.State,
		CertificateLevels: a.CertificateLevels,
		Ratings:           a.RatingCodes(),
		TypeRatings:       a.TypeCodes(),
	}
	if r.CertificateLevels == nil {
		r.CertificateLevels = []string{}
	}
	return r
}
