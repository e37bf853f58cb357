package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/airmen-search-service/internal/adapter/badger"
	"github.com/couchcryptid/airmen-search-service/internal/adapter/extract"
	kafkaadapter "github.com/couchcryptid/airmen-search-service/internal/adapter/kafka"
	"github.com/couchcryptid/airmen-search-service/internal/adapter/mapbox"
	"github.com/couchcryptid/airmen-search-service/internal/aircraft"
	"github.com/couchcryptid/airmen-search-service/internal/config"
	"github.com/couchcryptid/airmen-search-service/internal/domain"
	"github.com/couchcryptid/airmen-search-service/internal/geo"
	"github.com/couchcryptid/airmen-search-service/internal/observability"
	"github.com/couchcryptid/airmen-search-service/internal/pipeline"
	"github.com/couchcryptid/airmen-search-service/internal/search"
)

// processMetrics registers with the default registry once per process, so
// several commands may run in one process (as tests do).
var processMetrics = sync.OnceValue(observability.NewMetrics)

// env holds the components shared by every command.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	store   *badger.Backend
	files   extract.Files
	closers []func() error
}

func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)

	store, err := badger.OpenBackend(cfg.DBPath, cfg.DBInMemory, logger)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		metrics: processMetrics(),
		store:   store,
		files:   extract.Files{Basic: cfg.BasicPath(), Cert: cfg.CertPath()},
	}
	e.closers = append(e.closers, store.Close)
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Error("close error", "error", err)
		}
	}
}

func (e *env) pipeline() *pipeline.Pipeline {
	// The publisher stays a nil interface when Kafka is disabled.
	var publisher pipeline.Publisher
	if e.cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(e.cfg, e.logger)
		e.closers = append(e.closers, w.Close)
		publisher = w
		e.logger.Info("kafka publication enabled", "brokers", e.cfg.KafkaBrokers, "topic", e.cfg.KafkaTopic)
	}
	return pipeline.New(e.files, e.store, publisher, e.logger, e.metrics, e.cfg.BatchSize, e.cfg.IngestWorkers)
}

func (e *env) geocoder() domain.Geocoder {
	if e.cfg.Geocoder != config.GeocoderMapbox {
		e.logger.Info("geocoding provider disabled; radius search uses cached locations only")
		return nil
	}
	client := mapbox.NewClient(e.cfg.MapboxToken, e.cfg.MapboxTimeout, e.logger)
	e.logger.Info("mapbox geocoding enabled", "timeout", e.cfg.MapboxTimeout, "breaker_max_failures", e.cfg.BreakerMaxFailures)
	return mapbox.NewBreakerGeocoder(client, e.cfg.BreakerMaxFailures, e.cfg.BreakerCooldown, e.logger)
}

func (e *env) mapper() (*aircraft.Mapper, error) {
	m, err := aircraft.Load(e.cfg.AircraftMapFile)
	if err != nil {
		return nil, err
	}
	e.logger.Info("aircraft table loaded", "path", e.cfg.AircraftMapFile, "entries", m.Len())
	return m, nil
}

func (e *env) engine(mapper *aircraft.Mapper) (*search.Engine, error) {
	resolver := geo.NewResolver(e.store, e.geocoder(), e.cfg.GeocodeTimeout, e.cfg.GeocodeCountry, e.logger, e.metrics)
	eng, err := search.NewEngine(e.store, mapper, resolver, e.cfg.GeocodeWorkers, e.cfg.SearchLimit, e.logger, e.metrics)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func() error { eng.Close(); return nil })
	return eng, nil
}
