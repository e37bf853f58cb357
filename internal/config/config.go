package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoder provider names accepted by GEOCODER.
const (
	GeocoderMapbox = "mapbox"
	GeocoderNone   = "none"
)

const maxBatchSize = 100_000

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Extract location.
	DataDir   string
	BasicFile string
	CertFile  string

	// Record store.
	DBPath     string
	DBInMemory bool

	AircraftMapFile string

	// Import tuning.
	BatchSize     int
	IngestWorkers int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding.
	Geocoder       string
	GeocodeTimeout time.Duration
	GeocodeWorkers int
	GeocodeCountry string

	// Mapbox geocoding configuration.
	MapboxToken   string
	MapboxTimeout time.Duration

	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration

	// Optional normalized-record publication. Empty brokers disables it.
	KafkaBrokers []string
	KafkaTopic   string

	SearchLimit int
}

// BasicPath returns the full path of the person/address extract.
func (c *Config) BasicPath() string { return filepath.Join(c.DataDir, c.BasicFile) }

// CertPath returns the full path of the certificate extract.
func (c *Config) CertPath() string { return filepath.Join(c.DataDir, c.CertFile) }

// KafkaEnabled reports whether normalized records should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	breakerCooldown, err := parseDuration("BREAKER_COOLDOWN", "30s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("BATCH_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	if batchSize > maxBatchSize {
		return nil, fmt.Errorf("invalid BATCH_SIZE: must be at most %d", maxBatchSize)
	}
	ingestWorkers, err := parsePositiveInt("INGEST_WORKERS", max(1, runtime.NumCPU()/2))
	if err != nil {
		return nil, err
	}
	geocodeWorkers, err := parsePositiveInt("GEOCODE_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	breakerMaxFailures, err := parsePositiveInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	searchLimit, err := parsePositiveInt("SEARCH_LIMIT", 200)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	defaultGeocoder := GeocoderNone
	if mapboxToken != "" {
		defaultGeocoder = GeocoderMapbox
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", ".data/faacsv"),
		BasicFile:       sharedcfg.EnvOrDefault("BASIC_FILE", "PILOT_BASIC.csv"),
		CertFile:        sharedcfg.EnvOrDefault("CERT_FILE", "PILOT_CERT.csv"),
		DBPath:          sharedcfg.EnvOrDefault("DB_PATH", ".data/badger"),
		DBInMemory:      os.Getenv("DB_IN_MEMORY") == "true",
		AircraftMapFile: sharedcfg.EnvOrDefault("AIRCRAFT_MAP_FILE", "data/type_ratings_map.csv"),
		BatchSize:       batchSize,
		IngestWorkers:   ingestWorkers,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Geocoder:       strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", defaultGeocoder)),
		GeocodeTimeout: geocodeTimeout,
		GeocodeWorkers: geocodeWorkers,
		GeocodeCountry: sharedcfg.EnvOrDefault("GEOCODE_COUNTRY", "USA"),

		MapboxToken:   mapboxToken,
		MapboxTimeout: mapboxTimeout,

		BreakerMaxFailures: uint32(breakerMaxFailures), //nolint:gosec // bounded by parsePositiveInt
		BreakerCooldown:    breakerCooldown,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "airmen-normalized"),

		SearchLimit: searchLimit,
	}

	switch cfg.Geocoder {
	case GeocoderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	case GeocoderNone:
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: want %s or %s", cfg.Geocoder, GeocoderMapbox, GeocoderNone)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if !cfg.DBInMemory && cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
