package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airmen"

// Metrics holds the Prometheus counters and histograms for import, search,
// and geocoding.
type Metrics struct {
	// Import metrics.
	PersonsIngested         prometheus.Counter
	RowsSkipped             *prometheus.CounterVec // labels: reason
	FieldAnomalies          *prometheus.CounterVec // labels: field
	FactsWritten            *prometheus.CounterVec // labels: kind={certificate,rating,type_rating}
	BatchProcessingDuration prometheus.Histogram
	ImportRunning           prometheus.Gauge

	// Search metrics.
	Searches       prometheus.Counter
	SearchDuration prometheus.Histogram
	SearchResults  prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,empty,error,timeout}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeCacheWrites *prometheus.CounterVec // labels: outcome={stored,failed}
	GeocodeAPIDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		PersonsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persons_ingested_total",
			Help:      "Total airmen written to the record store.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Person rows skipped during import, by reason.",
		}, []string{"reason"}),
		FieldAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_anomalies_total",
			Help:      "Fields that failed to parse and were treated as absent.",
		}, []string{"field"}),
		FactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_written_total",
			Help:      "Certificate, rating, and type-rating facts written.",
		}, []string{"kind"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of normalizing and writing one import batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ImportRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_running",
			Help:      "1 while an import is in progress.",
		}),
		Searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total search requests executed.",
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration including geocoding.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeCacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_writes_total",
			Help:      "Geocode cache writes by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PersonsIngested,
		m.RowsSkipped,
		m.FieldAnomalies,
		m.FactsWritten,
		m.BatchProcessingDuration,
		m.ImportRunning,
		m.Searches,
		m.SearchDuration,
		m.SearchResults,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeCacheWrites,
		m.GeocodeAPIDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
