package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flightfinder"

// Metrics holds the Prometheus collectors for query interpretation and lookups.
type Metrics struct {
	// Classification metrics.
	Classifications *prometheus.CounterVec   // labels: kind
	SearchDuration  *prometheus.HistogramVec // labels: kind

	// Result cache metrics.
	Cache *prometheus.CounterVec // labels: result={hit,miss}

	// Reference data metrics.
	CatalogSize  *prometheus.GaugeVec // labels: catalog={airports,airlines,index}
	LoadDuration prometheus.Histogram

	// Transport metrics.
	WebSocketClients prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec // labels: route, status
}

func newMetrics() *Metrics {
	return &Metrics{
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Search strings classified, by resulting intent kind.",
		}, []string{"kind"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to classify and resolve a search string.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}, []string{"kind"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_total",
			Help:      "Search result cache lookups by result.",
		}, []string{"result"}),
		CatalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Entries in each loaded reference catalog.",
		}, []string{"catalog"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reference_load_duration_seconds",
			Help:      "Duration of a complete reference data load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live search clients.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Classifications,
		m.SearchDuration,
		m.Cache,
		m.CatalogSize,
		m.LoadDuration,
		m.WebSocketClients,
		m.HTTPRequests,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

// SetCatalogSizes records the size of each reference catalog
func (m *Metrics) SetCatalogSizes(airports, airlines, indexEntries int) {
	m.CatalogSize.WithLabelValues("airports").Set(float64(airports))
	m.CatalogSize.WithLabelValues("airlines").Set(float64(airlines))
	m.CatalogSize.WithLabelValues("index").Set(float64(indexEntries))
}
