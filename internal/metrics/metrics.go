package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	Namespace        = "reportgest"
	SubsystemAPI     = "api"
	SubsystemExtract = "extract"
	SubsystemFetch   = "fetch"
	SubsystemJobs    = "jobs"
)

// Extraction outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeParseError = "parse_error"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// The Observe and Increment methods are no-ops on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	apiTime *prometheus.HistogramVec

	extractions   *prometheus.CounterVec
	extractTime   prometheus.Histogram
	extractedRows prometheus.Counter

	fetchTime   prometheus.Histogram
	fetchErrors prometheus.Counter

	jobsTotal *prometheus.CounterVec
	queueSize prometheus.GaugeFunc
}

// New registers all collectors. queueDepth, if non-nil, is sampled on scrape.
func New(queueDepth func() int) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.apiTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAPI,
			Name:      "time_seconds",
			Help:      "Time to execute the api handler",
		},
		[]string{"handler", "method", "status_code"},
	)
	m.registry.MustRegister(m.apiTime)

	m.extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemExtract,
			Name:      "total",
			Help:      "Extractions by outcome.",
		},
		[]string{"outcome"},
	)
	m.registry.MustRegister(m.extractions)

	m.extractTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemExtract,
		Name:      "time_seconds",
		Help:      "Time to parse and extract one document.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
	m.registry.MustRegister(m.extractTime)

	m.extractedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemExtract,
		Name:      "rows_total",
		Help:      "Row records emitted across all extractions.",
	})
	m.registry.MustRegister(m.extractedRows)

	m.fetchTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: SubsystemFetch,
		Name:      "time_seconds",
		Help:      "Time to fetch a source document.",
	})
	m.registry.MustRegister(m.fetchTime)

	m.fetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: SubsystemFetch,
		Name:      "errors_total",
		Help:      "Failed fetch attempts.",
	})
	m.registry.MustRegister(m.fetchErrors)

	m.jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemJobs,
			Name:      "total",
			Help:      "Jobs by final status.",
		},
		[]string{"status"},
	)
	m.registry.MustRegister(m.jobsTotal)

	if queueDepth != nil {
		m.queueSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemJobs,
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker.",
		}, func() float64 { return float64(queueDepth()) })
		m.registry.MustRegister(m.queueSize)
	}

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveAPIEndpointDuration(handler, method, statusCode string, elapsed float64) {
	if m == nil {
		return
	}
	m.apiTime.With(prometheus.Labels{"handler": handler, "method": method, "status_code": statusCode}).Observe(elapsed)
}

func (m *Metrics) ObserveExtraction(outcome string, rows int, elapsed float64) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(outcome).Inc()
	m.extractTime.Observe(elapsed)
	if rows > 0 {
		m.extractedRows.Add(float64(rows))
	}
}

func (m *Metrics) ObserveFetch(elapsed float64, err error) {
	if m == nil {
		return
	}
	m.fetchTime.Observe(elapsed)
	if err != nil {
		m.fetchErrors.Inc()
	}
}

func (m *Metrics) IncrementJobs(status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(status).Inc()
}
