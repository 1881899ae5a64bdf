package binding

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the package's Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "bindkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "binding").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithMetricsSubsystem sets the metrics subsystem.
func WithMetricsSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithMetricsConstLabels sets constant labels for all metrics.
func WithMetricsConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithMetricsRegistry sets the Prometheus registry.
func WithMetricsRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "bindkit",
		Subsystem: "binding",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus metrics for the binding package.
type metrics struct {
	propagations    *prometheus.CounterVec
	transformErrors *prometheus.CounterVec
	activeBindings  prometheus.Gauge
}

// globalMetrics is created on the first call to EnableMetrics. When nil,
// the record helpers are no-ops and bindings carry no metrics overhead
// beyond a nil check.
var (
	globalMetrics   *metrics
	globalMetricsMu sync.Mutex
)

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		propagations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "propagations_total",
			Help:        "Total number of successful binding propagations",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		transformErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transform_errors_total",
			Help:        "Total number of binding updates dropped by failed transforms",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		activeBindings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_bindings",
			Help:        "Number of bindings currently alive",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// EnableMetrics turns on Prometheus metrics for all bindings in the
// process. The first call creates the collectors; later calls are no-ops.
//
// Example:
//
//	binding.EnableMetrics(binding.WithMetricsNamespace("myapp"))
//	http.Handle("/metrics", promhttp.Handler())
func EnableMetrics(opts ...MetricsOption) {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = initMetrics(config)
	}
}

func recordBindingCreated() {
	if globalMetrics != nil {
		globalMetrics.activeBindings.Inc()
	}
}

func recordBindingReleased() {
	if globalMetrics != nil {
		globalMetrics.activeBindings.Dec()
	}
}

func recordPropagation(dir Direction) {
	if globalMetrics != nil {
		globalMetrics.propagations.WithLabelValues(dir.String()).Inc()
	}
}

func recordTransformError(dir Direction) {
	if globalMetrics != nil {
		globalMetrics.transformErrors.WithLabelValues(dir.String()).Inc()
	}
}
