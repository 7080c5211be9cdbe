package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "haracho"

// Launch outcome labels.
const (
	StatusOK         = "ok"
	StatusFailed     = "failed"
	StatusArgsFailed = "invalid_args"
)

// Dispatch contains the dispatch engine metrics.
type Dispatch struct {
	EventsReceived     *prometheus.CounterVec
	MessagesDiscarded  prometheus.Counter
	ContractViolations prometheus.Counter
	Matches            *prometheus.CounterVec
	Launches           *prometheus.CounterVec
	LaunchDuration     *prometheus.HistogramVec
	Ready              prometheus.Gauge
}

// NewDispatch creates unregistered dispatch metrics.
func NewDispatch() *Dispatch {
	return &Dispatch{
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "received_total",
				Help:      "Client events consumed by the dispatch loop",
			},
			[]string{"client", "kind"},
		),
		MessagesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "discarded_total",
			Help:      "Messages discarded because their content was blank",
		}),
		ContractViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "contract_violations_total",
			Help:      "Message events delivered before the client was ready",
		}),
		Matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "matches_total",
				Help:      "Launch conditions matched by inbound messages",
			},
			[]string{"service", "kind"},
		),
		Launches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "launches_total",
				Help:      "Service launches by outcome",
			},
			[]string{"service", "status"},
		),
		LaunchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "launch_duration_seconds",
				Help:      "Service launch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "ready",
			Help:      "1 once the client reported ready",
		}),
	}
}

func (d *Dispatch) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		d.EventsReceived,
		d.MessagesDiscarded,
		d.ContractViolations,
		d.Matches,
		d.Launches,
		d.LaunchDuration,
		d.Ready,
	}
}

// ObserveLaunch records the outcome of one service launch.
func (d *Dispatch) ObserveLaunch(service, status string, elapsed time.Duration) {
	if d == nil {
		return
	}
	d.Launches.WithLabelValues(service, status).Inc()
	if status != StatusArgsFailed {
		d.LaunchDuration.WithLabelValues(service).Observe(elapsed.Seconds())
	}
}

// Registry owns the prometheus registry exposed by the status server.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Dispatch           *Dispatch
}

// NewRegistry registers dispatch metrics plus Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	dispatch := NewDispatch()

	reg.MustRegister(dispatch.collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{prometheusRegistry: reg, Dispatch: dispatch}
}

func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}
