package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dataplanectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dataplanectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	registrationState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dataplanectl",
			Subsystem: "registration",
			Name:      "state",
			Help:      "Current registration state of the node (1 for the active state).",
		},
		[]string{"node", "state"},
	)
	selectorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dataplanectl",
			Subsystem: "selector",
			Name:      "requests_total",
			Help:      "Selector registry calls issued by this node.",
		},
		[]string{"node", "op", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, registrationState, selectorRequests)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordRegistrationState zeroes from and raises to for node.
func RecordRegistrationState(node, from, to string) {
	RegisterMetrics()
	if from != "" {
		registrationState.WithLabelValues(node, from).Set(0)
	}
	registrationState.WithLabelValues(node, to).Set(1)
}

func RecordSelectorCall(node, op string, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	selectorRequests.WithLabelValues(node, op, outcome).Inc()
}
