package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcomes shared by client and server call metrics.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeUnknown        = "unknown_endpoint"
	OutcomeBackendError   = "backend_error"
	OutcomeUnauthorized   = "unauthorized"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipcwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ipcwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	clientCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipcwire",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Remote calls issued by the client, by outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	clientCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ipcwire",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Remote call round trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "outcome"},
	)
	dispatchedCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ipcwire",
			Subsystem: "server",
			Name:      "dispatched_calls_total",
			Help:      "Calls dispatched to the backend, by transport and outcome.",
		},
		[]string{"transport", "endpoint", "outcome"},
	)
	frameConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ipcwire",
			Subsystem: "server",
			Name:      "frame_connections",
			Help:      "Open framed transport connections.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			clientCalls,
			clientCallDuration,
			dispatchedCalls,
			frameConns,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordClientCall(endpoint, outcome string, duration time.Duration) {
	RegisterMetrics()
	clientCalls.WithLabelValues(endpoint, outcome).Inc()
	clientCallDuration.WithLabelValues(endpoint, outcome).Observe(duration.Seconds())
}

func RecordDispatch(transport, endpoint, outcome string) {
	RegisterMetrics()
	dispatchedCalls.WithLabelValues(transport, endpoint, outcome).Inc()
}

// TrackFrameConn increments the open connection gauge and returns its release.
func TrackFrameConn() func() {
	RegisterMetrics()
	frameConns.Inc()
	return frameConns.Dec
}
