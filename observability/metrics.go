package observability

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the bounty rooms.
// A nil *Metrics is valid and records nothing, which keeps unit tests free of registries.
type Metrics struct {
	registry        *prometheus.Registry
	depositsTotal   *prometheus.CounterVec
	activityTotal   *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	eventsDropped   prometheus.Counter
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
	connections     prometheus.Gauge
	processCPU      prometheus.Gauge
	processRSS      prometheus.Gauge
	mirroredRooms   prometheus.Counter
	queueLength     *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		depositsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bounty_deposits_total",
			Help: "Deposits reported, by outcome (accepted, rejected)",
		}, []string{"outcome"}),
		activityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bounty_activity_total",
			Help: "Activity reports, by outcome (applied, stale)",
		}, []string{"outcome"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bounty_deliveries_total",
			Help: "Events delivered to viewer connections, by outcome (ok, failed)",
		}, []string{"outcome"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bounty_events_dropped_total",
			Help: "Events dropped because the dispatch queue was full",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bounty_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bounty_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bounty_viewer_connections",
			Help: "Number of connected viewers",
		}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bounty_process_cpu_percent",
			Help: "CPU usage of the server process",
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bounty_process_rss_bytes",
			Help: "Resident memory of the server process",
		}),
		mirroredRooms: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bounty_mirrored_rooms_total",
			Help: "Room books written to the ledger mirror",
		}),
		queueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bounty_queue_length",
			Help: "Pending items in an internal queue",
		}, []string{"queue"}),
	}

	registry.MustRegister(
		m.depositsTotal,
		m.activityTotal,
		m.deliveriesTotal,
		m.eventsDropped,
		m.requestsTotal,
		m.errorsTotal,
		m.connections,
		m.processCPU,
		m.processRSS,
		m.mirroredRooms,
		m.queueLength,
	)
	return m
}

func (m *Metrics) DepositAccepted() {
	if m != nil {
		m.depositsTotal.WithLabelValues("accepted").Inc()
	}
}

func (m *Metrics) DepositRejected() {
	if m != nil {
		m.depositsTotal.WithLabelValues("rejected").Inc()
	}
}

func (m *Metrics) ActivityApplied() {
	if m != nil {
		m.activityTotal.WithLabelValues("applied").Inc()
	}
}

func (m *Metrics) ActivityStale() {
	if m != nil {
		m.activityTotal.WithLabelValues("stale").Inc()
	}
}

func (m *Metrics) Delivered() {
	if m != nil {
		m.deliveriesTotal.WithLabelValues("ok").Inc()
	}
}

func (m *Metrics) DeliveryFailed() {
	if m != nil {
		m.deliveriesTotal.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) EventDropped() {
	if m != nil {
		m.eventsDropped.Inc()
	}
}

func (m *Metrics) IncRequests() {
	if m != nil {
		m.requestsTotal.Inc()
	}
}

func (m *Metrics) IncErrors() {
	if m != nil {
		m.errorsTotal.Inc()
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) RoomsMirrored(n int) {
	if m != nil {
		m.mirroredRooms.Add(float64(n))
	}
}

func (m *Metrics) SetProcess(cpuPercent float64, rssBytes uint64) {
	if m != nil {
		m.processCPU.Set(cpuPercent)
		m.processRSS.Set(float64(rssBytes))
	}
}

func (m *Metrics) SetQueueLength(queue string, length int) {
	if m != nil {
		m.queueLength.WithLabelValues(queue).Set(float64(length))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RequestMiddleware is chi-compatible middleware counting requests and error responses.
// The chi wrapper keeps http.Hijacker so websocket upgrades pass through.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrap := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrap, r)
			m.IncRequests()
			if wrap.Status() >= 400 {
				m.IncErrors()
			}
		})
	}
}
