package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements the Collector interface using Prometheus metrics.
type PrometheusCollector struct {
	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge

	workersSpawnedTotal *prometheus.CounterVec
	workersRetiredTotal *prometheus.CounterVec

	commandsTotal *prometheus.CounterVec

	authAttemptsTotal *prometheus.CounterVec

	cipsPostedTotal     prometheus.Counter
	followsProcessedTotal *prometheus.CounterVec
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robin_connections_total",
			Help: "Total number of connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "robin_connections_active",
			Help: "Number of currently active connections.",
		}),

		workersSpawnedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robin_workers_spawned_total",
			Help: "Total number of worker-pool dispatches, by worker kind.",
		}, []string{"kind"}),
		workersRetiredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robin_workers_retired_total",
			Help: "Total number of workers that finished serving a connection, by worker kind.",
		}, []string{"kind"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robin_commands_total",
			Help: "Total number of Robin commands processed, by opcode.",
		}, []string{"opcode"}),

		authAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robin_auth_attempts_total",
			Help: "Total number of register/login attempts.",
		}, []string{"result"}),

		cipsPostedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "robin_cips_posted_total",
			Help: "Total number of cips posted.",
		}),
		followsProcessedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "robin_follows_processed_total",
			Help: "Total number of follow targets processed, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.connectionsTotal,
		c.connectionsActive,
		c.workersSpawnedTotal,
		c.workersRetiredTotal,
		c.commandsTotal,
		c.authAttemptsTotal,
		c.cipsPostedTotal,
		c.followsProcessedTotal,
	)

	return c
}

// ConnectionOpened increments the connection counter and active gauge.
func (c *PrometheusCollector) ConnectionOpened() {
	c.connectionsTotal.Inc()
	c.connectionsActive.Inc()
}

// ConnectionClosed decrements the active connections gauge.
func (c *PrometheusCollector) ConnectionClosed() {
	c.connectionsActive.Dec()
}

// WorkerSpawned increments the worker-dispatch counter for kind.
func (c *PrometheusCollector) WorkerSpawned(kind string) {
	c.workersSpawnedTotal.WithLabelValues(kind).Inc()
}

// WorkerRetired increments the worker-retirement counter for kind.
func (c *PrometheusCollector) WorkerRetired(kind string) {
	c.workersRetiredTotal.WithLabelValues(kind).Inc()
}

// CommandProcessed increments the command counter.
func (c *PrometheusCollector) CommandProcessed(opcode string) {
	c.commandsTotal.WithLabelValues(opcode).Inc()
}

// AuthAttempt increments the auth attempts counter.
func (c *PrometheusCollector) AuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.authAttemptsTotal.WithLabelValues(result).Inc()
}

// CipPosted increments the cips-posted counter.
func (c *PrometheusCollector) CipPosted() {
	c.cipsPostedTotal.Inc()
}

// FollowProcessed increments the follow-result counter for the given
// per-target outcome code (directory.FollowCode*).
func (c *PrometheusCollector) FollowProcessed(code int) {
	c.followsProcessedTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}
