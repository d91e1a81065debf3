// Package observability exposes Prometheus metrics and a localhost-only
// pprof/debug server for the arena engine and its transport layer.
package observability

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics deliberately carry no per-player labels: label cardinality must
// stay bounded regardless of how many players ever connect.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent executing one engine tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	subTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_subtick_duration_seconds",
		Help:    "Time spent executing one sub-tick across all live players",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_player_count",
		Help: "Current number of known players",
	})

	roundState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_round_state",
		Help: "Round state: 0=idle, 1=countdown, 2=playing",
	})

	roundsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_rounds_completed_total",
		Help: "Total rounds that have reached round_over",
	})

	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_event_log_total",
		Help: "Total events accepted into the audit trail",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_event_log_dropped_total",
		Help: "Events dropped by the audit trail due to rate limiting or buffer pressure",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_websocket_messages_total",
		Help: "Total outbound WebSocket messages sent",
	})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})
)

// Config configures the debug server.
type Config struct {
	Enabled    bool
	ListenAddr string // must be loopback; enforced by StartDebugServer
}

// DefaultConfig returns safe defaults: enabled, bound to localhost only.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the pprof + /metrics + /healthz server. It refuses
// to bind anywhere but loopback unless ALLOW_DEBUG_EXTERNAL=true is set,
// since pprof endpoints are themselves a DoS surface.
func StartDebugServer(cfg Config) error {
	if !cfg.Enabled {
		log.Println("debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("debug server starting on %s", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			log.Printf("debug server error: %v", err)
		}
	}()

	return nil
}

// RecordTick records a tick's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// RecordSubTick records a sub-tick's wall-clock duration.
func RecordSubTick(d time.Duration) { subTickDuration.Observe(d.Seconds()) }

// UpdatePlayerCount sets the player count gauge.
func UpdatePlayerCount(count int) { playerCount.Set(float64(count)) }

// UpdateRoundState sets the round state gauge (0=idle, 1=countdown, 2=playing).
func UpdateRoundState(state int) { roundState.Set(float64(state)) }

// RecordRoundCompleted increments the completed-rounds counter.
func RecordRoundCompleted() { roundsCompleted.Inc() }

// UpdateEventLogStats adds to the audit trail's running totals. Counters only
// move forward, so callers must pass deltas, not the cumulative totals
// EventLog.Stats reports. Nothing in this module calls it, so the event-log
// counters stay at zero unless a caller feeds them.
func UpdateEventLogStats(totalDelta, droppedDelta uint64) {
	eventLogTotal.Add(float64(totalDelta))
	eventLogDropped.Add(float64(droppedDelta))
}

// RecordConnectionRejected increments the rejection counter for reason, which
// must be one of a small, known set of values (bounded cardinality).
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections sets the active WebSocket connection gauge.
func UpdateWSConnections(count int) { wsConnectionsActive.Set(float64(count)) }

// IncrementWSMessages increments the outbound WebSocket message counter.
func IncrementWSMessages() { wsMessagesTotal.Inc() }

// RecordRequest records one HTTP request's latency and outcome. path must be
// a route pattern, never a raw URL, to keep label cardinality bounded.
func RecordRequest(method, path string, status int, d time.Duration) {
	requestLatency.WithLabelValues(method, path).Observe(d.Seconds())
	requestTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
}
