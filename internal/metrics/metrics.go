// Package metrics defines the prometheus instruments exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts completed simulation ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "darshan_sim_ticks_total",
		Help: "Total number of completed simulation ticks",
	})

	// SessionsConnected tracks currently connected dashboard sessions.
	SessionsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "darshan_dashboard_sessions",
		Help: "Number of connected dashboard WebSocket sessions",
	})

	// BroadcastsTotal counts hub broadcast calls by outcome.
	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "darshan_broadcasts_total",
		Help: "Total number of per-session broadcast deliveries",
	}, []string{"outcome"})

	// FeedConnections tracks connected analytics feed subscribers per feed.
	FeedConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "darshan_feed_connections",
		Help: "Number of connected analytics feed subscribers",
	}, []string{"feed"})

	// StreamState reports the supervised transcoder state (0=not_started, 1=running, 2=exited).
	StreamState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "darshan_stream_state",
		Help: "Supervised HLS transcoder state (0 not started, 1 running, 2 exited)",
	})

	// CommandsTotal counts mutation commands by kind and outcome.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "darshan_commands_total",
		Help: "Total number of mutation commands processed",
	}, []string{"command", "outcome"})
)
