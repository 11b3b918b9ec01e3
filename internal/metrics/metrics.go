package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubSubscribers tracks the number of currently connected subscribers
	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_subscribers",
			Help: "Number of currently connected live-update subscribers",
		},
	)

	// HubEventsPublishedTotal tracks events handed to the hub for fan-out
	HubEventsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_events_published_total",
			Help: "Total change events broadcast through the hub",
		},
	)

	// HubEventsDroppedTotal tracks events discarded from saturated inboxes
	HubEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_events_dropped_total",
			Help: "Total events dropped from full subscriber inboxes (oldest first)",
		},
	)

	// HubHeartbeatsTotal tracks heartbeat frames sent to idle subscribers
	HubHeartbeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_heartbeats_total",
			Help: "Total keep-alive heartbeats sent on live streams",
		},
	)
)

// Mutation metrics
var (
	// BulkMutationsTotal tracks bulk mutation outcomes
	BulkMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_mutations_total",
			Help: "Total bulk mutations by outcome (applied, conflict, invalid)",
		},
		[]string{"outcome"},
	)

	// BulkConflictsTotal tracks individual version conflicts inside rejected batches
	BulkConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bulk_conflicts_total",
			Help: "Total per-target version conflicts reported to callers",
		},
	)

	// BulkTargetsUpdated tracks how many projects each applied batch touched
	BulkTargetsUpdated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulk_targets_updated",
			Help:    "Projects updated per successful bulk mutation",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// Relay metrics
var (
	// RelayPublishedTotal tracks events forwarded to the cross-instance channel
	RelayPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_published_total",
			Help: "Total change events published to the cross-instance relay",
		},
	)

	// RelayDroppedTotal tracks events dropped because the relay queue was full
	// or the circuit breaker was open
	RelayDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_dropped_total",
			Help: "Total change events the relay discarded instead of publishing",
		},
	)

	// RelayReceivedTotal tracks events received from other instances
	RelayReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_received_total",
			Help: "Total change events received from other instances",
		},
	)
)

// Stream metrics
var (
	// StreamConnectionsActive tracks currently open live-stream connections
	StreamConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_connections_active",
			Help: "Currently open SSE and WebSocket stream connections",
		},
	)

	// StreamConnectionsRejected tracks connections refused by the global limiter
	StreamConnectionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_connections_rejected_total",
			Help: "Stream connections rejected because the instance was at capacity",
		},
	)
)
