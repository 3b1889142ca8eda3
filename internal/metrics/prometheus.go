package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphscape_collab_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphscape_collab_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Realtime session metrics
	openConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphscape_collab_open_connections",
			Help: "Number of open realtime connections",
		},
	)

	activeRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphscape_collab_active_rooms",
			Help: "Number of active rooms",
		},
	)

	roomMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphscape_collab_room_members",
			Help: "Number of room membership records",
		},
	)

	pendingBatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphscape_collab_pending_batches",
			Help: "Number of rooms with an unflushed position batch",
		},
	)

	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphscape_collab_messages_total",
			Help: "Total number of inbound realtime messages",
		},
		[]string{"type"},
	)

	batchFlushesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphscape_collab_batch_flushes_total",
			Help: "Total number of coalesced position broadcasts",
		},
	)

	batchedPositionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphscape_collab_batched_positions_total",
			Help: "Total number of position records broadcast in batches",
		},
	)

	droppedUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphscape_collab_dropped_updates_total",
			Help: "Position updates dropped because the sender was in no room",
		},
	)

	authRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphscape_collab_auth_rejections_total",
			Help: "Handshake rejections by reason",
		},
		[]string{"reason"},
	)

	sweptRoomsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphscape_collab_swept_rooms_total",
			Help: "Rooms removed by the stale sweep",
		},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, durationSeconds float64) {
	status := "unknown"
	switch {
	case statusCode >= 200 && statusCode < 300:
		status = "2xx"
	case statusCode >= 300 && statusCode < 400:
		status = "3xx"
	case statusCode >= 400 && statusCode < 500:
		status = "4xx"
	case statusCode >= 500:
		status = "5xx"
	}

	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// ConnectionOpened increments the open connection gauge
func ConnectionOpened() {
	openConnections.Inc()
}

// ConnectionClosed decrements the open connection gauge
func ConnectionClosed() {
	openConnections.Dec()
}

// SetSessionGauges sets the current room and member counts
func SetSessionGauges(rooms, members int) {
	activeRooms.Set(float64(rooms))
	roomMembers.Set(float64(members))
}

// SetPendingBatches sets the count of rooms with an unflushed batch
func SetPendingBatches(count int) {
	pendingBatches.Set(float64(count))
}

// RecordMessage counts one inbound realtime message by type
func RecordMessage(msgType string) {
	messagesTotal.WithLabelValues(msgType).Inc()
}

// RecordBatchFlush counts one coalesced broadcast and its record count
func RecordBatchFlush(records int) {
	batchFlushesTotal.Inc()
	batchedPositionsTotal.Add(float64(records))
}

// RecordDroppedUpdate counts a position update from a roomless sender
func RecordDroppedUpdate() {
	droppedUpdatesTotal.Inc()
}

// RecordAuthRejection counts a rejected handshake by reason
func RecordAuthRejection(reason string) {
	authRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordSweptRooms counts rooms removed by the periodic sweep
func RecordSweptRooms(count int) {
	sweptRoomsTotal.Add(float64(count))
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
