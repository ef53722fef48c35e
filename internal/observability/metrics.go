package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain collectors. Label values are drawn from small fixed sets (bucket
// names, table names, outcome words) so cardinality stays bounded.
var (
	// Uploads counts upload attempts by bucket and outcome
	// (ok|retried|fallback|rejected|error).
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportdesk_uploads_total",
			Help: "Object uploads by bucket and outcome.",
		},
		[]string{"bucket", "outcome"},
	)

	// RealtimeEvents counts change events accepted by the hub.
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportdesk_realtime_events_total",
			Help: "Realtime change events published, by table and type.",
		},
		[]string{"table", "type"},
	)

	// RealtimeDropped counts events discarded because a subscriber's buffer was full.
	RealtimeDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportdesk_realtime_dropped_total",
			Help: "Realtime events dropped on full subscriber buffers.",
		},
	)

	// Notifications counts delivered notifications by channel
	// (native|browser|push|none).
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportdesk_notifications_total",
			Help: "Notifications delivered, by channel.",
		},
		[]string{"channel"},
	)
)

func init() {
	prometheus.MustRegister(Uploads, RealtimeEvents, RealtimeDropped, Notifications)
}
