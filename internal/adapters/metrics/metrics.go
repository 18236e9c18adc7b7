package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProgressionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progression_requests_total",
		Help: "Total number of progression requests received, by subchannel and outcome",
	}, []string{"subchannel", "status"})

	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_level_ups_total",
		Help: "The total number of levels crossed by experience gains",
	})

	NotificationsDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_notifications_deferred_total",
		Help: "Notifications queued because the player was offline",
	})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "progression_notifications_delivered_total",
		Help: "Player-facing notifications handed to the transport",
	}, []string{"kind", "status"})

	PendingNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "progression_notifications_pending",
		Help: "Notifications currently waiting for their player to connect",
	})

	LedgerOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Duration of ledger operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation", "status"})

	TransportMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_messages_total",
		Help: "Messages moved by the transport bus",
	}, []string{"backend", "direction", "status"})

	LinkedServers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proxylink_servers",
		Help: "Backend servers currently linked to the proxy",
	})

	OnlinePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sessions_online_players",
		Help: "Players currently connected to a backend server",
	})

	DiscordMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discord_messages_sent_total",
		Help: "Total number of Discord announcements sent",
	}, []string{"status"})

	AnnouncementsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "progression_announcements_dropped_total",
		Help: "Level-up announcements dropped because every announcement slot was busy",
	})
)

// ObserveLedger records how long a ledger call took and whether it failed.
func ObserveLedger(backend, operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LedgerOperationDuration.WithLabelValues(backend, operation, status).Observe(time.Since(start).Seconds())
}
