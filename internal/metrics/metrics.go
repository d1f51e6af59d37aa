package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RelayRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "parley", Name: "relay_rooms", Help: "Rooms with at least one live subscriber",
	})
	RelaySubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "parley", Name: "relay_subscribers", Help: "Live room subscriptions",
	})
	RelayPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parley", Name: "relay_published_total", Help: "Messages published to the relay",
	})
	RelayDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parley", Name: "relay_delivered_total", Help: "Relay events delivered to subscribers",
	})
	RelayDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parley", Name: "relay_dropped_total", Help: "Relay events dropped on full subscriber buffers",
	})
	MessagesStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parley", Name: "messages_stored_total", Help: "Messages appended to the durable log",
	})
	InviteRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley", Name: "invite_redemptions_total", Help: "Invite redemption attempts by outcome",
	}, []string{"outcome"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parley", Name: "handler_errors_total", Help: "Unexpected handler errors",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parley", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		RelayRooms, RelaySubscribers, RelayPublished, RelayDelivered, RelayDropped,
		MessagesStored, InviteRedemptions, HandlerErrors, DBPing,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
