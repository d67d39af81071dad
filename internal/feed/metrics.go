package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_subscriptions_active",
		Help: "Number of open live feed subscriptions.",
	})

	updatesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_updates_published_total",
		Help: "Total number of live feed updates published, by type.",
	}, []string{"type"})

	relayedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_relay_events_total",
		Help: "Total number of domain events relayed to live feeds, by event type.",
	}, []string{"event_type"})
)
