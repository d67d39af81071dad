package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ratingChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeeshop_rating_changes_total",
		Help: "Total number of applied rating changes, by operation.",
	}, []string{"op"})

	cartMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeeshop_cart_mutations_total",
		Help: "Total number of cart mutations, by operation and result.",
	}, []string{"op", "result"})

	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeeshop_checkouts_total",
		Help: "Total number of checkout steps, by step and resulting payment status.",
	}, []string{"step", "status"})

	eventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffeeshop_event_publish_failures_total",
		Help: "Total number of domain events that could not be published, by event type.",
	}, []string{"event_type"})
)
