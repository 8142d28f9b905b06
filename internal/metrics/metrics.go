package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedWaiters tracks long-poll loops currently parked in AwaitChange.
	FeedWaiters = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gossipgraph",
		Subsystem: "feed",
		Name:      "waiters",
		Help:      "Number of feed requests currently blocked in a long-poll wait.",
	})

	// FeedRequests counts feed responses by outcome
	// (snapshot, delta, not_modified, timeout, cancelled).
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gossipgraph",
		Subsystem: "feed",
		Name:      "requests_total",
		Help:      "Feed requests served, labeled by outcome.",
	}, []string{"outcome"})

	// EdgeConflicts counts accepts that lost the uniqueness race.
	EdgeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipgraph",
		Subsystem: "relationship",
		Name:      "edge_conflicts_total",
		Help:      "Edge upserts rejected by the canonical-pair uniqueness constraint.",
	})
)
