package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pathsEmitted counts resolved paths handed to consumers
	pathsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "enumerator",
		Name:      "paths_emitted_total",
		Help:      "Total resolved paths emitted by enumerators",
	})

	// pathsExpanded counts paths whose last node was expanded
	pathsExpanded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "enumerator",
		Name:      "paths_expanded_total",
		Help:      "Total resolved paths expanded into children",
	})

	// childrenDiscarded counts children dropped before reaching the frontier.
	// Labels: reason (cycle, seed)
	childrenDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "enumerator",
		Name:      "children_discarded_total",
		Help:      "Total candidate children discarded by the cycle or seed guard",
	}, []string{"reason"})

	// frontierSplits counts successful frontier splits
	frontierSplits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "enumerator",
		Name:      "frontier_splits_total",
		Help:      "Total successful frontier splits",
	})

	// operations counts engine operations.
	// Labels: op (parse, resolve, reduce, enumerate), status (ok, error)
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphpath",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Total engine operations by outcome",
	}, []string{"op", "status"})
)

const (
	discardCycle = "cycle"
	discardSeed  = "seed"
)

func recordOperation(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operations.WithLabelValues(op, status).Inc()
}
