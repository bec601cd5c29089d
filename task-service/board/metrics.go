package board

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invariantViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "position_invariant_violations_total",
		Help:      "Transactions rolled back because a container was not dense before commit.",
	}, []string{"operation"})

	positionUpdates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskboard",
		Name:      "position_updates",
		Help:      "Number of position rows rewritten per committed operation.",
		Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
	}, []string{"operation"})
)
