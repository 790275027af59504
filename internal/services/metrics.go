package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// cacheRequests counts page cache lookups by result: hit, miss, or bypass
	// (first pages, which are never cached).
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "room_history",
			Name:      "cache_requests_total",
			Help:      "History page cache lookups by result.",
		},
		[]string{"result"},
	)

	// droppedRows counts index rows that produced no display item because of
	// an integrity gap.
	droppedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "room_history",
			Name:      "dropped_rows_total",
			Help:      "History index rows dropped during assembly, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(cacheRequests, droppedRows)
}
