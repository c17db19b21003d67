package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// IngestRows counts rows written by capture producers, per entity.
	IngestRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recapd",
			Name:      "ingest_rows_total",
			Help:      "Total rows written through the ingest API",
		},
		[]string{"entity"},
	)

	// TagLinksChanged counts tag links actually created or deleted.
	TagLinksChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recapd",
			Name:      "tag_links_changed_total",
			Help:      "Total tag links created or deleted",
		},
		[]string{"op"},
	)

	// SearchDuration observes end-to-end search execution time.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recapd",
			Name:      "search_duration_seconds",
			Help:      "Search execution time in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

func init() {
	prometheus.MustRegister(IngestRows)
	prometheus.MustRegister(TagLinksChanged)
	prometheus.MustRegister(SearchDuration)
}
