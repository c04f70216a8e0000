package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for monitoring API health and shipment activity.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freightdeck_http_requests_total",
			Help: "Total number of HTTP requests by method and status class",
		},
		[]string{"method", "status"},
	)

	ShipmentMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freightdeck_shipment_mutations_total",
			Help: "Total number of shipment create/update/delete operations",
		},
		[]string{"operation"},
	)

	ExportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freightdeck_csv_exports_total",
			Help: "Total number of CSV exports served",
		},
	)

	ChangeFeedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freightdeck_change_feed_events_total",
			Help: "Total number of change-feed notifications delivered to subscribers",
		},
	)
)

// Register adds all collectors to the default registry.
func Register() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		ShipmentMutationsTotal,
		ExportsTotal,
		ChangeFeedEventsTotal,
	)
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
