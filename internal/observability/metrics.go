package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_sweeps_total",
			Help: "Price refresh sweeps started",
		},
	)
	PriceChecksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_checks_total",
			Help: "Individual product price fetch attempts",
		},
	)
	PriceCheckFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_check_failures_total",
			Help: "Price fetch attempts that produced no observation",
		},
	)
	PriceUpdatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_updates_total",
			Help: "Refreshes that appended a new price history entry",
		},
	)
)

func Start(port string) {
	prometheus.MustRegister(RefreshSweepsTotal, PriceChecksTotal, PriceCheckFailures, PriceUpdatesTotal)
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}
