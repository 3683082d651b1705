package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_orders_created_total",
		Help: "The total number of orders created",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbite_order_transitions_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	RelayPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_relay_publish_failures_total",
		Help: "Relay publishes that failed and were dropped",
	})

	ActiveTrackers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quickbite_active_tracking_clients",
		Help: "The number of connected tracking websocket clients",
	})

	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_driver_location_updates_total",
		Help: "The total number of driver location updates",
	})
)
