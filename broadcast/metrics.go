// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type hubMetrics struct {
	subscribers    prometheus.Gauge
	published      prometheus.Counter
	dropped        prometheus.Counter
	deliveryErrors prometheus.Counter
}

func newHubMetrics(reg prometheus.Registerer) *hubMetrics {
	factory := promauto.With(reg)
	return &hubMetrics{
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pollcast_stream_subscribers",
			Help: "current number of live result subscribers",
		}),
		published: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollcast_updates_published_total",
			Help: "number of tally updates published to the hub",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollcast_updates_dropped_total",
			Help: "number of updates dropped because a subscriber buffer was full",
		}),
		deliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollcast_update_delivery_errors_total",
			Help: "number of subscribers removed after a failed delivery",
		}),
	}
}
