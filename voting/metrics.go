// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serviceMetrics struct {
	votes         *prometheus.CounterVec
	publishErrors prometheus.Counter
	expired       prometheus.Counter
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	factory := promauto.With(reg)
	return &serviceMetrics{
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pollcast_votes_total",
			Help: "vote submissions by outcome",
		}, []string{"result"}),
		publishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollcast_vote_publish_errors_total",
			Help: "committed votes whose tally update could not be published",
		}),
		expired: factory.NewCounter(prometheus.CounterOpts{
			Name: "pollcast_polls_expired_total",
			Help: "polls deactivated after their expiry passed",
		}),
	}
}

func (m *serviceMetrics) observeVote(err error) {
	if m == nil {
		return
	}
	m.votes.WithLabelValues(KindOf(err).String()).Inc()
}

func (m *serviceMetrics) observePublishError() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

func (m *serviceMetrics) observeExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
}
