package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "ticks_total",
		Help:      "Generator ticks by outcome.",
	}, []string{"outcome"})

	readingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "readings_total",
		Help:      "Synthesized crowd readings by density level.",
	}, []string{"density_level"})

	alertsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "alerts_raised_total",
		Help:      "Alerts raised by the generator by severity.",
	}, []string{"severity"})

	alertsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "alerts_suppressed_total",
		Help:      "High readings that did not raise an alert because one was already active.",
	})

	zoneFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "zone_failures_total",
		Help:      "Zones skipped in a tick because of an error.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "crowdguard",
		Subsystem: "generator",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a generator tick.",
		Buckets:   prometheus.DefBuckets,
	})
)
