package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"storefront/internal/seasonal"
)

const namespace = "storefront"

var (
	once sync.Once

	storeOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open",
			Help:      "1 while the store is open, 0 otherwise.",
		},
	)

	minutesUntilChange = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "minutes_until_change",
			Help:      "Minutes until the store next opens or closes.",
		},
	)

	seasonEffect = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "season_effect",
			Help:      "1 for each decorative effect of the active seasonal theme.",
		},
		[]string{"effect"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Count of recorded transitions by kind.",
		},
		[]string{"kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(storeOpen, minutesUntilChange, seasonEffect, transitions, httpRequests)
	})
}

func SetHours(open bool, minutes int) {
	if open {
		storeOpen.Set(1)
	} else {
		storeOpen.Set(0)
	}
	minutesUntilChange.Set(float64(minutes))
}

func SetSeasonEffects(e seasonal.Effects) {
	seasonEffect.WithLabelValues("snowfall").Set(boolValue(e.Snowfall))
	seasonEffect.WithLabelValues("fireworks").Set(boolValue(e.Fireworks))
	seasonEffect.WithLabelValues("lanterns").Set(boolValue(e.Lanterns))
}

func IncTransition(kind string) {
	transitions.WithLabelValues(kind).Inc()
}

func IncHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
