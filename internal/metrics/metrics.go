// Package metrics defines the Prometheus collectors of the auction engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "draftbid"

// Metrics holds every collector. Create one per registry.
type Metrics struct {
	RoundsStarted      prometheus.Counter
	RoundsClosed       *prometheus.CounterVec
	CloseRaceLost      *prometheus.CounterVec
	Bids               *prometheus.CounterVec
	Settlements        *prometheus.CounterVec
	SettlementFailures prometheus.Counter
	SettlementSeconds  prometheus.Histogram
	SweepRecoveries    *prometheus.CounterVec
	TurnsSkipped       prometheus.Counter
	EventFailures      prometheus.Counter
	RPCSeconds         *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RoundsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds opened.",
		}),
		RoundsClosed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_closed_total",
			Help:      "Close requests that won the active flag flip, by reason.",
		}, []string{"reason"}),
		CloseRaceLost: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "close_race_lost_total",
			Help:      "Close requests that found the round already closed, by reason.",
		}, []string{"reason"}),
		Bids: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_total",
			Help:      "Bid submissions by result.",
		}, []string{"result"}),
		Settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlements by kind: winner, fallback or replayed.",
		}, []string{"kind"}),
		SettlementFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_failures_total",
			Help:      "Settlement attempts that did not commit.",
		}),
		SettlementSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Time from close flip to settlement commit.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		SweepRecoveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_recoveries_total",
			Help:      "Rounds recovered by the stale-round sweep, by action.",
		}, []string{"action"}),
		TurnsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_skipped_total",
			Help:      "Explicit turn skips.",
		}),
		EventFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_failures_total",
			Help:      "Events that could not be published.",
		}),
		RPCSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// HubStats is the view of the event hub exported as metrics.
type HubStats interface {
	Published() uint64
	Dropped() uint64
	Subscribers() int
}

// RegisterHub exports event hub counters.
func RegisterHub(reg prometheus.Registerer, hub HubStats) {
	f := promauto.With(reg)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Events accepted by the hub.",
	}, func() float64 { return float64(hub.Published()) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Event deliveries skipped because a subscriber was full.",
	}, func() float64 { return float64(hub.Dropped()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "Live event subscriptions.",
	}, func() float64 { return float64(hub.Subscribers()) })
}

// ObserverStats is the view of the websocket observer endpoint.
type ObserverStats interface {
	Active() int64
}

// RegisterObservers exports the number of open observer connections.
func RegisterObservers(reg prometheus.Registerer, obs ObserverStats) {
	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "observer_connections",
		Help:      "Open websocket observer connections.",
	}, func() float64 { return float64(obs.Active()) })
}
