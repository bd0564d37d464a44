package types

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exported while experiments run. A nil *Metrics records nothing
type Metrics struct {
	episodes  *prometheus.CounterVec
	timesteps *prometheus.CounterVec
	reward    *prometheus.HistogramVec
	epsilon   *prometheus.GaugeVec
}

// NewMetrics registers the experiment collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qlearn",
			Name:      "episodes_total",
			Help:      "Episodes executed, by experiment and outcome",
		}, []string{"experiment", "outcome"}),
		timesteps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qlearn",
			Name:      "timesteps_total",
			Help:      "Environment steps executed, by experiment",
		}, []string{"experiment"}),
		reward: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qlearn",
			Name:      "episode_reward",
			Help:      "Total undiscounted reward of an episode",
			Buckets:   []float64{-10000, -1000, -100, -10, 0, 10, 100, 1000, 10000},
		}, []string{"experiment"}),
		epsilon: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qlearn",
			Name:      "epsilon",
			Help:      "Exploration rate the last episode ran with",
		}, []string{"experiment"}),
	}
}

func observeEpisode[S, A Index](m *Metrics, experiment string, eCtx *EpisodeContext[S, A]) {
	if m == nil {
		return
	}
	m.episodes.WithLabelValues(experiment, eCtx.Outcome()).Inc()
	m.timesteps.WithLabelValues(experiment).Add(float64(eCtx.Timesteps))
	m.reward.WithLabelValues(experiment).Observe(eCtx.TotalReward)
	m.epsilon.WithLabelValues(experiment).Set(eCtx.Epsilon)
}
