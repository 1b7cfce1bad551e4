package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EpisodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepcurrent_episodes_total",
		Help: "Terminal episodes by status",
	}, []string{"status"})

	EpisodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deepcurrent_episode_duration_seconds",
		Help:    "Episode wall-clock duration",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"status"})

	EvolutionChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepcurrent_evolution_checks_total",
		Help: "Evolution checks by outcome",
	}, []string{"result"})

	EvolutionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepcurrent_evolution_conflicts_total",
		Help: "Strategy version conflicts hit during evolution",
	})

	SweptEpisodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepcurrent_swept_episodes_total",
		Help: "Running episodes failed by the TTL sweeper",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepcurrent_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
