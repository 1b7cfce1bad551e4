package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gadicohen93/deepcurrent/pkg/metrics"
	"github.com/gadicohen93/deepcurrent/store"
)

// Sweeper fails running episodes that exceeded their TTL. Abandoned runs left
// in the running state would otherwise skew the aggregator's sample counts
// forever.
type Sweeper struct {
	store     *store.Store
	episodes  *EpisodeService
	evolution EvolutionQueue
	ttl       time.Duration
	interval  time.Duration
}

func NewSweeper(s *store.Store, episodes *EpisodeService, evolution EvolutionQueue, ttl, interval time.Duration) *Sweeper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{store: s, episodes: episodes, evolution: evolution, ttl: ttl, interval: interval}
}

// Run sweeps on a ticker until the context is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sw.SweepOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "episode sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce fails all running episodes older than the TTL and enqueues an
// evolution check for each, since a timed-out episode is still signal.
func (sw *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-sw.ttl)
	stale, err := sw.store.StaleRunningEpisodes(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, ep := range stale {
		durationMs := sw.ttl.Milliseconds()
		if ep.StartedAt != nil {
			durationMs = time.Since(*ep.StartedAt).Milliseconds()
		}
		if err := sw.episodes.Fail(ctx, ep.ID, "episode timed out", durationMs); err != nil {
			slog.ErrorContext(ctx, "failed to sweep episode", "episode_id", ep.ID, "error", err)
			continue
		}
		swept++
		metrics.SweptEpisodesTotal.Inc()
		if sw.evolution != nil {
			sw.evolution.EnqueueCheck(ep.TopicID, ep.StrategyVersion)
		}
	}

	if swept > 0 {
		slog.InfoContext(ctx, "swept stale episodes", "count", swept, "ttl", sw.ttl)
	}
	return swept, nil
}
