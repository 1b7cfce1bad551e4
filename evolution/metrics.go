package evolution

import (
	"context"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

// Aggregator computes per-strategy-version statistics over a sliding window
// of terminal episodes.
type Aggregator struct {
	store *store.Store
}

func NewAggregator(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Aggregate pulls the most recent windowSize completed or failed episodes for
// the (topic, version) pair and folds them into a metrics snapshot. A
// SampleSize of 0 means no signal yet; callers must treat that as "not enough
// data", never as a failing strategy.
//
// Save rate and follow-up counts come from completed episodes only; failed
// runs carry no source lists and would dilute the signal. Failure rate spans
// the whole window.
func (a *Aggregator) Aggregate(ctx context.Context, topicID string, strategyVersion, windowSize int) (*domain.StrategyMetrics, error) {
	episodes, err := a.store.RecentTerminalEpisodes(ctx, topicID, strategyVersion, windowSize)
	if err != nil {
		return nil, err
	}
	return foldEpisodes(topicID, strategyVersion, episodes), nil
}

// foldEpisodes reduces a window of terminal episodes to a metrics snapshot.
func foldEpisodes(topicID string, strategyVersion int, episodes []*domain.Episode) *domain.StrategyMetrics {
	metrics := &domain.StrategyMetrics{
		TopicID:         topicID,
		StrategyVersion: strategyVersion,
		SampleSize:      len(episodes),
	}
	if len(episodes) == 0 {
		return metrics
	}

	var (
		returned, saved int
		followups       int
		completed       int
		failed          int
		toolCalls       = make(map[string]int)
		totalCalls      int
	)
	for _, ep := range episodes {
		if ep.Status == domain.EpisodeFailed {
			failed++
			continue
		}
		completed++
		returned += len(ep.SourcesReturned)
		saved += len(ep.SourcesSaved)
		followups += ep.FollowupCount
		for tool, count := range ep.ToolUsage {
			toolCalls[tool] += count
			totalCalls += count
		}
	}

	// Zero returned sources means no save-rate signal, not a zero save rate.
	// SourcesReturned carries the denominator so the policy can tell the two
	// apart; an all-failed window clears the sample gate but must not read as
	// a failing save rate.
	metrics.SourcesReturned = returned
	if returned > 0 {
		metrics.SaveRate = float64(saved) / float64(returned)
	}
	if completed > 0 {
		metrics.AvgFollowups = float64(followups) / float64(completed)
	}
	metrics.FailureRate = float64(failed) / float64(len(episodes))

	if totalCalls > 0 {
		metrics.ToolUsage = make(map[string]float64, len(toolCalls))
		for tool, count := range toolCalls {
			metrics.ToolUsage[tool] = float64(count) / float64(totalCalls)
		}
	}

	return metrics
}
