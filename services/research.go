package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/pkg/metrics"
	"github.com/gadicohen93/deepcurrent/pkg/otel"
	"github.com/gadicohen93/deepcurrent/runner"
)

// EvolutionQueue accepts post-episode evolution checks. Enqueueing must never
// block the research path.
type EvolutionQueue interface {
	EnqueueCheck(topicID string, strategyVersion int)
}

// ResearchService drives one episode end to end: strategy draw, episode
// record, agent run, terminal transition, evolution check. The agent itself
// stays behind the runner interface.
type ResearchService struct {
	episodes   *EpisodeService
	strategies *StrategyService
	runner     runner.Runner
	evolution  EvolutionQueue
	timeout    time.Duration
}

func NewResearchService(episodes *EpisodeService, strategies *StrategyService, r runner.Runner, evolution EvolutionQueue, timeout time.Duration) *ResearchService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ResearchService{
		episodes:   episodes,
		strategies: strategies,
		runner:     r,
		evolution:  evolution,
		timeout:    timeout,
	}
}

// Run executes a research query for a topic and returns the finalized
// episode. Runner errors are recorded on the episode, not returned: the
// episode record is the authoritative outcome either way.
func (svc *ResearchService) Run(ctx context.Context, topicID, query string) (*domain.Episode, error) {
	ctx, span := otel.Tracer("deepcurrent").Start(ctx, "research.run")
	defer span.End()

	sv, err := svc.strategies.PickForEpisode(ctx, topicID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("topic_id", topicID),
		attribute.Int("strategy_version", sv.Version),
	)

	ep, err := svc.episodes.Create(ctx, topicID, query, sv.Version)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := svc.episodes.MarkRunning(ctx, ep.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, svc.timeout)
	defer cancel()

	start := time.Now()
	result, runErr := svc.runner.RunEpisode(runCtx, query, sv.Config)
	durationMs := time.Since(start).Milliseconds()

	if runErr != nil {
		msg := runErr.Error()
		if errors.Is(runErr, context.DeadlineExceeded) {
			msg = "episode timed out"
		}
		if err := svc.episodes.Fail(ctx, ep.ID, msg, durationMs); err != nil {
			span.RecordError(err)
			return nil, err
		}
	} else {
		outcome := domain.EpisodeOutcome{
			SourcesReturned: result.SourcesReturned,
			SourcesSaved:    result.SourcesSaved,
			FollowupCount:   result.FollowupCount,
			ToolUsage:       result.ToolUsage,
			DurationMs:      durationMs,
		}
		if err := svc.episodes.Complete(ctx, ep.ID, outcome); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	// The evolution check runs off the response path; the caller never waits
	// on it and never sees its failures.
	if svc.evolution != nil {
		svc.evolution.EnqueueCheck(topicID, sv.Version)
	}

	final, err := svc.episodes.Get(ctx, ep.ID)
	if err != nil {
		return nil, err
	}

	metrics.EpisodesTotal.WithLabelValues(final.Status).Inc()
	metrics.EpisodeDuration.WithLabelValues(final.Status).Observe(float64(durationMs) / 1000)

	slog.InfoContext(ctx, "research run finished", "episode_id", final.ID,
		"topic_id", topicID, "strategy_version", sv.Version, "status", final.Status)
	return final, nil
}
