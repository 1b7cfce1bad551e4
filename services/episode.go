package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

// EpisodeService records the lifecycle of agent runs. Its transitions are
// authoritative: an episode that silently misses its terminal state corrupts
// every metric computed downstream, so errors here always propagate.
type EpisodeService struct {
	store *store.Store
}

func NewEpisodeService(s *store.Store) *EpisodeService {
	return &EpisodeService{store: s}
}

// Create inserts a pending episode for a topic under the given strategy
// version. The version is pinned for the episode's whole life; metrics later
// attribute the run to it no matter how the topic's strategies evolve.
func (svc *EpisodeService) Create(ctx context.Context, topicID, query string, strategyVersion int) (*domain.Episode, error) {
	if _, err := svc.store.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	if _, err := svc.store.GetStrategyVersion(ctx, topicID, strategyVersion); err != nil {
		return nil, err
	}

	ep := &domain.Episode{
		ID:              store.NewEpisodeID(),
		TopicID:         topicID,
		StrategyVersion: strategyVersion,
		Query:           query,
		Status:          domain.EpisodePending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := svc.store.CreateEpisode(ctx, ep); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "episode created", "episode_id", ep.ID, "topic_id", topicID, "strategy_version", strategyVersion)
	return ep, nil
}

// MarkRunning transitions the episode to running. Idempotent for episodes
// that are already running.
func (svc *EpisodeService) MarkRunning(ctx context.Context, episodeID string) error {
	return svc.store.MarkEpisodeRunning(ctx, episodeID)
}

// Complete finalizes a successful run. Saved sources must be a subset of
// returned sources.
func (svc *EpisodeService) Complete(ctx context.Context, episodeID string, outcome domain.EpisodeOutcome) error {
	if !isSubset(outcome.SourcesSaved, outcome.SourcesReturned) {
		return fmt.Errorf("sources_saved must be a subset of sources_returned: %w", domain.ErrInvalidState)
	}
	if err := svc.store.CompleteEpisode(ctx, episodeID, outcome); err != nil {
		return err
	}

	slog.InfoContext(ctx, "episode completed", "episode_id", episodeID,
		"sources_returned", len(outcome.SourcesReturned),
		"sources_saved", len(outcome.SourcesSaved),
		"followups", outcome.FollowupCount,
		"duration_ms", outcome.DurationMs)
	return nil
}

// Fail finalizes a failed run with a reason.
func (svc *EpisodeService) Fail(ctx context.Context, episodeID, errorMessage string, durationMs int64) error {
	if err := svc.store.FailEpisode(ctx, episodeID, errorMessage, durationMs); err != nil {
		return err
	}

	slog.WarnContext(ctx, "episode failed", "episode_id", episodeID, "error_message", errorMessage)
	return nil
}

func (svc *EpisodeService) Get(ctx context.Context, episodeID string) (*domain.Episode, error) {
	return svc.store.GetEpisode(ctx, episodeID)
}

func (svc *EpisodeService) List(ctx context.Context, topicID string, limit, offset int) ([]*domain.Episode, error) {
	return svc.store.ListEpisodes(ctx, topicID, limit, offset)
}

func isSubset(subset, superset []string) bool {
	if len(subset) == 0 {
		return true
	}
	seen := make(map[string]struct{}, len(superset))
	for _, s := range superset {
		seen[s] = struct{}{}
	}
	for _, s := range subset {
		if _, ok := seen[s]; !ok {
			return false
		}
	}
	return true
}
