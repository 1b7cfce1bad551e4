package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

// StrategyService manages a topic's versioned strategy log: rollout-weighted
// selection at episode start, candidate creation during evolution, and manual
// promotion.
type StrategyService struct {
	store *store.Store
	intn  func(n int) int
}

func NewStrategyService(s *store.Store) *StrategyService {
	return &StrategyService{store: s, intn: rand.Intn}
}

// NewStrategyServiceWithRand injects the random source, for deterministic
// selection in tests.
func NewStrategyServiceWithRand(s *store.Store, intn func(n int) int) *StrategyService {
	return &StrategyService{store: s, intn: intn}
}

// PickForEpisode performs one weighted draw over the topic's non-archived
// versions. The draw happens once per episode at creation time; the episode
// keeps the drawn version for its whole life and never re-draws.
func (svc *StrategyService) PickForEpisode(ctx context.Context, topicID string) (*domain.StrategyVersion, error) {
	versions, err := svc.store.SelectableStrategyVersions(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	return pickWeighted(versions, svc.intn), nil
}

// pickWeighted draws one version proportionally to rollout percentage,
// normalized across the candidates. Zero total weight degrades to the first
// (oldest) version.
func pickWeighted(versions []*domain.StrategyVersion, intn func(n int) int) *domain.StrategyVersion {
	total := 0
	for _, v := range versions {
		total += v.RolloutPercentage
	}
	if total <= 0 {
		return versions[0]
	}

	draw := intn(total)
	for _, v := range versions {
		draw -= v.RolloutPercentage
		if draw < 0 {
			return v
		}
	}
	return versions[len(versions)-1]
}

// CreateCandidate appends the next version for a topic as a candidate and
// shifts rollout share from the parent so the total stays at 100. Concurrent
// creators racing for the same version number are serialized by the store's
// unique constraint; the loser gets domain.ErrVersionConflict.
func (svc *StrategyService) CreateCandidate(ctx context.Context, topicID string, parentVersion int, config domain.StrategyConfig, rollout int) (*domain.StrategyVersion, error) {
	if rollout < 0 || rollout > 100 {
		return nil, fmt.Errorf("rollout percentage %d out of range", rollout)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("candidate config: %w", err)
	}

	var candidate *domain.StrategyVersion
	err := svc.store.WithTx(ctx, func(ctx context.Context) error {
		parent, err := svc.store.GetStrategyVersion(ctx, topicID, parentVersion)
		if err != nil {
			return err
		}

		max, err := svc.store.MaxStrategyVersion(ctx, topicID)
		if err != nil {
			return err
		}

		// The candidate can only take as much share as the parent holds.
		share := rollout
		if share > parent.RolloutPercentage {
			share = parent.RolloutPercentage
		}

		candidate = &domain.StrategyVersion{
			ID:                store.NewStrategyID(),
			TopicID:           topicID,
			Version:           max + 1,
			Status:            domain.StrategyCandidate,
			RolloutPercentage: share,
			ParentVersion:     &parentVersion,
			Config:            config,
			CreatedAt:         time.Now().UTC(),
		}
		if err := svc.store.CreateStrategyVersion(ctx, candidate); err != nil {
			return err
		}
		return svc.store.SetRolloutPercentage(ctx, topicID, parentVersion, parent.RolloutPercentage-share)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "candidate strategy created", "topic_id", topicID,
		"version", candidate.Version, "parent_version", parentVersion,
		"rollout", candidate.RolloutPercentage)
	return candidate, nil
}

// Promote sets the given version to active at 100% rollout and archives every
// other non-archived version. Invoked manually once a candidate's own metrics
// clear the bar; there is no automatic promotion policy.
func (svc *StrategyService) Promote(ctx context.Context, topicID string, version int) error {
	err := svc.store.WithTx(ctx, func(ctx context.Context) error {
		if err := svc.store.ActivateStrategyVersion(ctx, topicID, version); err != nil {
			return err
		}
		return svc.store.ArchiveOtherStrategyVersions(ctx, topicID, version)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "strategy promoted", "topic_id", topicID, "version", version)
	return nil
}

func (svc *StrategyService) Get(ctx context.Context, topicID string, version int) (*domain.StrategyVersion, error) {
	return svc.store.GetStrategyVersion(ctx, topicID, version)
}

func (svc *StrategyService) List(ctx context.Context, topicID string) ([]*domain.StrategyVersion, error) {
	return svc.store.ListStrategyVersions(ctx, topicID)
}
