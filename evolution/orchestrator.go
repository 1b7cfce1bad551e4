package evolution

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/pkg/otel"
	"github.com/gadicohen93/deepcurrent/services"
	"github.com/gadicohen93/deepcurrent/store"
)

// EventSink receives evolution events for live display. Implementations must
// not block.
type EventSink interface {
	EvolutionApplied(entry *domain.EvolutionEntry)
}

// Orchestrator closes the loop after each terminal episode: aggregate the
// strategy's recent window, evaluate the policy, and when warranted derive a
// new candidate version under a minority rollout share.
type Orchestrator struct {
	store      *store.Store
	aggregator *Aggregator
	strategies *services.StrategyService
	thresholds Thresholds

	windowSize       int
	candidateRollout int

	sink EventSink
}

type OrchestratorConfig struct {
	Thresholds       Thresholds
	WindowSize       int
	CandidateRollout int
}

func NewOrchestrator(s *store.Store, strategies *services.StrategyService, cfg OrchestratorConfig) *Orchestrator {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	if cfg.CandidateRollout <= 0 {
		cfg.CandidateRollout = 20
	}
	return &Orchestrator{
		store:            s,
		aggregator:       NewAggregator(s),
		strategies:       strategies,
		thresholds:       cfg.Thresholds,
		windowSize:       cfg.WindowSize,
		candidateRollout: cfg.CandidateRollout,
	}
}

// SetEventSink attaches a sink for evolution events.
func (o *Orchestrator) SetEventSink(sink EventSink) {
	o.sink = sink
}

// CheckAndEvolve runs one aggregate-decide-mutate cycle for a strategy
// version. A version conflict means another episode evolved the topic
// concurrently. The losing cycle checks whether the winner's candidate
// descends from the same version: if so the window has already been acted on
// and the loser stands down, otherwise it retries once against the
// now-current state. One bad window must yield at most one candidate.
func (o *Orchestrator) CheckAndEvolve(ctx context.Context, topicID string, strategyVersion int) (*domain.EvolutionEntry, error) {
	entry, err := o.checkOnce(ctx, topicID, strategyVersion)
	if errors.Is(err, domain.ErrVersionConflict) {
		evolved, childErr := o.store.HasStrategyChild(ctx, topicID, strategyVersion)
		if childErr != nil {
			return nil, childErr
		}
		if evolved {
			slog.InfoContext(ctx, "evolution lost version race, candidate already created",
				"topic_id", topicID, "strategy_version", strategyVersion)
			return nil, nil
		}
		slog.WarnContext(ctx, "evolution lost version race, retrying with fresh state",
			"topic_id", topicID, "strategy_version", strategyVersion)
		entry, err = o.checkOnce(ctx, topicID, strategyVersion)
	}
	return entry, err
}

func (o *Orchestrator) checkOnce(ctx context.Context, topicID string, strategyVersion int) (*domain.EvolutionEntry, error) {
	ctx, span := otel.Tracer("deepcurrent").Start(ctx, "evolution.check")
	defer span.End()
	span.SetAttributes(
		attribute.String("topic_id", topicID),
		attribute.Int("strategy_version", strategyVersion),
	)

	current, err := o.strategies.Get(ctx, topicID, strategyVersion)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if current.Status == domain.StrategyArchived {
		// A historical episode finished under a superseded version; nothing
		// left to evolve from.
		span.SetAttributes(attribute.String("decision", "archived"))
		return nil, nil
	}

	metrics, err := o.aggregator.Aggregate(ctx, topicID, strategyVersion, o.windowSize)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	decision := Decide(metrics, current.Config, o.thresholds)
	span.SetAttributes(
		attribute.Bool("should_evolve", decision.ShouldEvolve),
		attribute.String("decision", decision.Reason),
		attribute.Int("sample_size", metrics.SampleSize),
		attribute.Float64("save_rate", metrics.SaveRate),
	)

	if !decision.ShouldEvolve {
		slog.DebugContext(ctx, "no evolution", "topic_id", topicID,
			"strategy_version", strategyVersion, "reason", decision.Reason,
			"sample_size", metrics.SampleSize)
		return nil, nil
	}

	mutated := decision.Mutation.Apply(current.Config)
	candidate, err := o.strategies.CreateCandidate(ctx, topicID, strategyVersion, mutated, o.candidateRollout)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entry := &domain.EvolutionEntry{
		ID:          store.NewEvolutionID(),
		TopicID:     topicID,
		FromVersion: strategyVersion,
		ToVersion:   candidate.Version,
		Reason:      decision.Reason,
		Metrics:     metrics,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.AppendEvolutionEntry(ctx, entry); err != nil {
		span.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "strategy evolved", "topic_id", topicID,
		"from_version", entry.FromVersion, "to_version", entry.ToVersion,
		"reason", entry.Reason, "save_rate", metrics.SaveRate,
		"avg_followups", metrics.AvgFollowups)

	if o.sink != nil {
		o.sink.EvolutionApplied(entry)
	}
	return entry, nil
}
