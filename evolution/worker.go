package evolution

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/pkg/metrics"
	"github.com/gadicohen93/deepcurrent/shared/backoff"
)

type checkRequest struct {
	TopicID         string
	StrategyVersion int
}

// Worker runs evolution checks off the research path. Requests go through a
// buffered queue; the submitting episode never waits on the check and never
// sees its errors. A full queue drops the request, the next terminal episode
// for the same strategy re-covers the window anyway.
type Worker struct {
	orchestrator *Orchestrator
	queue        chan checkRequest
	concurrency  int
}

func NewWorker(o *Orchestrator, queueSize, concurrency int) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Worker{
		orchestrator: o,
		queue:        make(chan checkRequest, queueSize),
		concurrency:  concurrency,
	}
}

// EnqueueCheck submits a post-episode evolution check. Never blocks.
func (w *Worker) EnqueueCheck(topicID string, strategyVersion int) {
	select {
	case w.queue <- checkRequest{TopicID: topicID, StrategyVersion: strategyVersion}:
	default:
		metrics.EvolutionChecksTotal.WithLabelValues("dropped").Inc()
		slog.Warn("evolution queue full, dropping check",
			"topic_id", topicID, "strategy_version", strategyVersion)
	}
}

// Run processes the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case req := <-w.queue:
					w.process(ctx, req)
				}
			}
		})
	}
	return g.Wait()
}

func (w *Worker) process(ctx context.Context, req checkRequest) {
	var entry *domain.EvolutionEntry
	var rejected bool

	err := backoff.Retry(ctx, backoff.Quick, func(ctx context.Context, attempt int) error {
		var checkErr error
		entry, checkErr = w.orchestrator.CheckAndEvolve(ctx, req.TopicID, req.StrategyVersion)
		if checkErr == nil {
			return nil
		}
		if errors.Is(checkErr, domain.ErrVersionConflict) {
			metrics.EvolutionConflictsTotal.Inc()
		}
		// Caller-bug errors will not improve on retry.
		if errors.Is(checkErr, domain.ErrNotFound) || errors.Is(checkErr, domain.ErrInvalidState) {
			rejected = true
			slog.ErrorContext(ctx, "evolution check rejected",
				"topic_id", req.TopicID, "strategy_version", req.StrategyVersion, "error", checkErr)
			return nil
		}
		return checkErr
	})
	if rejected {
		metrics.EvolutionChecksTotal.WithLabelValues("error").Inc()
		return
	}
	if err != nil {
		// Evolution is best-effort auxiliary analysis; log and move on.
		metrics.EvolutionChecksTotal.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "evolution check failed",
			"topic_id", req.TopicID, "strategy_version", req.StrategyVersion, "error", err)
		return
	}

	if entry != nil {
		metrics.EvolutionChecksTotal.WithLabelValues("evolved").Inc()
	} else {
		metrics.EvolutionChecksTotal.WithLabelValues("stable").Inc()
	}
}
