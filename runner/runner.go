// Package runner defines the boundary to the research agent. The engine
// treats the agent as a black box: it hands over a query and a strategy
// configuration and consumes the structured result.
package runner

import (
	"context"

	"github.com/gadicohen93/deepcurrent/domain"
)

// Result is the structured outcome of one agent run.
type Result struct {
	SourcesReturned []string
	SourcesSaved    []string
	FollowupCount   int
	ToolUsage       map[string]int
}

type Runner interface {
	RunEpisode(ctx context.Context, query string, strategy domain.StrategyConfig) (*Result, error)
}

// Func adapts a plain function to the Runner interface.
type Func func(ctx context.Context, query string, strategy domain.StrategyConfig) (*Result, error)

func (f Func) RunEpisode(ctx context.Context, query string, strategy domain.StrategyConfig) (*Result, error) {
	return f(ctx, query, strategy)
}
