package runner

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/gadicohen93/deepcurrent/domain"
)

// Scripted is a deterministic stand-in runner used by the CLI and tests when
// no real agent is wired up. Results are derived from the query text so
// repeated runs are reproducible.
type Scripted struct{}

func NewScripted() *Scripted {
	return &Scripted{}
}

func (r *Scripted) RunEpisode(_ context.Context, query string, strategy domain.StrategyConfig) (*Result, error) {
	h := fnv.New32a()
	h.Write([]byte(query))
	seed := h.Sum32()

	returned := 4 + int(seed%5)
	switch strategy.SearchDepth {
	case domain.DepthDeep:
		returned *= 3
	case domain.DepthStandard:
		returned *= 2
	}

	saved := returned / 3
	if strategy.SensoFirst {
		saved = returned / 2
	}

	result := &Result{
		FollowupCount: int(seed % uint32(strategy.MaxFollowups+1)),
		ToolUsage: map[string]int{
			"senso":      returned / 2,
			"web_search": returned - returned/2,
		},
	}
	for i := 0; i < returned; i++ {
		src := fmt.Sprintf("src_%08x_%d", seed, i)
		result.SourcesReturned = append(result.SourcesReturned, src)
		if i < saved {
			result.SourcesSaved = append(result.SourcesSaved, src)
		}
	}
	return result, nil
}
