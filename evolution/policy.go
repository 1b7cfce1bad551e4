package evolution

import "github.com/gadicohen93/deepcurrent/domain"

// Decision reasons, also recorded verbatim in the evolution log.
const (
	ReasonInsufficientData = "insufficient data"
	ReasonLowSaveRate      = "low save rate"
	ReasonExcessFollowups  = "excessive followups"
	ReasonLowPrimaryTool   = "low primary-tool usage"
	ReasonAcceptable       = "performance acceptable"
)

// Thresholds parameterize the evolution policy.
type Thresholds struct {
	MinEpisodes         int
	LowSaveRate         float64
	HighFollowups       float64
	LowPrimaryToolUsage float64
	// PrimaryTool names the tool whose usage ratio is watched; which tool
	// counts as primary is deployment configuration, not policy.
	PrimaryTool string
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinEpisodes:         5,
		LowSaveRate:         0.4,
		HighFollowups:       8,
		LowPrimaryToolUsage: 0.2,
		PrimaryTool:         "senso",
	}
}

// Decision is the outcome of one policy evaluation. Mutation is set only when
// ShouldEvolve is true.
type Decision struct {
	ShouldEvolve bool
	Reason       string
	Mutation     domain.StrategyMutation
}

// Decide evaluates the metrics against the thresholds. Pure function: no
// clock, no randomness, no I/O, so identical inputs always produce identical
// decisions.
//
// Rules run in fixed priority order and the first match wins. The sample-size
// gate short-circuits before everything else: evolving on a noisy small
// sample is disallowed no matter how extreme the other numbers look.
func Decide(metrics *domain.StrategyMetrics, current domain.StrategyConfig, t Thresholds) Decision {
	if metrics == nil || metrics.SampleSize < t.MinEpisodes {
		return Decision{ShouldEvolve: false, Reason: ReasonInsufficientData}
	}

	// A window with no returned sources has no save-rate signal at all; skip
	// the rule rather than treat the zero denominator as a 0% save rate.
	if metrics.SourcesReturned > 0 && metrics.SaveRate < t.LowSaveRate {
		depth := domain.DepthDeep
		window := domain.WidenTimeWindow(current.TimeWindow)
		return Decision{
			ShouldEvolve: true,
			Reason:       ReasonLowSaveRate,
			Mutation: domain.StrategyMutation{
				SearchDepth: &depth,
				TimeWindow:  &window,
			},
		}
	}

	if metrics.AvgFollowups > t.HighFollowups {
		depth := domain.DepthShallow
		followups := domain.ReduceFollowups(current.MaxFollowups)
		return Decision{
			ShouldEvolve: true,
			Reason:       ReasonExcessFollowups,
			Mutation: domain.StrategyMutation{
				SearchDepth:  &depth,
				MaxFollowups: &followups,
			},
		}
	}

	if t.PrimaryTool != "" && metrics.ToolUsage != nil {
		if metrics.ToolUsage[t.PrimaryTool] < t.LowPrimaryToolUsage {
			first := true
			return Decision{
				ShouldEvolve: true,
				Reason:       ReasonLowPrimaryTool,
				Mutation:     domain.StrategyMutation{SensoFirst: &first},
			}
		}
	}

	return Decision{ShouldEvolve: false, Reason: ReasonAcceptable}
}
