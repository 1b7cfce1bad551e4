package domain

import "fmt"

// Search depth levels, ordered shallow to deep.
const (
	DepthShallow  = "shallow"
	DepthStandard = "standard"
	DepthDeep     = "deep"
)

// Time windows, ordered narrow to wide.
const (
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
)

// StrategyConfig is the behavioral parameter bundle governing an episode's
// agent run. The schema is fixed so policy mutations can be checked
// statically rather than patching an untyped blob.
type StrategyConfig struct {
	SearchDepth      string   `json:"searchDepth"`
	TimeWindow       string   `json:"timeWindow"`
	MaxFollowups     int      `json:"maxFollowups"`
	SensoFirst       bool     `json:"sensoFirst"`
	SummaryTemplates []string `json:"summaryTemplates,omitempty"`
}

// DefaultStrategyConfig is the version-1 configuration seeded at topic
// creation.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		SearchDepth:  DepthStandard,
		TimeWindow:   WindowWeek,
		MaxFollowups: 5,
	}
}

func (c StrategyConfig) Validate() error {
	switch c.SearchDepth {
	case DepthShallow, DepthStandard, DepthDeep:
	default:
		return fmt.Errorf("invalid searchDepth %q", c.SearchDepth)
	}
	switch c.TimeWindow {
	case WindowDay, WindowWeek, WindowMonth:
	default:
		return fmt.Errorf("invalid timeWindow %q", c.TimeWindow)
	}
	if c.MaxFollowups < 0 {
		return fmt.Errorf("maxFollowups must be >= 0, got %d", c.MaxFollowups)
	}
	return nil
}

// StrategyMutation is a partial overlay produced by the evolution policy.
// Nil fields leave the parent configuration untouched.
type StrategyMutation struct {
	SearchDepth  *string `json:"searchDepth,omitempty"`
	TimeWindow   *string `json:"timeWindow,omitempty"`
	MaxFollowups *int    `json:"maxFollowups,omitempty"`
	SensoFirst   *bool   `json:"sensoFirst,omitempty"`
}

// Apply overlays the mutation onto a parent configuration. Fields the
// mutation does not mention carry over unchanged, including summary
// templates.
func (m StrategyMutation) Apply(parent StrategyConfig) StrategyConfig {
	out := parent
	if m.SearchDepth != nil {
		out.SearchDepth = *m.SearchDepth
	}
	if m.TimeWindow != nil {
		out.TimeWindow = *m.TimeWindow
	}
	if m.MaxFollowups != nil {
		out.MaxFollowups = *m.MaxFollowups
	}
	if m.SensoFirst != nil {
		out.SensoFirst = *m.SensoFirst
	}
	return out
}

// WidenTimeWindow returns the next wider window, saturating at month.
func WidenTimeWindow(current string) string {
	switch current {
	case WindowDay:
		return WindowWeek
	case WindowWeek:
		return WindowMonth
	default:
		return WindowMonth
	}
}

// ReduceFollowups halves the follow-up budget, keeping at least one.
func ReduceFollowups(current int) int {
	reduced := current / 2
	if reduced < 1 {
		reduced = 1
	}
	return reduced
}
