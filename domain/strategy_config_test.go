package domain

import "testing"

func TestStrategyConfigValidate(t *testing.T) {
	if err := DefaultStrategyConfig().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}

	bad := DefaultStrategyConfig()
	bad.SearchDepth = "bottomless"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown search depth")
	}

	bad = DefaultStrategyConfig()
	bad.TimeWindow = "fortnight"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown time window")
	}

	bad = DefaultStrategyConfig()
	bad.MaxFollowups = -1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for negative followups")
	}
}

func TestStrategyMutationApply(t *testing.T) {
	parent := StrategyConfig{
		SearchDepth:      DepthStandard,
		TimeWindow:       WindowWeek,
		MaxFollowups:     5,
		SummaryTemplates: []string{"daily-brief"},
	}

	depth := DepthDeep
	window := WindowMonth
	mutated := StrategyMutation{SearchDepth: &depth, TimeWindow: &window}.Apply(parent)

	if mutated.SearchDepth != DepthDeep || mutated.TimeWindow != WindowMonth {
		t.Errorf("mutation not applied: %+v", mutated)
	}
	if mutated.MaxFollowups != 5 {
		t.Errorf("untouched field changed: %+v", mutated)
	}
	if len(mutated.SummaryTemplates) != 1 || mutated.SummaryTemplates[0] != "daily-brief" {
		t.Errorf("summary templates must carry over: %+v", mutated.SummaryTemplates)
	}

	// Empty mutation is the identity.
	same := StrategyMutation{}.Apply(parent)
	if same.SearchDepth != parent.SearchDepth || same.MaxFollowups != parent.MaxFollowups {
		t.Errorf("empty mutation changed the config: %+v", same)
	}
}

func TestWidenTimeWindow(t *testing.T) {
	cases := map[string]string{
		WindowDay:   WindowWeek,
		WindowWeek:  WindowMonth,
		WindowMonth: WindowMonth, // saturates
	}
	for in, want := range cases {
		if got := WidenTimeWindow(in); got != want {
			t.Errorf("WidenTimeWindow(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReduceFollowups(t *testing.T) {
	cases := map[int]int{10: 5, 5: 2, 2: 1, 1: 1, 0: 1}
	for in, want := range cases {
		if got := ReduceFollowups(in); got != want {
			t.Errorf("ReduceFollowups(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestEpisodeTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		EpisodePending:   false,
		EpisodeRunning:   false,
		EpisodeCompleted: true,
		EpisodeFailed:    true,
	} {
		ep := &Episode{Status: status}
		if ep.Terminal() != terminal {
			t.Errorf("Terminal() for %q: got %v, want %v", status, ep.Terminal(), terminal)
		}
	}
}
