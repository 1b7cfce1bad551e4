package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gadicohen93/deepcurrent/domain"
)

func TestFoldEpisodes_Empty(t *testing.T) {
	m := foldEpisodes("topic_test1", 1, nil)
	assert.Equal(t, 0, m.SampleSize)
	assert.Zero(t, m.SaveRate)
	assert.Zero(t, m.FailureRate)
}

func TestFoldEpisodes(t *testing.T) {
	episodes := []*domain.Episode{
		{
			Status:          domain.EpisodeCompleted,
			SourcesReturned: []string{"a", "b", "c", "d"},
			SourcesSaved:    []string{"a", "b"},
			FollowupCount:   2,
			ToolUsage:       map[string]int{"senso": 3, "web_search": 1},
		},
		{
			Status:          domain.EpisodeCompleted,
			SourcesReturned: []string{"e", "f"},
			SourcesSaved:    []string{"e"},
			FollowupCount:   4,
			ToolUsage:       map[string]int{"senso": 1, "web_search": 3},
		},
		{
			// Failed runs carry no source signal; only the failure itself and
			// nothing else counts toward the fold.
			Status:        domain.EpisodeFailed,
			FollowupCount: 9,
			ToolUsage:     map[string]int{"web_search": 5},
		},
	}

	m := foldEpisodes("topic_test1", 2, episodes)

	assert.Equal(t, 3, m.SampleSize)
	// 3 saved of 6 returned; followups averaged over completed runs only.
	assert.Equal(t, 6, m.SourcesReturned)
	assert.InDelta(t, 0.5, m.SaveRate, 1e-9)
	assert.InDelta(t, 3.0, m.AvgFollowups, 1e-9)
	assert.InDelta(t, 1.0/3.0, m.FailureRate, 1e-9)
	assert.InDelta(t, 0.5, m.ToolUsage["senso"], 1e-9)
}

func TestFoldEpisodes_AllFailed(t *testing.T) {
	episodes := []*domain.Episode{
		{Status: domain.EpisodeFailed},
		{Status: domain.EpisodeFailed},
	}

	m := foldEpisodes("topic_test1", 1, episodes)
	assert.Equal(t, 1.0, m.FailureRate)
	assert.Zero(t, m.SourcesReturned)
	assert.Zero(t, m.SaveRate, "no completed episodes must leave save rate at 0")
}

// A sweep of timed-out episodes can fill a whole window with failures. That
// fold carries enough samples to pass the policy's gate, but with zero
// returned sources it must not be punished as a low save rate.
func TestFoldAllFailedWindowDoesNotEvolveOnSaveRate(t *testing.T) {
	episodes := make([]*domain.Episode, 6)
	for i := range episodes {
		episodes[i] = &domain.Episode{Status: domain.EpisodeFailed}
	}

	m := foldEpisodes("topic_test1", 1, episodes)
	d := Decide(m, domain.DefaultStrategyConfig(), DefaultThresholds())

	if d.ShouldEvolve {
		t.Fatalf("all-failed window evolved with reason %q", d.Reason)
	}
}
