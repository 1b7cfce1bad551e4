package runner

import (
	"context"
	"testing"

	"github.com/gadicohen93/deepcurrent/domain"
)

func TestScriptedDeterministic(t *testing.T) {
	r := NewScripted()
	cfg := domain.DefaultStrategyConfig()

	first, err := r.RunEpisode(context.Background(), "golang generics adoption", cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RunEpisode(context.Background(), "golang generics adoption", cfg)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.SourcesReturned) != len(second.SourcesReturned) ||
		first.FollowupCount != second.FollowupCount {
		t.Errorf("same query produced different results: %+v vs %+v", first, second)
	}
}

func TestScriptedSavedIsSubset(t *testing.T) {
	r := NewScripted()

	for _, query := range []string{"a", "quantum error correction", "rust async"} {
		res, err := r.RunEpisode(context.Background(), query, domain.DefaultStrategyConfig())
		if err != nil {
			t.Fatal(err)
		}

		returned := make(map[string]struct{}, len(res.SourcesReturned))
		for _, src := range res.SourcesReturned {
			returned[src] = struct{}{}
		}
		for _, src := range res.SourcesSaved {
			if _, ok := returned[src]; !ok {
				t.Errorf("query %q: saved source %q not in returned set", query, src)
			}
		}
	}
}

func TestScriptedDepthScalesSources(t *testing.T) {
	r := NewScripted()
	query := "fusion energy milestones"

	shallow := domain.DefaultStrategyConfig()
	shallow.SearchDepth = domain.DepthShallow
	deep := domain.DefaultStrategyConfig()
	deep.SearchDepth = domain.DepthDeep

	shallowRes, err := r.RunEpisode(context.Background(), query, shallow)
	if err != nil {
		t.Fatal(err)
	}
	deepRes, err := r.RunEpisode(context.Background(), query, deep)
	if err != nil {
		t.Fatal(err)
	}

	if len(deepRes.SourcesReturned) <= len(shallowRes.SourcesReturned) {
		t.Errorf("deep search returned %d sources, shallow %d",
			len(deepRes.SourcesReturned), len(shallowRes.SourcesReturned))
	}
}
