package store

import (
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/gadicohen93/deepcurrent/domain"
)

var episodeColumnNames = []string{
	"id", "topic_id", "strategy_version", "query", "status",
	"sources_returned", "sources_saved", "followup_count", "tool_usage",
	"duration_ms", "error_message", "created_at", "started_at", "finished_at",
}

func episodeRow(id, status string) *pgxmock.Rows {
	created := time.Now().UTC()
	return pgxmock.NewRows(episodeColumnNames).
		AddRow(id, "topic_test1", 1, "what changed this week", status,
			[]string{"src_a", "src_b"}, []string{"src_a"}, 2, []byte(`{"senso":3,"web_search":1}`),
			int64(1200), "", created, &created, &created)
}

func TestCreateEpisode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}
	ep := &domain.Episode{
		ID:              "ep_test1",
		TopicID:         "topic_test1",
		StrategyVersion: 1,
		Query:           "what changed this week",
		Status:          domain.EpisodePending,
		CreatedAt:       time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO episodes").
		WithArgs(ep.ID, ep.TopicID, ep.StrategyVersion, ep.Query, ep.Status, ep.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ctx := NewMockContext(mock)
	if err := s.CreateEpisode(ctx, ep); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMarkEpisodeRunning(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}

	mock.ExpectExec("UPDATE episodes").
		WithArgs("ep_test1", domain.EpisodeRunning, pgxmock.AnyArg(), domain.EpisodePending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := NewMockContext(mock)
	if err := s.MarkEpisodeRunning(ctx, "ep_test1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMarkEpisodeRunning_AlreadyRunning(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}

	// Update matches nothing, then the status check finds it already running.
	mock.ExpectExec("UPDATE episodes").
		WithArgs("ep_test1", domain.EpisodeRunning, pgxmock.AnyArg(), domain.EpisodePending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM episodes").
		WithArgs("ep_test1").
		WillReturnRows(episodeRow("ep_test1", domain.EpisodeRunning))

	ctx := NewMockContext(mock)
	if err := s.MarkEpisodeRunning(ctx, "ep_test1"); err != nil {
		t.Errorf("expected no-op on running episode, got %v", err)
	}
}

func TestMarkEpisodeRunning_Terminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}

	mock.ExpectExec("UPDATE episodes").
		WithArgs("ep_test1", domain.EpisodeRunning, pgxmock.AnyArg(), domain.EpisodePending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM episodes").
		WithArgs("ep_test1").
		WillReturnRows(episodeRow("ep_test1", domain.EpisodeCompleted))

	ctx := NewMockContext(mock)
	err = s.MarkEpisodeRunning(ctx, "ep_test1")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteEpisode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}
	outcome := domain.EpisodeOutcome{
		SourcesReturned: []string{"src_a", "src_b", "src_c"},
		SourcesSaved:    []string{"src_a"},
		FollowupCount:   2,
		ToolUsage:       map[string]int{"senso": 3},
		DurationMs:      1500,
	}

	mock.ExpectExec("UPDATE episodes").
		WithArgs("ep_test1", domain.EpisodeCompleted, outcome.SourcesReturned,
			outcome.SourcesSaved, outcome.FollowupCount, pgxmock.AnyArg(),
			outcome.DurationMs, pgxmock.AnyArg(),
			domain.EpisodePending, domain.EpisodeRunning).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := NewMockContext(mock)
	if err := s.CompleteEpisode(ctx, "ep_test1", outcome); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFailEpisode_Terminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}

	mock.ExpectExec("UPDATE episodes").
		WithArgs("ep_test1", domain.EpisodeFailed, "boom", int64(100), pgxmock.AnyArg(),
			domain.EpisodePending, domain.EpisodeRunning).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT (.+) FROM episodes").
		WithArgs("ep_test1").
		WillReturnRows(episodeRow("ep_test1", domain.EpisodeCompleted))

	ctx := NewMockContext(mock)
	err = s.FailEpisode(ctx, "ep_test1", "boom", 100)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on terminal episode, got %v", err)
	}
}

func TestRecentTerminalEpisodes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	s := &Store{}
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM episodes").
		WithArgs("topic_test1", 1, domain.EpisodeCompleted, domain.EpisodeFailed, 20).
		WillReturnRows(pgxmock.NewRows(episodeColumnNames).
			AddRow("ep_b", "topic_test1", 1, "q2", domain.EpisodeFailed,
				[]string(nil), []string(nil), 0, []byte(`{}`),
				int64(300), "episode timed out", created, &created, &created).
			AddRow("ep_a", "topic_test1", 1, "q1", domain.EpisodeCompleted,
				[]string{"src_a", "src_b"}, []string{"src_a"}, 1, []byte(`{"senso":2}`),
				int64(900), "", created, &created, &created))

	ctx := NewMockContext(mock)
	episodes, err := s.RecentTerminalEpisodes(ctx, "topic_test1", 1, 20)
	if err != nil {
		t.Fatalf("RecentTerminalEpisodes failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(episodes))
	}
	if episodes[0].ErrorMessage != "episode timed out" {
		t.Errorf("error message not preserved: %q", episodes[0].ErrorMessage)
	}
	if episodes[1].ToolUsage["senso"] != 2 {
		t.Errorf("tool usage not decoded: %+v", episodes[1].ToolUsage)
	}
}
