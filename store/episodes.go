package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/jackc/pgx/v5"
)

const episodeColumns = `id, topic_id, strategy_version, query, status,
		sources_returned, sources_saved, followup_count, tool_usage,
		duration_ms, error_message, created_at, started_at, finished_at`

// CreateEpisode inserts a pending episode.
func (s *Store) CreateEpisode(ctx context.Context, ep *domain.Episode) error {
	query := `
		INSERT INTO episodes (id, topic_id, strategy_version, query, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.conn(ctx).Exec(ctx, query,
		ep.ID, ep.TopicID, ep.StrategyVersion, ep.Query, ep.Status, ep.CreatedAt)
	if err != nil {
		return WrapError("create episode", err)
	}
	return nil
}

// GetEpisode retrieves an episode by ID.
func (s *Store) GetEpisode(ctx context.Context, id string) (*domain.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = $1`

	ep, err := scanEpisode(s.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, WrapError("get episode", err)
	}
	return ep, nil
}

// MarkEpisodeRunning transitions a pending episode to running. Calling it on
// an episode that is already running is a no-op; terminal episodes are
// rejected with domain.ErrInvalidState.
func (s *Store) MarkEpisodeRunning(ctx context.Context, id string) error {
	query := `
		UPDATE episodes
		SET status = $2, started_at = $3
		WHERE id = $1 AND status = $4`

	result, err := s.conn(ctx).Exec(ctx, query,
		id, domain.EpisodeRunning, time.Now().UTC(), domain.EpisodePending)
	if err != nil {
		return WrapError("mark episode running", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	ep, err := s.GetEpisode(ctx, id)
	if err != nil {
		return err
	}
	if ep.Status == domain.EpisodeRunning {
		return nil
	}
	return domain.ErrInvalidState
}

// CompleteEpisode transitions a pending or running episode to completed and
// records the run outcome.
func (s *Store) CompleteEpisode(ctx context.Context, id string, outcome domain.EpisodeOutcome) error {
	toolUsage, err := json.Marshal(outcome.ToolUsage)
	if err != nil {
		return WrapError("encode tool usage", err)
	}

	query := `
		UPDATE episodes
		SET status = $2, sources_returned = $3, sources_saved = $4,
		    followup_count = $5, tool_usage = $6, duration_ms = $7, finished_at = $8
		WHERE id = $1 AND status IN ($9, $10)`

	result, err := s.conn(ctx).Exec(ctx, query,
		id, domain.EpisodeCompleted, outcome.SourcesReturned, outcome.SourcesSaved,
		outcome.FollowupCount, toolUsage, outcome.DurationMs, time.Now().UTC(),
		domain.EpisodePending, domain.EpisodeRunning)
	if err != nil {
		return WrapError("complete episode", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}
	return s.terminalTransitionError(ctx, id)
}

// FailEpisode transitions a pending or running episode to failed.
func (s *Store) FailEpisode(ctx context.Context, id, errorMessage string, durationMs int64) error {
	query := `
		UPDATE episodes
		SET status = $2, error_message = $3, duration_ms = $4, finished_at = $5
		WHERE id = $1 AND status IN ($6, $7)`

	result, err := s.conn(ctx).Exec(ctx, query,
		id, domain.EpisodeFailed, errorMessage, durationMs, time.Now().UTC(),
		domain.EpisodePending, domain.EpisodeRunning)
	if err != nil {
		return WrapError("fail episode", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}
	return s.terminalTransitionError(ctx, id)
}

func (s *Store) terminalTransitionError(ctx context.Context, id string) error {
	if _, err := s.GetEpisode(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidState
}

// RecentTerminalEpisodes returns the most recent completed or failed episodes
// for a (topic, strategy version) pair, newest first.
func (s *Store) RecentTerminalEpisodes(ctx context.Context, topicID string, version, limit int) ([]*domain.Episode, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes
		WHERE topic_id = $1 AND strategy_version = $2 AND status IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT $5`

	rows, err := s.conn(ctx).Query(ctx, query,
		topicID, version, domain.EpisodeCompleted, domain.EpisodeFailed, limit)
	if err != nil {
		return nil, WrapError("recent terminal episodes", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// ListEpisodes returns episodes for a topic, newest first.
func (s *Store) ListEpisodes(ctx context.Context, topicID string, limit, offset int) ([]*domain.Episode, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes
		WHERE topic_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.conn(ctx).Query(ctx, query, topicID, limit, offset)
	if err != nil {
		return nil, WrapError("list episodes", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

// StaleRunningEpisodes returns running episodes started before the cutoff.
// The sweeper fails these so perpetually-running records cannot skew metrics.
func (s *Store) StaleRunningEpisodes(ctx context.Context, cutoff time.Time) ([]*domain.Episode, error) {
	query := `SELECT ` + episodeColumns + `
		FROM episodes
		WHERE status = $1 AND started_at < $2
		ORDER BY started_at ASC`

	rows, err := s.conn(ctx).Query(ctx, query, domain.EpisodeRunning, cutoff)
	if err != nil {
		return nil, WrapError("stale running episodes", err)
	}
	defer rows.Close()

	return scanEpisodes(rows)
}

func scanEpisode(row pgx.Row) (*domain.Episode, error) {
	ep := &domain.Episode{}
	var toolUsage []byte
	err := row.Scan(
		&ep.ID, &ep.TopicID, &ep.StrategyVersion, &ep.Query, &ep.Status,
		&ep.SourcesReturned, &ep.SourcesSaved, &ep.FollowupCount, &toolUsage,
		&ep.DurationMs, &ep.ErrorMessage, &ep.CreatedAt, &ep.StartedAt, &ep.FinishedAt)
	if err != nil {
		return nil, err
	}
	if len(toolUsage) > 0 {
		if err := json.Unmarshal(toolUsage, &ep.ToolUsage); err != nil {
			return nil, WrapError("decode tool usage", err)
		}
	}
	return ep, nil
}

func scanEpisodes(rows pgx.Rows) ([]*domain.Episode, error) {
	var episodes []*domain.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, WrapError("scan episode", err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}
