package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/jackc/pgx/v5"
)

const strategyColumns = `id, topic_id, version, status, rollout_percentage,
		parent_version, config, created_at, archived_at`

// CreateStrategyVersion appends a row to a topic's strategy log. Version
// numbers carry a unique constraint per topic, so two writers racing for the
// same number surface domain.ErrVersionConflict for the loser.
func (s *Store) CreateStrategyVersion(ctx context.Context, sv *domain.StrategyVersion) error {
	config, err := json.Marshal(sv.Config)
	if err != nil {
		return WrapError("encode strategy config", err)
	}

	query := `
		INSERT INTO strategy_versions (id, topic_id, version, status, rollout_percentage, parent_version, config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = s.conn(ctx).Exec(ctx, query,
		sv.ID, sv.TopicID, sv.Version, sv.Status, sv.RolloutPercentage,
		sv.ParentVersion, config, sv.CreatedAt)
	if err != nil {
		return WrapConflict("create strategy version", err)
	}
	return nil
}

// GetStrategyVersion retrieves one version of a topic's strategy.
func (s *Store) GetStrategyVersion(ctx context.Context, topicID string, version int) (*domain.StrategyVersion, error) {
	query := `SELECT ` + strategyColumns + `
		FROM strategy_versions
		WHERE topic_id = $1 AND version = $2`

	sv, err := scanStrategyVersion(s.conn(ctx).QueryRow(ctx, query, topicID, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, WrapError("get strategy version", err)
	}
	return sv, nil
}

// MaxStrategyVersion returns the highest version number for a topic, 0 when
// the topic has no versions yet.
func (s *Store) MaxStrategyVersion(ctx context.Context, topicID string) (int, error) {
	query := `SELECT COALESCE(MAX(version), 0) FROM strategy_versions WHERE topic_id = $1`

	var max int
	if err := s.conn(ctx).QueryRow(ctx, query, topicID).Scan(&max); err != nil {
		return 0, WrapError("max strategy version", err)
	}
	return max, nil
}

// HasStrategyChild reports whether a non-archived version derived from the
// given parent exists. A true result means the parent's window has already
// produced a candidate.
func (s *Store) HasStrategyChild(ctx context.Context, topicID string, parentVersion int) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM strategy_versions
		WHERE topic_id = $1 AND parent_version = $2 AND status != $3)`

	var exists bool
	err := s.conn(ctx).QueryRow(ctx, query, topicID, parentVersion, domain.StrategyArchived).Scan(&exists)
	if err != nil {
		return false, WrapError("has strategy child", err)
	}
	return exists, nil
}

// SelectableStrategyVersions returns all non-archived versions for a topic,
// oldest version first. These are the versions eligible for the rollout draw.
func (s *Store) SelectableStrategyVersions(ctx context.Context, topicID string) ([]*domain.StrategyVersion, error) {
	query := `SELECT ` + strategyColumns + `
		FROM strategy_versions
		WHERE topic_id = $1 AND status != $2
		ORDER BY version ASC`

	rows, err := s.conn(ctx).Query(ctx, query, topicID, domain.StrategyArchived)
	if err != nil {
		return nil, WrapError("selectable strategy versions", err)
	}
	defer rows.Close()

	return scanStrategyVersions(rows)
}

// ListStrategyVersions returns the full version log for a topic, newest first.
func (s *Store) ListStrategyVersions(ctx context.Context, topicID string) ([]*domain.StrategyVersion, error) {
	query := `SELECT ` + strategyColumns + `
		FROM strategy_versions
		WHERE topic_id = $1
		ORDER BY version DESC`

	rows, err := s.conn(ctx).Query(ctx, query, topicID)
	if err != nil {
		return nil, WrapError("list strategy versions", err)
	}
	defer rows.Close()

	return scanStrategyVersions(rows)
}

// SetRolloutPercentage adjusts the rollout weight of one version.
func (s *Store) SetRolloutPercentage(ctx context.Context, topicID string, version, percentage int) error {
	query := `
		UPDATE strategy_versions
		SET rollout_percentage = $3
		WHERE topic_id = $1 AND version = $2`

	result, err := s.conn(ctx).Exec(ctx, query, topicID, version, percentage)
	if err != nil {
		return WrapError("set rollout percentage", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ActivateStrategyVersion sets one version to active at 100% rollout.
func (s *Store) ActivateStrategyVersion(ctx context.Context, topicID string, version int) error {
	query := `
		UPDATE strategy_versions
		SET status = $3, rollout_percentage = 100, archived_at = NULL
		WHERE topic_id = $1 AND version = $2`

	result, err := s.conn(ctx).Exec(ctx, query, topicID, version, domain.StrategyActive)
	if err != nil {
		return WrapError("activate strategy version", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ArchiveOtherStrategyVersions archives every non-archived version of a topic
// except the given one.
func (s *Store) ArchiveOtherStrategyVersions(ctx context.Context, topicID string, keepVersion int) error {
	query := `
		UPDATE strategy_versions
		SET status = $3, rollout_percentage = 0, archived_at = $4
		WHERE topic_id = $1 AND version != $2 AND status != $3`

	_, err := s.conn(ctx).Exec(ctx, query,
		topicID, keepVersion, domain.StrategyArchived, time.Now().UTC())
	if err != nil {
		return WrapError("archive other strategy versions", err)
	}
	return nil
}

func scanStrategyVersion(row pgx.Row) (*domain.StrategyVersion, error) {
	sv := &domain.StrategyVersion{}
	var config []byte
	err := row.Scan(
		&sv.ID, &sv.TopicID, &sv.Version, &sv.Status, &sv.RolloutPercentage,
		&sv.ParentVersion, &config, &sv.CreatedAt, &sv.ArchivedAt)
	if err != nil {
		return nil, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &sv.Config); err != nil {
			return nil, WrapError("decode strategy config", err)
		}
	}
	return sv, nil
}

func scanStrategyVersions(rows pgx.Rows) ([]*domain.StrategyVersion, error) {
	var versions []*domain.StrategyVersion
	for rows.Next() {
		sv, err := scanStrategyVersion(rows)
		if err != nil {
			return nil, WrapError("scan strategy version", err)
		}
		versions = append(versions, sv)
	}
	return versions, rows.Err()
}
