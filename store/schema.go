package store

import (
	"context"
	"fmt"
)

// InitSchema creates the tables and indexes if they do not exist. The unique
// constraint on (topic_id, version) is what serializes concurrent candidate
// creation.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS topics (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS strategy_versions (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			version INTEGER NOT NULL,
			status TEXT NOT NULL,
			rollout_percentage INTEGER NOT NULL DEFAULT 0,
			parent_version INTEGER,
			config JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			archived_at TIMESTAMPTZ,
			UNIQUE (topic_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_strategy_versions_topic ON strategy_versions(topic_id);

		CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			strategy_version INTEGER NOT NULL,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			sources_returned JSONB NOT NULL DEFAULT '[]',
			sources_saved JSONB NOT NULL DEFAULT '[]',
			followup_count INTEGER NOT NULL DEFAULT 0,
			tool_usage JSONB NOT NULL DEFAULT '{}',
			error_message TEXT NOT NULL DEFAULT '',
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_episodes_topic_version ON episodes(topic_id, strategy_version, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_episodes_status ON episodes(status);

		CREATE TABLE IF NOT EXISTS strategy_evolution_log (
			id TEXT PRIMARY KEY,
			topic_id TEXT NOT NULL REFERENCES topics(id),
			from_version INTEGER NOT NULL,
			to_version INTEGER NOT NULL,
			reason TEXT NOT NULL,
			metrics JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_evolution_log_topic ON strategy_evolution_log(topic_id, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
