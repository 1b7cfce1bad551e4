package store

import (
	"context"
	"encoding/json"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/jackc/pgx/v5"
)

// AppendEvolutionEntry inserts an evolution audit record. The log is
// append-only; there is no update or delete path.
func (s *Store) AppendEvolutionEntry(ctx context.Context, entry *domain.EvolutionEntry) error {
	metrics, err := json.Marshal(entry.Metrics)
	if err != nil {
		return WrapError("encode metrics snapshot", err)
	}

	query := `
		INSERT INTO strategy_evolution_log (id, topic_id, from_version, to_version, reason, metrics, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.conn(ctx).Exec(ctx, query,
		entry.ID, entry.TopicID, entry.FromVersion, entry.ToVersion,
		entry.Reason, metrics, entry.CreatedAt)
	if err != nil {
		return WrapError("append evolution entry", err)
	}
	return nil
}

// ListEvolutionEntries returns a topic's evolution history, newest first.
func (s *Store) ListEvolutionEntries(ctx context.Context, topicID string, limit, offset int) ([]*domain.EvolutionEntry, error) {
	query := `
		SELECT id, topic_id, from_version, to_version, reason, metrics, created_at
		FROM strategy_evolution_log
		WHERE topic_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.conn(ctx).Query(ctx, query, topicID, limit, offset)
	if err != nil {
		return nil, WrapError("list evolution entries", err)
	}
	defer rows.Close()

	return scanEvolutionEntries(rows)
}

func scanEvolutionEntries(rows pgx.Rows) ([]*domain.EvolutionEntry, error) {
	var entries []*domain.EvolutionEntry
	for rows.Next() {
		entry := &domain.EvolutionEntry{}
		var metrics []byte
		err := rows.Scan(
			&entry.ID, &entry.TopicID, &entry.FromVersion, &entry.ToVersion,
			&entry.Reason, &metrics, &entry.CreatedAt)
		if err != nil {
			return nil, WrapError("scan evolution entry", err)
		}
		if len(metrics) > 0 {
			if err := json.Unmarshal(metrics, &entry.Metrics); err != nil {
				return nil, WrapError("decode metrics snapshot", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
