package store

import (
	"context"
	"errors"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/jackc/pgx/v5"
)

// CreateTopic inserts a new topic.
func (s *Store) CreateTopic(ctx context.Context, topic *domain.Topic) error {
	query := `
		INSERT INTO topics (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := s.conn(ctx).Exec(ctx, query,
		topic.ID, topic.Name, topic.Description, topic.CreatedAt)
	if err != nil {
		return WrapError("create topic", err)
	}
	return nil
}

// GetTopic retrieves a topic by ID.
func (s *Store) GetTopic(ctx context.Context, id string) (*domain.Topic, error) {
	query := `
		SELECT id, name, description, created_at
		FROM topics
		WHERE id = $1`

	topic := &domain.Topic{}
	err := s.conn(ctx).QueryRow(ctx, query, id).Scan(
		&topic.ID, &topic.Name, &topic.Description, &topic.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, WrapError("get topic", err)
	}
	return topic, nil
}

// ListTopics returns all topics, newest first.
func (s *Store) ListTopics(ctx context.Context, limit, offset int) ([]*domain.Topic, error) {
	query := `
		SELECT id, name, description, created_at
		FROM topics
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, WrapError("list topics", err)
	}
	defer rows.Close()

	var topics []*domain.Topic
	for rows.Next() {
		topic := &domain.Topic{}
		if err := rows.Scan(&topic.ID, &topic.Name, &topic.Description, &topic.CreatedAt); err != nil {
			return nil, WrapError("scan topic", err)
		}
		topics = append(topics, topic)
	}
	return topics, rows.Err()
}
