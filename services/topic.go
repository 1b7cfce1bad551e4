package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

// TopicService handles topic lifecycle. Creating a topic seeds strategy
// version 1 as active at full rollout.
type TopicService struct {
	store *store.Store
}

func NewTopicService(s *store.Store) *TopicService {
	return &TopicService{store: s}
}

func (svc *TopicService) Create(ctx context.Context, name, description string) (*domain.Topic, error) {
	topic := &domain.Topic{
		ID:          store.NewTopicID(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	seed := &domain.StrategyVersion{
		ID:                store.NewStrategyID(),
		TopicID:           topic.ID,
		Version:           1,
		Status:            domain.StrategyActive,
		RolloutPercentage: 100,
		Config:            domain.DefaultStrategyConfig(),
		CreatedAt:         topic.CreatedAt,
	}

	err := svc.store.WithTx(ctx, func(ctx context.Context) error {
		if err := svc.store.CreateTopic(ctx, topic); err != nil {
			return err
		}
		return svc.store.CreateStrategyVersion(ctx, seed)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "topic created", "topic_id", topic.ID, "name", name)
	return topic, nil
}

func (svc *TopicService) Get(ctx context.Context, id string) (*domain.Topic, error) {
	return svc.store.GetTopic(ctx, id)
}

func (svc *TopicService) List(ctx context.Context, limit, offset int) ([]*domain.Topic, error) {
	return svc.store.ListTopics(ctx, limit, offset)
}
