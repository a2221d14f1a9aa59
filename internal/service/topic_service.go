package service

import (
	"context"
	"fmt"
	"strings"

	"studybud/internal/cache"
	"studybud/internal/models"
	"studybud/internal/repository"
)

// TopicService lists topics and resolves topic names, caching the sidebar list.
type TopicService struct {
	topics repository.TopicRepository
	cache  *cache.Store
}

// NewTopicService creates a TopicService. store may wrap a nil Redis client.
func NewTopicService(topics repository.TopicRepository, store *cache.Store) *TopicService {
	return &TopicService{topics: topics, cache: store}
}

// ListTopics returns topics whose name contains q, case-insensitively.
func (s *TopicService) ListTopics(ctx context.Context, q string) ([]models.Topic, error) {
	return s.topics.List(ctx, strings.TrimSpace(q), 0)
}

// GetOrCreate resolves name to a topic, creating it on first use.
func (s *TopicService) GetOrCreate(ctx context.Context, name string) (*models.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("topic_name is required")
	}
	topic, created, err := s.topics.GetOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	if created {
		s.cache.InvalidatePattern(ctx, "topics:sidebar:*")
	}
	return topic, nil
}

// Sidebar returns the first limit topics through the cache.
func (s *TopicService) Sidebar(ctx context.Context, limit int) ([]models.Topic, error) {
	var topics []models.Topic
	key := fmt.Sprintf(cache.TopicSidebarKey, limit)
	err := s.cache.Aside(ctx, key, &topics, cache.TopicSidebarTTL, func() error {
		var err error
		topics, err = s.topics.List(ctx, "", limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// Count returns the total number of topics.
func (s *TopicService) Count(ctx context.Context) (int64, error) {
	return s.topics.Count(ctx)
}
