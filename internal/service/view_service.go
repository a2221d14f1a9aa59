package service

import (
	"context"
	"strings"

	"studybud/internal/models"
	"studybud/internal/repository"
)

// ViewService assembles the home and profile views.
type ViewService struct {
	rooms      repository.RoomRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	topics     *TopicService
	topicLimit int
}

// HomeView is the browse page: matching rooms, a topic sidebar and recent activity.
type HomeView struct {
	Rooms      []models.Room    `json:"rooms"`
	Topics     []models.Topic   `json:"topics"`
	TopicCount int64            `json:"topic_count"`
	RoomCount  int64            `json:"room_count"`
	Messages   []models.Message `json:"room_messages"`
}

// ProfileView is a user's public page.
type ProfileView struct {
	User     *models.User     `json:"user"`
	Rooms    []models.Room    `json:"rooms"`
	Messages []models.Message `json:"room_messages"`
	Topics   []models.Topic   `json:"topics"`
}

// NewViewService creates a ViewService showing topicLimit topics on the home view.
func NewViewService(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	topics *TopicService,
	topicLimit int,
) *ViewService {
	if topicLimit <= 0 {
		topicLimit = 5
	}
	return &ViewService{rooms: rooms, messages: messages, users: users, topics: topics, topicLimit: topicLimit}
}

// Home returns the browse page filtered by q.
func (s *ViewService) Home(ctx context.Context, q string) (*HomeView, error) {
	q = strings.TrimSpace(q)

	rooms, err := s.rooms.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	roomCount, err := s.rooms.Count(ctx, q)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.Sidebar(ctx, s.topicLimit)
	if err != nil {
		return nil, err
	}
	topicCount, err := s.topics.Count(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByTopicQuery(ctx, q, 0)
	if err != nil {
		return nil, err
	}

	return &HomeView{
		Rooms:      rooms,
		Topics:     topics,
		TopicCount: topicCount,
		RoomCount:  roomCount,
		Messages:   messages,
	}, nil
}

// Profile returns a user's hosted rooms and messages alongside every topic.
func (s *ViewService) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.ListByHost(ctx, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics, err := s.topics.ListTopics(ctx, "")
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Rooms: rooms, Messages: messages, Topics: topics}, nil
}
