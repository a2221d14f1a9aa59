package service

import (
	"context"
	"strings"

	"studybud/internal/models"
	"studybud/internal/observability"
	"studybud/internal/repository"
	"studybud/internal/validation"
)

// RoomService handles room browsing and host-only room management.
type RoomService struct {
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	topics    *TopicService
	publisher RoomEventPublisher
}

// RoomDetail is a room with its conversation and participants.
type RoomDetail struct {
	Room         *models.Room     `json:"room"`
	Messages     []models.Message `json:"messages"`
	Participants []models.User    `json:"participants"`
}

// RoomFormData is the data needed to render a create or update form.
type RoomFormData struct {
	Topics []models.Topic `json:"topics"`
	Room   *models.Room   `json:"room,omitempty"`
}

// RoomDeletion reports where a delete request ended up.
type RoomDeletion struct {
	Stage models.DeletionStage `json:"stage"`
	Room  *models.Room         `json:"room,omitempty"`
}

// CreateRoomInput represents the input for creating a room.
type CreateRoomInput struct {
	TopicName   string  `json:"topic_name" validate:"required,max=200"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
}

// UpdateRoomInput represents the input for updating a room.
type UpdateRoomInput struct {
	ID          uint    `json:"-"`
	TopicName   string  `json:"topic_name" validate:"required,max=200"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
}

// NewRoomService creates a RoomService. publisher may be nil.
func NewRoomService(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	topics *TopicService,
	publisher RoomEventPublisher,
) *RoomService {
	return &RoomService{
		rooms:     rooms,
		messages:  messages,
		topics:    topics,
		publisher: publisherOrNoop(publisher),
	}
}

// GetRoom returns a room with its messages and participants.
func (s *RoomService) GetRoom(ctx context.Context, id uint) (*RoomDetail, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.ListByRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	participants := room.Participants
	if participants == nil {
		participants = []models.User{}
	}
	return &RoomDetail{Room: room, Messages: messages, Participants: participants}, nil
}

// CreateRoom creates a room hosted by actor, resolving the topic by name.
func (s *RoomService) CreateRoom(ctx context.Context, actor Actor, in CreateRoomInput) (*models.Room, error) {
	ctx, span := observability.StartServiceSpan(ctx, "RoomService", "CreateRoom")
	defer span.End()

	if err := requireLogin(actor); err != nil {
		return nil, err
	}

	in.TopicName = strings.TrimSpace(in.TopicName)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	topic, err := s.topics.GetOrCreate(ctx, in.TopicName)
	if err != nil {
		return nil, err
	}

	hostID := actor.UserID
	room := &models.Room{
		HostID:      &hostID,
		TopicID:     &topic.ID,
		Name:        in.Name,
		Description: optionalText(in.Description),
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, err
	}
	room.Topic = topic
	observability.RoomsCreated.Inc()
	return room, nil
}

// RoomForm returns the topic list, plus the room itself when roomID is set.
// Only the host may load the form for an existing room.
func (s *RoomService) RoomForm(ctx context.Context, actor Actor, roomID *uint) (*RoomFormData, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}

	form := &RoomFormData{}
	if roomID != nil {
		room, err := s.hostedRoom(ctx, actor, *roomID, "only the host can update this room")
		if err != nil {
			return nil, err
		}
		form.Room = room
	}

	topics, err := s.topics.ListTopics(ctx, "")
	if err != nil {
		return nil, err
	}
	form.Topics = topics
	return form, nil
}

// UpdateRoom overwrites the room's name, topic and description.
func (s *RoomService) UpdateRoom(ctx context.Context, actor Actor, in UpdateRoomInput) (*models.Room, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	room, err := s.hostedRoom(ctx, actor, in.ID, "only the host can update this room")
	if err != nil {
		return nil, err
	}

	in.TopicName = strings.TrimSpace(in.TopicName)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	topic, err := s.topics.GetOrCreate(ctx, in.TopicName)
	if err != nil {
		return nil, err
	}

	room.Name = in.Name
	room.TopicID = &topic.ID
	room.Topic = topic
	room.Description = optionalText(in.Description)
	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom runs the confirm/delete interaction. The room and its messages
// are removed only once the host confirms.
func (s *RoomService) DeleteRoom(ctx context.Context, actor Actor, in DeleteInput) (*RoomDeletion, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	room, err := s.hostedRoom(ctx, actor, in.ID, "only the host can delete this room")
	if err != nil {
		return nil, err
	}

	stage, err := runDeletion("room", in, func() error {
		return s.rooms.Delete(ctx, room.ID)
	})
	if err != nil {
		return nil, err
	}
	if stage.Removed() {
		s.publisher.PublishRoomEvent(ctx, room.ID, EventRoomDeleted, map[string]uint{"room_id": room.ID})
	}
	return &RoomDeletion{Stage: stage, Room: room}, nil
}

func (s *RoomService) hostedRoom(ctx context.Context, actor Actor, id uint, msg string) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, room.HostID, msg); err != nil {
		return nil, err
	}
	return room, nil
}
