package service

import (
	"context"
	"strings"

	"studybud/internal/models"
	"studybud/internal/observability"
	"studybud/internal/repository"
)

// MessageService handles posting and deleting room messages.
type MessageService struct {
	messages  repository.MessageRepository
	rooms     repository.RoomRepository
	publisher RoomEventPublisher
}

// PostMessageInput represents the input for posting a message to a room.
type PostMessageInput struct {
	RoomID uint   `json:"-"`
	Body   string `json:"body"`
}

// MessageDeletion reports where a delete request ended up.
type MessageDeletion struct {
	Stage   models.DeletionStage `json:"stage"`
	Message *models.Message      `json:"message,omitempty"`
}

// NewMessageService creates a MessageService. publisher may be nil.
func NewMessageService(
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
	publisher RoomEventPublisher,
) *MessageService {
	return &MessageService{messages: messages, rooms: rooms, publisher: publisherOrNoop(publisher)}
}

// PostMessage adds a message to a room and makes the author a participant.
func (s *MessageService) PostMessage(ctx context.Context, actor Actor, in PostMessageInput) (*models.Message, error) {
	ctx, span := observability.StartServiceSpan(ctx, "MessageService", "PostMessage")
	defer span.End()

	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	if _, err := s.rooms.GetByID(ctx, in.RoomID); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, models.NewValidationError("body is required")
	}

	msg := &models.Message{UserID: actor.UserID, RoomID: in.RoomID, Body: body}
	if err := s.messages.Create(ctx, msg); err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, err
	}
	if err := s.rooms.AddParticipant(ctx, in.RoomID, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.rooms.Touch(ctx, in.RoomID); err != nil {
		return nil, err
	}

	created, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	observability.MessagesPosted.Inc()
	s.publisher.PublishRoomEvent(ctx, in.RoomID, EventMessageCreated, created)
	return created, nil
}

// DeleteMessage runs the confirm/delete interaction. Only the author may delete.
func (s *MessageService) DeleteMessage(ctx context.Context, actor Actor, in DeleteInput) (*MessageDeletion, error) {
	if err := requireLogin(actor); err != nil {
		return nil, err
	}
	msg, err := s.messages.GetByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(actor, &msg.UserID, "only the author can delete this message"); err != nil {
		return nil, err
	}

	stage, err := runDeletion("message", in, func() error {
		return s.messages.Delete(ctx, msg.ID)
	})
	if err != nil {
		return nil, err
	}
	if stage.Removed() {
		s.publisher.PublishRoomEvent(ctx, msg.RoomID, EventMessageDeleted, map[string]uint{
			"id":      msg.ID,
			"room_id": msg.RoomID,
		})
	}
	return &MessageDeletion{Stage: stage, Message: msg}, nil
}

// ListAll returns every message, newest first.
func (s *MessageService) ListAll(ctx context.Context) ([]models.Message, error) {
	return s.messages.ListAll(ctx, 0)
}
