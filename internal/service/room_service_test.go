package service

import (
	"context"
	"strings"
	"testing"

	"studybud/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostedRoomRepo(hostID uint) *roomRepoStub {
	repo := noopRoomRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Room, error) {
		return &models.Room{ID: id, HostID: uintPtr(hostID), Name: "Go"}, nil
	}
	return repo
}

func TestCreateRoom_RequiresLogin(t *testing.T) {
	svc := NewRoomService(noopRoomRepo(), noopMessageRepo(), newTopicService(noopTopicRepo()), nil)

	_, err := svc.CreateRoom(context.Background(), Actor{}, CreateRoomInput{TopicName: "Go", Name: "Gophers"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestCreateRoom_Validation(t *testing.T) {
	svc := NewRoomService(noopRoomRepo(), noopMessageRepo(), newTopicService(noopTopicRepo()), nil)
	actor := Actor{UserID: 1}

	tests := []struct {
		name string
		in   CreateRoomInput
	}{
		{"Blank Name", CreateRoomInput{TopicName: "Go", Name: "   "}},
		{"Blank Topic", CreateRoomInput{TopicName: " ", Name: "Gophers"}},
		{"Name Too Long", CreateRoomInput{TopicName: "Go", Name: strings.Repeat("x", 201)}},
		{"Topic Too Long", CreateRoomInput{TopicName: strings.Repeat("x", 201), Name: "Gophers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRoom(context.Background(), actor, tt.in)
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateRoom_Success(t *testing.T) {
	rooms := noopRoomRepo()
	var created *models.Room
	rooms.createFn = func(_ context.Context, r *models.Room) error {
		r.ID = 12
		created = r
		return nil
	}
	topics := noopTopicRepo()
	var resolved string
	topics.getOrCreateFn = func(_ context.Context, name string) (*models.Topic, bool, error) {
		resolved = name
		return &models.Topic{ID: 4, Name: name}, true, nil
	}
	svc := NewRoomService(rooms, noopMessageRepo(), newTopicService(topics), nil)

	room, err := svc.CreateRoom(context.Background(), Actor{UserID: 9}, CreateRoomInput{
		TopicName:   "  Python ",
		Name:        " Snakes ",
		Description: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Python", resolved)
	assert.Same(t, created, room)
	assert.Equal(t, uint(12), room.ID)
	assert.Equal(t, "Snakes", room.Name)
	assert.Equal(t, uint(9), *room.HostID)
	assert.Equal(t, uint(4), *room.TopicID)
	assert.Nil(t, room.Description)
	assert.Equal(t, "Python", room.Topic.Name)
}

func TestGetRoom(t *testing.T) {
	rooms := noopRoomRepo()
	rooms.getByIDFn = func(_ context.Context, id uint) (*models.Room, error) {
		if id != 2 {
			return nil, models.NewNotFoundError("Room", id)
		}
		return &models.Room{ID: 2, Participants: []models.User{{ID: 1, Username: "ann"}}}, nil
	}
	msgs := noopMessageRepo()
	msgs.listByRoomFn = func(_ context.Context, roomID uint) ([]models.Message, error) {
		return []models.Message{{ID: 5, RoomID: roomID}}, nil
	}
	svc := NewRoomService(rooms, msgs, newTopicService(noopTopicRepo()), nil)

	detail, err := svc.GetRoom(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, detail.Messages, 1)
	assert.Equal(t, "ann", detail.Participants[0].Username)

	_, err = svc.GetRoom(context.Background(), 3)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUpdateRoom_Guards(t *testing.T) {
	svc := NewRoomService(hostedRoomRepo(1), noopMessageRepo(), newTopicService(noopTopicRepo()), nil)
	in := UpdateRoomInput{ID: 3, TopicName: "Go", Name: "Renamed"}

	_, err := svc.UpdateRoom(context.Background(), Actor{}, in)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	_, err = svc.UpdateRoom(context.Background(), Actor{UserID: 2}, in)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	missing := noopRoomRepo()
	missing.getByIDFn = func(_ context.Context, id uint) (*models.Room, error) {
		return nil, models.NewNotFoundError("Room", id)
	}
	svc = NewRoomService(missing, noopMessageRepo(), newTopicService(noopTopicRepo()), nil)
	_, err = svc.UpdateRoom(context.Background(), Actor{UserID: 1}, in)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUpdateRoom_OverwritesFields(t *testing.T) {
	rooms := hostedRoomRepo(1)
	var saved *models.Room
	rooms.updateFn = func(_ context.Context, r *models.Room) error {
		saved = r
		return nil
	}
	svc := NewRoomService(rooms, noopMessageRepo(), newTopicService(noopTopicRepo()), nil)

	room, err := svc.UpdateRoom(context.Background(), Actor{UserID: 1}, UpdateRoomInput{
		ID:          3,
		TopicName:   "Rust",
		Name:        "Crabs",
		Description: strPtr("ownership talk"),
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Crabs", room.Name)
	assert.Equal(t, uint(7), *room.TopicID)
	assert.Equal(t, "ownership talk", *room.Description)
}

func TestRoomForm(t *testing.T) {
	topics := noopTopicRepo()
	topics.listFn = func(_ context.Context, _ string, _ int) ([]models.Topic, error) {
		return []models.Topic{{ID: 1, Name: "Go"}}, nil
	}
	svc := NewRoomService(hostedRoomRepo(1), noopMessageRepo(), newTopicService(topics), nil)

	form, err := svc.RoomForm(context.Background(), Actor{UserID: 5}, nil)
	require.NoError(t, err)
	assert.Len(t, form.Topics, 1)
	assert.Nil(t, form.Room)

	_, err = svc.RoomForm(context.Background(), Actor{UserID: 5}, uintPtr(3))
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	form, err = svc.RoomForm(context.Background(), Actor{UserID: 1}, uintPtr(3))
	require.NoError(t, err)
	assert.Equal(t, uint(3), form.Room.ID)

	_, err = svc.RoomForm(context.Background(), Actor{}, nil)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestDeleteRoom_StateMachine(t *testing.T) {
	rooms := hostedRoomRepo(1)
	deleted := 0
	rooms.deleteFn = func(_ context.Context, _ uint) error {
		deleted++
		return nil
	}
	pub := &publisherStub{}
	svc := NewRoomService(rooms, noopMessageRepo(), newTopicService(noopTopicRepo()), pub)
	host := Actor{UserID: 1}

	res, err := svc.DeleteRoom(context.Background(), host, DeleteInput{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionConfirming, res.Stage)
	assert.Equal(t, "Go", res.Room.Name)

	res, err = svc.DeleteRoom(context.Background(), host, DeleteInput{ID: 3, Cancelled: true})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionAbandoned, res.Stage)
	assert.Equal(t, 0, deleted)
	assert.Empty(t, pub.Events())

	res, err = svc.DeleteRoom(context.Background(), host, DeleteInput{ID: 3, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, models.DeletionConfirmed, res.Stage)
	assert.Equal(t, 1, deleted)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventRoomDeleted, events[0].Type)
	assert.Equal(t, uint(3), events[0].RoomID)
}

func TestDeleteRoom_NonHostNeverDeletes(t *testing.T) {
	rooms := hostedRoomRepo(1)
	rooms.deleteFn = func(_ context.Context, _ uint) error {
		t.Fatal("delete must not be called")
		return nil
	}
	svc := NewRoomService(rooms, noopMessageRepo(), newTopicService(noopTopicRepo()), nil)

	_, err := svc.DeleteRoom(context.Background(), Actor{UserID: 2}, DeleteInput{ID: 3, Confirmed: true})
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	_, err = svc.DeleteRoom(context.Background(), Actor{}, DeleteInput{ID: 3, Confirmed: true})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}
