package server

import (
	"net/http"
	"testing"

	"studybud/internal/models"
	"studybud/internal/service"
	"studybud/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHome_FiltersRoomsAndActivity(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	goTopic := testutil.CreateTopic(t, env.db, "Golang")
	pyTopic := testutil.CreateTopic(t, env.db, "Python")
	goRoom := testutil.CreateRoom(t, env.db, ann, goTopic, "Gophers", "")
	pyRoom := testutil.CreateRoom(t, env.db, ann, pyTopic, "Snakes", "talk about go routines")
	testutil.CreateMessage(t, env.db, ann, goRoom, "hello gophers")
	testutil.CreateMessage(t, env.db, ann, pyRoom, "hello snakes")

	var all service.HomeView
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/rooms", "", nil, &all))
	assert.Len(t, all.Rooms, 2)
	assert.Equal(t, int64(2), all.RoomCount)
	assert.Equal(t, int64(2), all.TopicCount)
	assert.Len(t, all.Messages, 2)

	var py service.HomeView
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/rooms?q=PYTH", "", nil, &py))
	require.Len(t, py.Rooms, 1)
	assert.Equal(t, pyRoom.ID, py.Rooms[0].ID)
	assert.Equal(t, int64(1), py.RoomCount)
	require.Len(t, py.Messages, 1)
	assert.Equal(t, "hello snakes", py.Messages[0].Body)

	// description matches rooms but the activity feed filters by topic only
	var golang service.HomeView
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/rooms?q=go", "", nil, &golang))
	assert.Len(t, golang.Rooms, 2)
	require.Len(t, golang.Messages, 1)
	assert.Equal(t, "hello gophers", golang.Messages[0].Body)
}

func TestCreateRoom_ThenPostMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	bob := testutil.CreateUser(t, env.db, "bob")
	annToken := env.tokenFor(t, ann)
	bobToken := env.tokenFor(t, bob)

	var form service.RoomFormData
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/rooms/create", annToken, nil, &form))
	assert.Empty(t, form.Topics)

	var room models.Room
	status := env.do(t, http.MethodPost, "/api/rooms", annToken, map[string]any{
		"topic_name":  "Golang",
		"name":        "Gophers",
		"description": "all things go",
	}, &room)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, room.HostID)
	assert.Equal(t, ann.ID, *room.HostID)
	assert.Equal(t, "Golang", room.Topic.Name)

	// same topic name reuses the topic
	var second models.Room
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/rooms", bobToken, map[string]any{
		"topic_name": "Golang",
		"name":       "More Gophers",
	}, &second))
	assert.Equal(t, *room.TopicID, *second.TopicID)

	var bad models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/rooms", annToken, map[string]any{
		"topic_name": "Golang",
		"name":       "   ",
	}, &bad))

	path := "/api/rooms/" + itoa(room.ID)
	var msg models.Message
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path, bobToken, map[string]any{"body": "hi all"}, &msg))
	assert.Equal(t, "hi all", msg.Body)
	require.NotNil(t, msg.User)
	assert.Equal(t, "bob", msg.User.Username)

	// posting twice keeps a single participant row
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, path+"/messages", bobToken, map[string]any{"body": "again"}, nil))
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path+"/messages", bobToken, map[string]any{"body": "  "}, nil))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/rooms/999/messages", bobToken, map[string]any{"body": "x"}, nil))

	var detail service.RoomDetail
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", nil, &detail))
	assert.Len(t, detail.Messages, 2)
	assert.Equal(t, "again", detail.Messages[0].Body)
	require.Len(t, detail.Participants, 1)
	assert.Equal(t, "bob", detail.Participants[0].Username)
}

func TestUpdateRoom_HostOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	bob := testutil.CreateUser(t, env.db, "bob")
	room := testutil.CreateRoom(t, env.db, ann, testutil.CreateTopic(t, env.db, "Go"), "Gophers", "")
	path := "/api/rooms/" + itoa(room.ID)

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path+"/update", env.tokenFor(t, bob), nil, &errBody))
	assert.Equal(t, models.CodeForbidden, errBody.Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPut, path, env.tokenFor(t, bob), map[string]any{
		"topic_name": "Rust", "name": "Hijacked",
	}, nil))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/rooms/999", env.tokenFor(t, ann), map[string]any{
		"topic_name": "Rust", "name": "Nope",
	}, nil))

	var form service.RoomFormData
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path+"/update", env.tokenFor(t, ann), nil, &form))
	assert.Equal(t, "Gophers", form.Room.Name)

	var updated models.Room
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/update", env.tokenFor(t, ann), map[string]any{
		"topic_name":  "Rust",
		"name":        "Crabs",
		"description": "ownership",
	}, &updated))
	assert.Equal(t, "Crabs", updated.Name)
	assert.Equal(t, "Rust", updated.Topic.Name)

	var stored models.Room
	require.NoError(t, env.db.Preload("Topic").First(&stored, room.ID).Error)
	assert.Equal(t, "Crabs", stored.Name)
	assert.Equal(t, "Rust", stored.Topic.Name)
	assert.Equal(t, "ownership", *stored.Description)
}

func TestDeleteRoom_ConfirmFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	bob := testutil.CreateUser(t, env.db, "bob")
	room := testutil.CreateRoom(t, env.db, ann, nil, "Gophers", "")
	testutil.CreateMessage(t, env.db, bob, room, "hi")
	path := "/api/rooms/" + itoa(room.ID)
	annToken := env.tokenFor(t, ann)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, env.tokenFor(t, bob), nil, nil))

	var res service.RoomDeletion
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path+"/delete", annToken, nil, &res))
	assert.Equal(t, models.DeletionConfirming, res.Stage)
	assert.Equal(t, "Gophers", res.Room.Name)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/delete", annToken, map[string]any{"cancel": true}, &res))
	assert.Equal(t, models.DeletionAbandoned, res.Stage)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, "", nil, nil))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, path, annToken, nil, &res))
	assert.Equal(t, models.DeletionConfirmed, res.Stage)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, "", nil, nil))

	var count int64
	require.NoError(t, env.db.Model(&models.Message{}).Where("room_id = ?", room.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteMessage_AuthorOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	bob := testutil.CreateUser(t, env.db, "bob")
	room := testutil.CreateRoom(t, env.db, ann, nil, "Gophers", "")
	msg := testutil.CreateMessage(t, env.db, bob, room, "mine")
	path := "/api/messages/" + itoa(msg.ID)

	// hosting the room does not grant message deletion
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, env.tokenFor(t, ann), nil, nil))

	var res service.MessageDeletion
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path+"/delete", env.tokenFor(t, bob), nil, &res))
	assert.Equal(t, models.DeletionConfirming, res.Stage)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, path+"/delete", env.tokenFor(t, bob), nil, &res))
	assert.Equal(t, models.DeletionConfirmed, res.Stage)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, env.tokenFor(t, bob), nil, nil))
}

func TestTopicsAndActivity(t *testing.T) {
	env := newTestEnv(t, nil)
	ann := testutil.CreateUser(t, env.db, "ann")
	testutil.CreateTopic(t, env.db, "Golang")
	testutil.CreateTopic(t, env.db, "Python")
	room := testutil.CreateRoom(t, env.db, ann, nil, "Gophers", "")
	testutil.CreateMessage(t, env.db, ann, room, "first")

	var topics []models.Topic
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/topics?q=lang", "", nil, &topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "Golang", topics[0].Name)

	var activity []models.Message
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/activity", "", nil, &activity))
	require.Len(t, activity, 1)
	assert.Equal(t, "ann", activity[0].User.Username)
}
