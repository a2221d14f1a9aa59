// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"studybud/internal/database"
	"studybud/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns an isolated in-memory SQLite database with the full schema applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open(database.SQLiteDialector(dsn), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewMockDB returns a GORM handle on the postgres dialect backed by sqlmock.
func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Prepare(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateTopic inserts a topic.
func CreateTopic(t *testing.T, db *gorm.DB, name string) *models.Topic {
	t.Helper()
	topic := &models.Topic{Name: name}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

// CreateRoom inserts a room hosted by host under topic; either may be nil.
func CreateRoom(t *testing.T, db *gorm.DB, host *models.User, topic *models.Topic, name, description string) *models.Room {
	t.Helper()
	room := &models.Room{Name: name}
	if host != nil {
		room.HostID = &host.ID
	}
	if topic != nil {
		room.TopicID = &topic.ID
	}
	if description != "" {
		room.Description = &description
	}
	require.NoError(t, db.Create(room).Error)
	return room
}

// CreateMessage inserts a message by author into room.
func CreateMessage(t *testing.T, db *gorm.DB, author *models.User, room *models.Room, body string) *models.Message {
	t.Helper()
	msg := &models.Message{UserID: author.ID, RoomID: room.ID, Body: body}
	require.NoError(t, db.Create(msg).Error)
	return msg
}
