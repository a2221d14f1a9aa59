package database

import "studybud/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Topic{},
		&models.Room{},
		&models.Message{},
		&models.RoomParticipant{},
	}
}
