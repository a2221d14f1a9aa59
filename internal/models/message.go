package models

import "time"

// Message is a post authored by a user inside a room.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
	Room      *Room     `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE" json:"room,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthoredBy reports whether userID wrote the message.
func (m *Message) AuthoredBy(userID uint) bool {
	return m.UserID == userID
}
