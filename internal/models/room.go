package models

import (
	"fmt"
	"time"
)

// Topic is a free-text category label shared across rooms.
type Topic struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:200;uniqueIndex;not null" json:"name"`
}

// Room is a chat room hosted by a user and tagged with a topic.
type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HostID       *uint     `gorm:"index" json:"host_id"`
	Host         *User     `gorm:"foreignKey:HostID;constraint:OnDelete:SET NULL" json:"host,omitempty"`
	TopicID      *uint     `gorm:"index" json:"topic_id"`
	Topic        *Topic    `gorm:"foreignKey:TopicID;constraint:OnDelete:SET NULL" json:"topic,omitempty"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	Participants []User    `gorm:"many2many:room_participants" json:"participants,omitempty"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// HostedBy reports whether userID is the room's host.
func (r *Room) HostedBy(userID uint) bool {
	return r.HostID != nil && *r.HostID == userID
}

// RoomParticipant is the join row linking a user to a room they take part in.
type RoomParticipant struct {
	RoomID   uint      `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName pins the join table name shared with Room.Participants.
func (RoomParticipant) TableName() string {
	return "room_participants"
}

// DefaultOrder is the ordering applied to rooms and messages: most recently
// updated first, ties broken by most recently created.
func DefaultOrder(table string) string {
	if table == "" {
		return "updated_at DESC, created_at DESC"
	}
	return fmt.Sprintf("%s.updated_at DESC, %s.created_at DESC", table, table)
}
