// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave normalizes the username and email before they reach storage.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Username = NormalizeUsername(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// NormalizeUsername returns the canonical (trimmed, lower-case) form of a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
