package models

import "time"

// User account. ID is the login identity and never leaves the server;
// PublicID is what other members see (message authorship, member lists).
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"-"`
	PublicID     string    `gorm:"uniqueIndex;size:64;not null" json:"public_id"`
	Nickname     string    `gorm:"size:64;not null;index" json:"nickname"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	RecoveryCode *string   `gorm:"size:64" json:"-"`
	IsTemporary  bool      `gorm:"not null;default:false" json:"is_temporary"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
