package models

import "time"

// Message is append-only. UserID stores the sender's public ID, never
// the login ID. Ordering key is (created_at, id) so pagination cursors
// survive concurrent inserts.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	GroupID   string    `gorm:"size:36;not null;index:idx_messages_group_created" json:"group_id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_group_created" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
