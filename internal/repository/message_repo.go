package repository

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository is the append-only per-group message log with
// cursor pagination on the immutable (created_at, id) key.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// MessageWithUser joins the sender's nickname onto a message row.
type MessageWithUser struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Cursor marks the last message a client has seen. Pages compare on
// the ordering key, never on row offsets, so concurrent inserts cannot
// shift already-issued pages.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", domain.ErrValidation)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", domain.ErrValidation)
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: malformed cursor", domain.ErrValidation)
	}
	return Cursor{CreatedAt: ts, ID: parts[1]}, nil
}

// Append stores a message from a group member. The stored user_id is
// the sender's public ID. Membership and group activity timestamps are
// bumped in the same transaction.
func (r *MessageRepository) Append(groupID, userID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content required", domain.ErrValidation)
	}
	var msg *models.Message
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: group", domain.ErrNotFound)
		}
		if err := tx.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: not a member of this group", domain.ErrUnauthorized)
		}
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return translateNotFound(err, "user")
		}
		now := time.Now().UTC()
		msg = &models.Message{
			ID:        uuid.NewString(),
			GroupID:   groupID,
			UserID:    u.PublicID,
			Content:   content,
			CreatedAt: now,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Update("last_active", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("last_active", now).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Page returns up to limit messages newest-first, strictly older than
// the cursor when one is given, plus the cursor for the next page (nil
// when the log is exhausted).
func (r *MessageRepository) Page(groupID string, cursor *Cursor, limit int) ([]MessageWithUser, *Cursor, error) {
	if limit <= 0 {
		limit = domain.DefaultMessagePageSize
	}
	if limit > domain.MaxMessagePageSize {
		limit = domain.MaxMessagePageSize
	}
	var n int64
	if err := r.db.Model(&models.Group{}).Where("id = ?", groupID).Count(&n).Error; err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: group", domain.ErrNotFound)
	}
	q := r.db.Table("messages m").
		Select("m.id, m.group_id, m.user_id, u.nickname, m.content, m.created_at").
		Joins("JOIN users u ON u.public_id = m.user_id").
		Where("m.group_id = ?", groupID)
	if cursor != nil {
		q = q.Where("m.created_at < ? OR (m.created_at = ? AND m.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []MessageWithUser
	if err := q.Order("m.created_at DESC, m.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, nil, err
	}
	var next *Cursor
	if len(rows) == limit {
		last := rows[len(rows)-1]
		next = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return rows, next, nil
}
