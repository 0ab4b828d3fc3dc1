package repository

import (
	"fmt"
	"testing"
	"time"

	"huddle/internal/domain"
	"huddle/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupChatGroup(t *testing.T, db *gorm.DB) (*models.Group, *models.User) {
	t.Helper()
	groups := testGroupRepo(t, db)
	creator := createTestUser(t, db, "alice")
	g, err := groups.Create("Chatty", "Center City", 40.0, -75.0, "", nil, creator.ID)
	require.NoError(t, err)
	return g, creator
}

func TestAppendRejectsOutsiders(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewMessageRepository(db)
	g, alice := setupChatGroup(t, db)
	stranger := createTestUser(t, db, "mallory")

	_, err := msgs.Append(uuid.NewString(), alice.ID, "hello")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = msgs.Append(g.ID, stranger.ID, "let me in")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = msgs.Append(g.ID, alice.ID, "   ")
	require.ErrorIs(t, err, domain.ErrValidation)

	var n int64
	require.NoError(t, db.Model(&models.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAppendStoresPublicSenderID(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewMessageRepository(db)
	g, alice := setupChatGroup(t, db)

	m, err := msgs.Append(g.ID, alice.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, alice.PublicID, m.UserID)

	rows, next, err := msgs.Page(g.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, next)
	assert.Equal(t, alice.PublicID, rows[0].UserID)
	assert.Equal(t, "alice", rows[0].Nickname)
	assert.Equal(t, "first", rows[0].Content)
}

func TestPageConcatEqualsFullLog(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewMessageRepository(db)
	g, alice := setupChatGroup(t, db)

	const total = 25
	for i := 0; i < total; i++ {
		_, err := msgs.Append(g.ID, alice.ID, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	full, _, err := msgs.Page(g.ID, nil, domain.MaxMessagePageSize)
	require.NoError(t, err)
	require.Len(t, full, total)

	var paged []MessageWithUser
	var cursor *Cursor
	for {
		rows, next, err := msgs.Page(g.ID, cursor, 10)
		require.NoError(t, err)
		paged = append(paged, rows...)
		if next == nil {
			break
		}
		cursor = next
	}

	require.Len(t, paged, total)
	seen := make(map[string]bool, total)
	for i, m := range paged {
		assert.False(t, seen[m.ID], "duplicate message across pages")
		seen[m.ID] = true
		assert.Equal(t, full[i].ID, m.ID)
	}
	// Newest first across page boundaries.
	for i := 1; i < len(paged); i++ {
		prev, cur := paged[i-1], paged[i]
		older := cur.CreatedAt.Before(prev.CreatedAt) ||
			(cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID < prev.ID)
		assert.True(t, older, "page order broken at %d", i)
	}
}

func TestPageStableUnderConcurrentAppends(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewMessageRepository(db)
	g, alice := setupChatGroup(t, db)

	for i := 0; i < 15; i++ {
		_, err := msgs.Append(g.ID, alice.ID, fmt.Sprintf("old-%d", i))
		require.NoError(t, err)
	}

	first, cursor, err := msgs.Page(g.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	require.NotNil(t, cursor)

	// New messages land after the cursor was issued. They must never
	// leak into the continuation.
	time.Sleep(2 * time.Millisecond)
	for i := 0; i < 5; i++ {
		_, err := msgs.Append(g.ID, alice.ID, fmt.Sprintf("new-%d", i))
		require.NoError(t, err)
	}

	rest, _, err := msgs.Page(g.ID, cursor, 10)
	require.NoError(t, err)
	require.Len(t, rest, 5)
	for _, m := range rest {
		assert.Contains(t, m.Content, "old-")
	}
	firstIDs := make(map[string]bool)
	for _, m := range first {
		firstIDs[m.ID] = true
	}
	for _, m := range rest {
		assert.False(t, firstIDs[m.ID], "message repeated across pages")
	}
}

func TestPageMissingGroup(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewMessageRepository(db)
	_, _, err := msgs.Page(uuid.NewString(), nil, 10)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 30, 45, 123456789, time.UTC), ID: uuid.NewString()}
	decoded, err := DecodeCursor(c.Encode())
	require.NoError(t, err)
	assert.True(t, decoded.CreatedAt.Equal(c.CreatedAt))
	assert.Equal(t, c.ID, decoded.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{
		"not base64 !!!",
		"aGVsbG8",          // decodes, but no separator
		"bm90YXRpbWV8aWQ",  // "notatime|id"
		"fGlkLW9ubHk",      // "|id-only" empty timestamp
	} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, domain.ErrValidation, "token %q", token)
	}
}
