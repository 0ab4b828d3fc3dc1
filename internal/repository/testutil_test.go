package repository

import (
	"testing"
	"time"

	"huddle/internal/database"
	"huddle/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection gets its own in-memory database; pin the
	// pool to one so all goroutines see the same schema and data.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	id := uuid.NewString()
	u := &models.User{
		ID:        id,
		PublicID:  "pub-" + id[:8],
		Nickname:  nickname,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func testGroupRepo(t *testing.T, db *gorm.DB) *GroupRepository {
	t.Helper()
	return NewGroupRepository(db, zap.NewNop())
}
