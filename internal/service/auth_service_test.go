package service

import (
	"testing"
	"time"

	"huddle/config"
	"huddle/internal/auth"
	"huddle/internal/database"
	"huddle/internal/domain"
	"huddle/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:     "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessExpiry:     time.Hour,
			RefreshExpiry:    24 * time.Hour,
			TempAccessExpiry: 10 * time.Minute,
			Issuer:           "huddle-test",
		},
	}
}

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return NewAuthService(testConfig(), repository.NewUserRepository(db))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testAuthService(t)

	u, recovery, pair, err := svc.Register("alice", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, u.PublicID)
	assert.NotEqual(t, u.ID, u.PublicID)
	assert.NotEmpty(t, recovery)
	assert.False(t, u.IsTemporary)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	claims, err := auth.ParseAccessToken(&testConfig().JWT, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Nickname)

	// Same nickname again is a conflict.
	_, _, _, err = svc.Register("alice", "another6")
	require.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = svc.Login("alice", "wrong-pass")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	logged, pair2, err := svc.Login("alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, pair2.Refresh)
}

func TestRegisterValidation(t *testing.T) {
	svc := testAuthService(t)
	_, _, _, err := svc.Register("", "hunter22")
	require.ErrorIs(t, err, domain.ErrValidation)
	_, _, _, err = svc.Register("bob", "short")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestTemporaryAccount(t *testing.T) {
	svc := testAuthService(t)
	u, pair, err := svc.CreateTemporary("drifter")
	require.NoError(t, err)
	assert.True(t, u.IsTemporary)
	assert.Nil(t, u.PasswordHash)
	assert.NotEmpty(t, pair.Access)
	assert.Empty(t, pair.Refresh, "temporary accounts get no refresh token")

	err = svc.ChangePassword(u.ID, "", "whatever6")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefresh(t *testing.T) {
	svc := testAuthService(t)
	u, _, pair, err := svc.Register("carol", "hunter22")
	require.NoError(t, err)

	next, err := svc.Refresh(pair.Refresh)
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(&testConfig().JWT, next.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = svc.Refresh("garbage.token.here")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Refresh(pair.Access)
	require.ErrorIs(t, err, domain.ErrUnauthorized, "access token must not work as refresh")
}

func TestChangePassword(t *testing.T) {
	svc := testAuthService(t)
	u, _, _, err := svc.Register("dave", "original6")
	require.NoError(t, err)

	err = svc.ChangePassword(u.ID, "wrong", "updated6")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NoError(t, svc.ChangePassword(u.ID, "original6", "updated6"))

	_, _, err = svc.Login("dave", "original6")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, _, err = svc.Login("dave", "updated6")
	require.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	svc := testAuthService(t)
	_, recovery, _, err := svc.Register("erin", "original6")
	require.NoError(t, err)

	err = svc.ResetPassword("erin", "bogus-code", "updated6")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NoError(t, svc.ResetPassword("erin", recovery, "updated6"))

	_, _, err = svc.Login("erin", "updated6")
	require.NoError(t, err)
}
