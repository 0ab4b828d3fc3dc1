package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"huddle/config"
	"huddle/internal/database"
	"huddle/internal/models"
	"huddle/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"resp_data"`
}

func httpTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret:     "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessExpiry:     time.Hour,
			RefreshExpiry:    24 * time.Hour,
			TempAccessExpiry: 10 * time.Minute,
			Issuer:           "huddle-test",
		},
		Search:    config.SearchConfig{MaxRadiusMeters: 5000, NearbyLimit: 50},
		RateLimit: config.RateLimitConfig{Requests: 1000, Window: time.Minute},
	}
}

func setupRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))
	return router.Setup(cfg, db, zap.NewNop()), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func registerUser(t *testing.T, r *gin.Engine, nickname string) (token, publicID string) {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"nickname": nickname,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var data struct {
		User struct {
			PublicID string `json:"public_id"`
		} `json:"user"`
		Tokens struct {
			Access string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Tokens.Access, data.User.PublicID
}

func TestRegisterLoginMe(t *testing.T) {
	r, _ := setupRouter(t, httpTestConfig())

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"nickname": "alice", "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, env.Code)
	var reg struct {
		User struct {
			PublicID string `json:"public_id"`
		} `json:"user"`
		RecoveryCode string `json:"recovery_code"`
		Tokens       struct {
			Access  string `json:"access_token"`
			Refresh string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	assert.NotEmpty(t, reg.RecoveryCode)
	assert.NotEmpty(t, reg.Tokens.Refresh)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"nickname": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/me", reg.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		User struct {
			PublicID string `json:"public_id"`
			Nickname string `json:"nickname"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, reg.User.PublicID, me.User.PublicID)
	assert.Equal(t, "alice", me.User.Nickname)

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/users/refresh", "", gin.H{
		"refresh_token": reg.Tokens.Refresh,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupRouter(t, httpTestConfig())

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1002, env.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1002, env.Code)
}

func TestGroupLifecycleHTTP(t *testing.T) {
	r, _ := setupRouter(t, httpTestConfig())
	aliceTok, alicePub := registerUser(t, r, "alice")
	bobTok, _ := registerUser(t, r, "bob")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/groups", aliceTok, gin.H{
		"name":          "Corner Cafe",
		"location_name": "Philadelphia",
		"latitude":      40.0,
		"longitude":     -75.0,
		"password":      "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var created struct {
		Group models.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	groupID := created.Group.ID
	assert.EqualValues(t, 1, created.Group.MemberCount)

	// Wrong password is rejected; right one admits bob.
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/join", bobTok, gin.H{"password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1002, env.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/join", bobTok, gin.H{"password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/join", bobTok, gin.H{"password": "secret"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1004, env.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/groups/"+groupID, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched struct {
		Group models.Group `json:"group"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.EqualValues(t, 2, fetched.Group.MemberCount)

	// Messages: member posts, pages come back newest first.
	for i := 0; i < 3; i++ {
		w, _ = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/messages", aliceTok,
			gin.H{"content": fmt.Sprintf("hello %d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/groups/"+groupID+"/messages", bobTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Messages []struct {
			UserID  string `json:"user_id"`
			Content string `json:"content"`
		} `json:"messages"`
		NextCursor *string `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Messages, 3)
	assert.Equal(t, "hello 2", page.Messages[0].Content)
	assert.Equal(t, alicePub, page.Messages[0].UserID)
	assert.Nil(t, page.NextCursor)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/leave", bobTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/groups/"+groupID+"/messages", bobTok, gin.H{"content": "still here?"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1002, env.Code)
}

func TestCreateGroupBadLatitude(t *testing.T) {
	r, db := setupRouter(t, httpTestConfig())
	tok, _ := registerUser(t, r, "alice")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/groups", tok, gin.H{
		"name":          "Nowhere",
		"location_name": "Offworld",
		"latitude":      95.0,
		"longitude":     -75.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1001, env.Code)

	var n int64
	require.NoError(t, db.Model(&models.Group{}).Count(&n).Error)
	assert.Zero(t, n, "rejected group must not persist")
}

func TestNearbyHTTP(t *testing.T) {
	r, _ := setupRouter(t, httpTestConfig())
	aliceTok, _ := registerUser(t, r, "alice")
	bobTok, bobPub := registerUser(t, r, "bob")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/groups", aliceTok, gin.H{
		"name":          "Corner Cafe",
		"location_name": "Philadelphia",
		"latitude":      40.0,
		"longitude":     -75.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = doJSON(t, r, http.MethodPut, "/api/v1/users/me/location", bobTok, gin.H{
		"latitude": 40.001, "longitude": -75.001,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/groups/nearby?lat=40.001&lng=-75.001&radius=1000", bobTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var near struct {
		Groups []struct {
			Group          models.Group `json:"group"`
			DistanceMeters float64      `json:"distance_meters"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &near))
	require.Len(t, near.Groups, 1)
	assert.Equal(t, "Corner Cafe", near.Groups[0].Group.Name)
	assert.InDelta(t, 140, near.Groups[0].DistanceMeters, 20)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/groups/nearby?lat=40.001&lng=-75.001&radius=50", bobTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	near.Groups = nil
	require.NoError(t, json.Unmarshal(env.Data, &near))
	assert.Empty(t, near.Groups)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/nearby?lat=40.0&lng=-75.0&radius=1000", aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []struct {
			PublicID string `json:"public_id"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, bobPub, users.Users[0].PublicID)

	_, env = doJSON(t, r, http.MethodGet, "/api/v1/groups/nearby?lat=200&lng=-75&radius=1000", bobTok, nil)
	assert.Equal(t, 1001, env.Code)
}

func TestRateLimitHTTP(t *testing.T) {
	cfg := httpTestConfig()
	cfg.RateLimit = config.RateLimitConfig{Requests: 3, Window: time.Minute}
	r, _ := setupRouter(t, cfg)

	var last *httptest.ResponseRecorder
	var env envelope
	for i := 0; i < 4; i++ {
		last, env = doJSON(t, r, http.MethodPost, "/api/v1/users/temporary", "", gin.H{
			"nickname": fmt.Sprintf("temp-%d", i),
		})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, 1005, env.Code)
}
