package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Search    SearchConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	// Temporary accounts get a shorter access token lifetime.
	TempAccessExpiry time.Duration
	Issuer           string
}

type SearchConfig struct {
	// MaxRadiusMeters bounds every proximity query; larger requested
	// radii are clamped to this.
	MaxRadiusMeters float64
	NearbyLimit     int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envStr("SERVER_PORT", "3000"),
			Env:          envStr("ENV", "development"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             envStr("DATABASE_DSN", "huddle:huddle@tcp(localhost:3306)/huddle?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:     envStr("JWT_SECRET", "change-me-in-production"),
			RefreshSecret:    envStr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:     envDuration("JWT_EXPIRATION", 24*time.Hour),
			RefreshExpiry:    envDuration("JWT_REFRESH_EXPIRATION", 168*time.Hour),
			TempAccessExpiry: envDuration("TEMP_TOKEN_EXPIRATION", time.Hour),
			Issuer:           envStr("JWT_ISSUER", "huddle"),
		},
		Search: SearchConfig{
			MaxRadiusMeters: envFloat("MAX_SEARCH_RADIUS", 5000),
			NearbyLimit:     envInt("NEARBY_LIMIT", 50),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 100),
			Window:   envDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
