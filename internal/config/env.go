package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lock TTL bounds. The floor keeps a misconfigured TTL from making
// holds useless.
const (
	DefaultLockTTL = 120 * time.Second
	MinLockTTL     = 30 * time.Second
)

type Env struct {
	AppAddr    string
	GinMode    string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string
	JWTSecret  string
	StorageDir string
	PublicURL  string
	LockTTL    time.Duration
}

// LoadEnv reads configuration from the environment, loading a local
// .env file first when present.
func LoadEnv() Env {
	_ = godotenv.Load()

	env := Env{
		AppAddr:    getenv("APP_ADDR", ":8080"),
		GinMode:    strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBUser:     getenv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:     getenv("DB_NAME", "busticket"),
		JWTSecret:  getenv("JWT_SECRET", "super-secret-key-change-me"),
		StorageDir: getenv("STORAGE_DIR", "storage/public"),
		PublicURL:  getenv("PUBLIC_URL", "http://localhost:8080/storage"),
		LockTTL:    lockTTL(),
	}
	return env
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func lockTTL() time.Duration {
	raw := strings.TrimSpace(os.Getenv("BOOKING_LOCK_TTL"))
	if raw == "" {
		return DefaultLockTTL
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return DefaultLockTTL
	}
	ttl := time.Duration(secs) * time.Second
	if ttl < MinLockTTL {
		return MinLockTTL
	}
	return ttl
}
