package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // empty allows every origin

	LogLevel  string
	LogFormat string // "json" or "pretty"

	// Storage
	StorageDriver string // "sqlite" or "redis"
	SQLitePath    string
	RedisURL      string
	RedisPrefix   string

	// AI bootstrap, used only while no config is stored
	AIProvider string
	AIAPIKey   string
	AIBaseURL  string
	AIModel    string
	AITimeout  time.Duration
	AIWorkers  int

	QuizTick time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: mustGetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:  splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("LOG_FORMAT", "json"),
		StorageDriver:   strings.ToLower(getenvDefault("STORAGE_DRIVER", "sqlite")),
		SQLitePath:      getenvDefault("SQLITE_PATH", "examai.db"),
		RedisURL:        getenvDefault("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:     getenvDefault("REDIS_PREFIX", "examai:"),
		AIProvider:      strings.ToLower(os.Getenv("AI_PROVIDER")),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIBaseURL:       os.Getenv("AI_BASE_URL"),
		AIModel:         os.Getenv("AI_MODEL"),
		AITimeout:       getDuration("AI_TIMEOUT", 120*time.Second),
		AIWorkers:       getInt("AI_WORKERS", 3),
		QuizTick:        getDuration("QUIZ_TICK", time.Second),
	}
}

// mustGetDuration exits on a malformed value; unset uses fallback.
func mustGetDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getDuration(k string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(k string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
