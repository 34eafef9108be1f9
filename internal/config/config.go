package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Remote    RemoteConfig
	Outbox    OutboxConfig
	Session   SessionConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type WebSocketConfig struct {
	Enabled           bool
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int64
	WriteWait         time.Duration
	PongWait          time.Duration
	PingPeriod        time.Duration
	MaxConnPerArticle int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
}

// RemoteConfig is used by devices talking to the highlight service.
type RemoteConfig struct {
	BaseURL      string
	DeviceID     string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

type OutboxConfig struct {
	Backend      string
	RedisURL     string
	KeyPrefix    string
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

type SessionConfig struct {
	RemovalPolicy string
}

func Load() (*Config, error) {
	godotenv.Load()

	pongWait, err := getEnvAsDuration("WS_PONG_WAIT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	remoteRetryMin, err := getEnvAsDuration("REMOTE_RETRY_WAIT_MIN", time.Second)
	if err != nil {
		return nil, err
	}
	remoteRetryMax, err := getEnvAsDuration("REMOTE_RETRY_WAIT_MAX", 30*time.Second)
	if err != nil {
		return nil, err
	}
	remoteTimeout, err := getEnvAsDuration("REMOTE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	outboxRetryMin, err := getEnvAsDuration("OUTBOX_RETRY_WAIT_MIN", time.Second)
	if err != nil {
		return nil, err
	}
	outboxRetryMax, err := getEnvAsDuration("OUTBOX_RETRY_WAIT_MAX", time.Minute)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnv("OUTBOX_BACKEND", "memory"))
	if backend != "memory" && backend != "redis" {
		return nil, fmt.Errorf("invalid OUTBOX_BACKEND %q: want memory or redis", backend)
	}

	policy := strings.ToLower(getEnv("SESSION_REMOVAL_POLICY", "confirm"))
	if policy != "confirm" && policy != "immediate" {
		return nil, fmt.Errorf("invalid SESSION_REMOVAL_POLICY %q: want confirm or immediate", policy)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5984"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "highlights"),
		},
		WebSocket: WebSocketConfig{
			Enabled:           getEnvAsBool("WS_ENABLED", true),
			ReadBufferSize:    getEnvAsInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize:   getEnvAsInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:    int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 1048576)),
			WriteWait:         10 * time.Second,
			PongWait:          pongWait,
			PingPeriod:        pongWait * 9 / 10,
			MaxConnPerArticle: getEnvAsInt("WS_MAX_CONN_PER_ARTICLE", 20),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,X-Device-ID"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Remote: RemoteConfig{
			BaseURL:      getEnv("REMOTE_BASE_URL", "http://localhost:8080"),
			DeviceID:     getEnv("DEVICE_ID", ""),
			RetryMax:     getEnvAsInt("REMOTE_RETRY_MAX", 3),
			RetryWaitMin: remoteRetryMin,
			RetryWaitMax: remoteRetryMax,
			Timeout:      remoteTimeout,
		},
		Outbox: OutboxConfig{
			Backend:      backend,
			RedisURL:     getEnv("OUTBOX_REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix:    getEnv("OUTBOX_KEY_PREFIX", "highlight-sync:outbox:"),
			RetryWaitMin: outboxRetryMin,
			RetryWaitMax: outboxRetryMax,
		},
		Session: SessionConfig{
			RemovalPolicy: policy,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}
