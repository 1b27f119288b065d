// Package config builds the process configuration from the environment.
// The result is a plain value handed to constructors; nothing here is global.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "gatepass/pkg/platform/strings"
)

// Config groups every sub-configuration the server wires.
type Config struct {
	Server        Server
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	LLM           LLMConfig
	Auth          AuthConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
	LogFormat     string
	LogLevel      string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PostgresConfig configures the relational store. An empty DSN selects the
// in-memory stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the pub/sub notification sink.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the streamed notification sink.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	Partitions int32
}

// LLMConfig configures the OpenAI-compatible endpoint used by the command
// resolver.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float32
	MaxTokens      int
	MaxReplyTokens int
	Timeout        time.Duration
}

// AuthConfig configures bearer token validation.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// SinkKind selects where notifications go.
type SinkKind string

const (
	SinkLog   SinkKind = "log"
	SinkRedis SinkKind = "redis"
	SinkKafka SinkKind = "kafka"
)

// NotificationsConfig configures the async dispatcher in front of the sink.
type NotificationsConfig struct {
	Sink      SinkKind
	QueueSize int
	Workers   int
}

// RateLimitConfig bounds chat messages per caller within a sliding window.
type RateLimitConfig struct {
	ChatLimit  int
	ChatWindow time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:            envString("GATEPASS_ADDR", ":8080"),
			ShutdownTimeout: envDuration("GATEPASS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			Topic:      envString("KAFKA_NOTIFICATIONS_TOPIC", "gatepass.notifications"),
			Partitions: int32(envInt("KAFKA_NOTIFICATIONS_PARTITIONS", 3)),
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("LLM_API_KEY"),
			BaseURL:        envString("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:          envString("LLM_MODEL", "llama-3.1-8b-instant"),
			Temperature:    envFloat32("LLM_TEMPERATURE", 0.7),
			MaxTokens:      envInt("LLM_MAX_TOKENS", 1024),
			MaxReplyTokens: envInt("LLM_MAX_REPLY_TOKENS", 512),
			Timeout:        envDuration("LLM_TIMEOUT", 20*time.Second),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        os.Getenv("JWT_ISSUER"),
			Audience:      os.Getenv("JWT_AUDIENCE"),
		},
		Notifications: NotificationsConfig{
			Sink:      SinkKind(envString("NOTIFY_SINK", "")),
			QueueSize: envInt("NOTIFY_QUEUE_SIZE", 256),
			Workers:   envInt("NOTIFY_WORKERS", 2),
		},
		RateLimit: RateLimitConfig{
			ChatLimit:  envInt("CHAT_RATE_LIMIT", 20),
			ChatWindow: envDuration("CHAT_RATE_WINDOW", time.Minute),
		},
		LogFormat: envString("LOG_FORMAT", "json"),
		LogLevel:  envString("LOG_LEVEL", "info"),
	}
	cfg.Notifications.Sink = cfg.resolveSink()
	return cfg
}

// resolveSink falls back to the log sink when the requested backend has no
// connection settings. With no explicit choice, Kafka wins over Redis.
func (c Config) resolveSink() SinkKind {
	switch c.Notifications.Sink {
	case SinkRedis:
		if c.Redis.URL != "" {
			return SinkRedis
		}
	case SinkKafka:
		if len(c.Kafka.Brokers) > 0 {
			return SinkKafka
		}
	case SinkLog:
		return SinkLog
	case "":
		if len(c.Kafka.Brokers) > 0 {
			return SinkKafka
		}
		if c.Redis.URL != "" {
			return SinkRedis
		}
	}
	return SinkLog
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envFloat32(key string, fallback float32) float32 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 32); err == nil && v >= 0 {
		return float32(v)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envList(key string) []string {
	return platformstrings.SplitList(os.Getenv(key), ",")
}
