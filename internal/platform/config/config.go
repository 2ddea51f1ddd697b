package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration. Built once in main from the
// environment so the rest of the code never touches os.Getenv.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
	Sumsub   Sumsub
	TruID    TruID
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Postgres holds the status store connection settings.
type Postgres struct {
	DSN string
}

// RedisConfig holds the provider snapshot cache connection settings.
// An empty URL disables the cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds audit publishing settings. Empty brokers disable audit publishing.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Sumsub holds verification provider credentials. Credentials are validated
// per call by the signer, not at startup, since they may be injected late.
type Sumsub struct {
	BaseURL       string
	AppToken      string
	SecretKey     string
	WebhookSecret string
	LevelName     string
	CallTimeout   time.Duration
}

// TruID holds open-banking provider settings.
type TruID struct {
	BaseURL     string
	ClientID    string
	ClientKey   string
	CallTimeout time.Duration
}

// Auth configures bearer-token validation on UI-facing routes.
type Auth struct {
	JWTSigningKey string
}

// SnapshotCacheTTL bounds how long a provider review snapshot may be served
// from cache before the provider is asked again.
var SnapshotCacheTTL = 30 * time.Second

// FromEnv builds the full config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("VERIGATE_ADDR", ":8080"),
			ReadTimeout:     getDuration("VERIGATE_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("VERIGATE_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("VERIGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "verigate.audit"),
		},
		Sumsub: Sumsub{
			BaseURL:       getEnv("SUMSUB_BASE_URL", "https://api.sumsub.com"),
			AppToken:      os.Getenv("SUMSUB_APP_TOKEN"),
			SecretKey:     os.Getenv("SUMSUB_SECRET_KEY"),
			WebhookSecret: os.Getenv("SUMSUB_WEBHOOK_SECRET"),
			LevelName:     getEnv("SUMSUB_LEVEL_NAME", "basic-kyc-level"),
			CallTimeout:   getDuration("SUMSUB_CALL_TIMEOUT", 15*time.Second),
		},
		TruID: TruID{
			BaseURL:     getEnv("TRUID_BASE_URL", "https://api.truid.co.za"),
			ClientID:    os.Getenv("TRUID_CLIENT_ID"),
			ClientKey:   os.Getenv("TRUID_CLIENT_KEY"),
			CallTimeout: getDuration("TRUID_CALL_TIMEOUT", 15*time.Second),
		},
		Auth: Auth{
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
