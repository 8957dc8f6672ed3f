package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	LogLevel       string
	BackendURL     string
	BackendTimeout time.Duration
	BackendRetries int
	SessionTTL     time.Duration
	// SessionCacheSize bounds the number of live coordinators held in memory.
	SessionCacheSize int
	// SealKey is hex encoded; empty disables sealing of stored sessions.
	SealKey        string
	MaxUploadBytes int64
	Redis          RedisConfig
	Kafka          KafkaConfig
}

// RedisConfig configures the session store. An empty URL selects the
// in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit stream. No brokers means audit events are
// only logged.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable values fall back to defaults and are caught by Validate.
func FromEnv() Server {
	return Server{
		Addr:             getEnv("KYCFLOW_ADDR", ":8080"),
		LogLevel:         getEnv("KYCFLOW_LOG_LEVEL", "info"),
		BackendURL:       getEnv("KYCFLOW_BACKEND_URL", "http://localhost:8000"),
		BackendTimeout:   getDuration("KYCFLOW_BACKEND_TIMEOUT", 15*time.Second),
		BackendRetries:   getInt("KYCFLOW_BACKEND_RETRIES", 2),
		SessionTTL:       getDuration("KYCFLOW_SESSION_TTL", 24*time.Hour),
		SessionCacheSize: getInt("KYCFLOW_SESSION_CACHE_SIZE", 10000),
		SealKey:          os.Getenv("KYCFLOW_SEAL_KEY"),
		MaxUploadBytes:   int64(getInt("KYCFLOW_MAX_UPLOAD_BYTES", 5<<20)),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "kycflow.audit"),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (s Server) Validate() error {
	var errs []error
	if u, err := url.Parse(s.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("KYCFLOW_BACKEND_URL %q is not an absolute URL", s.BackendURL))
	}
	if s.BackendTimeout <= 0 {
		errs = append(errs, errors.New("KYCFLOW_BACKEND_TIMEOUT must be positive"))
	}
	if s.BackendRetries < 0 {
		errs = append(errs, errors.New("KYCFLOW_BACKEND_RETRIES must not be negative"))
	}
	if s.SessionTTL <= 0 {
		errs = append(errs, errors.New("KYCFLOW_SESSION_TTL must be positive"))
	}
	if s.SessionCacheSize <= 0 {
		errs = append(errs, errors.New("KYCFLOW_SESSION_CACHE_SIZE must be positive"))
	}
	if s.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("KYCFLOW_MAX_UPLOAD_BYTES must be positive"))
	}
	if s.SealKey != "" {
		if key, err := hex.DecodeString(s.SealKey); err != nil || len(key) != 32 {
			errs = append(errs, errors.New("KYCFLOW_SEAL_KEY must be 32 hex-encoded bytes"))
		}
	}
	if len(s.Kafka.Brokers) > 0 && s.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// SealKeyBytes decodes SealKey. Call Validate first.
func (s Server) SealKeyBytes() []byte {
	key, _ := hex.DecodeString(s.SealKey)
	return key
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return -1
	}
	return d
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
