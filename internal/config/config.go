/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseBackend selects the gorm dialector used for the db catalog source.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// CatalogSource selects where the media catalog is read from at startup.
type CatalogSource string

const (
	CatalogBuiltin CatalogSource = "builtin"
	CatalogFile    CatalogSource = "file"
	CatalogDB      CatalogSource = "db"
)

// EventBusBackend selects how gallery events leave the process.
type EventBusBackend string

const (
	EventBusMemory EventBusBackend = "memory"
	EventBusRedis  EventBusBackend = "redis"
	EventBusNATS   EventBusBackend = "nats"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	CatalogSource CatalogSource
	CatalogFile   string
	DBBackend     DatabaseBackend
	DBDSN         string

	MediaRoot string

	// S3 object storage for media locators
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Garage, etc.)
	S3UsePathStyle    bool
	S3URLExpiry       time.Duration

	// Event fan-out
	EventBus      EventBusBackend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
	InstanceID    string

	// Sessions
	MaxSessions         int
	ThumbnailStallAfter time.Duration // 0 disables stall reporting

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"GALLERY_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"GALLERY_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"GALLERY_HTTP_PORT", "PORT"}, 8080),

		CatalogSource: CatalogSource(getEnvAny([]string{"GALLERY_CATALOG_SOURCE"}, string(CatalogBuiltin))),
		CatalogFile:   getEnvAny([]string{"GALLERY_CATALOG_FILE"}, ""),
		DBBackend:     DatabaseBackend(getEnvAny([]string{"GALLERY_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:         getEnvAny([]string{"GALLERY_DB_DSN"}, ""),

		MediaRoot: getEnvAny([]string{"GALLERY_MEDIA_ROOT"}, "./public"),

		S3AccessKeyID:     getEnvAny([]string{"GALLERY_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"GALLERY_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"GALLERY_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"GALLERY_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"GALLERY_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"GALLERY_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),
		S3URLExpiry:       getEnvDurationAny([]string{"GALLERY_S3_URL_EXPIRY"}, time.Hour),

		EventBus:      EventBusBackend(getEnvAny([]string{"GALLERY_EVENTBUS"}, string(EventBusMemory))),
		RedisAddr:     getEnvAny([]string{"GALLERY_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"GALLERY_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"GALLERY_REDIS_DB"}, 0),
		NATSURL:       getEnvAny([]string{"GALLERY_NATS_URL", "NATS_URL"}, "nats://localhost:4222"),
		InstanceID:    getEnvAny([]string{"GALLERY_INSTANCE_ID"}, ""),

		MaxSessions:         getEnvIntAny([]string{"GALLERY_MAX_SESSIONS"}, 1000),
		ThumbnailStallAfter: getEnvDurationAny([]string{"GALLERY_THUMBNAIL_STALL_AFTER"}, 0),

		TracingEnabled:    getEnvBoolAny([]string{"GALLERY_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"GALLERY_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"GALLERY_TRACING_SAMPLE_RATE"}, 1.0),
	}

	switch cfg.CatalogSource {
	case CatalogBuiltin:
	case CatalogFile:
		if cfg.CatalogFile == "" {
			return nil, fmt.Errorf("GALLERY_CATALOG_FILE must be provided when GALLERY_CATALOG_SOURCE=file")
		}
	case CatalogDB:
		if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
			return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
		}
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("GALLERY_DB_DSN must be provided when GALLERY_CATALOG_SOURCE=db")
		}
	default:
		return nil, fmt.Errorf("unsupported catalog source %q", cfg.CatalogSource)
	}

	if cfg.EventBus != EventBusMemory && cfg.EventBus != EventBusRedis && cfg.EventBus != EventBusNATS {
		return nil, fmt.Errorf("unsupported event bus backend %q", cfg.EventBus)
	}

	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("GALLERY_MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}

	if cfg.ThumbnailStallAfter < 0 {
		return nil, fmt.Errorf("GALLERY_THUMBNAIL_STALL_AFTER must not be negative")
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvDurationAny accepts Go duration strings ("30s") or plain seconds ("30").
func getEnvDurationAny(keys []string, def time.Duration) time.Duration {
	for _, k := range keys {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}
