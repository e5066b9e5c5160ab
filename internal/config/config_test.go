package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CatalogSource != CatalogBuiltin {
		t.Fatalf("catalog source = %q, want builtin", cfg.CatalogSource)
	}
	if cfg.EventBus != EventBusMemory {
		t.Fatalf("event bus = %q, want memory", cfg.EventBus)
	}
	if cfg.ThumbnailStallAfter != 0 {
		t.Fatalf("stall reporting should be disabled by default, got %v", cfg.ThumbnailStallAfter)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("GALLERY_CATALOG_SOURCE", "db")
	t.Setenv("GALLERY_DB_BACKEND", "postgres")
	t.Setenv("GALLERY_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("GALLERY_EVENTBUS", "nats")
	t.Setenv("GALLERY_THUMBNAIL_STALL_AFTER", "45s")
	t.Setenv("GALLERY_S3_URL_EXPIRY", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Fatalf("db backend = %q", cfg.DBBackend)
	}
	if cfg.ThumbnailStallAfter != 45*time.Second {
		t.Fatalf("stall after = %v, want 45s", cfg.ThumbnailStallAfter)
	}
	if cfg.S3URLExpiry != 10*time.Minute {
		t.Fatalf("url expiry = %v, want 10m", cfg.S3URLExpiry)
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"file source without file", map[string]string{"GALLERY_CATALOG_SOURCE": "file"}},
		{"db source without dsn", map[string]string{"GALLERY_CATALOG_SOURCE": "db"}},
		{"unknown db backend", map[string]string{"GALLERY_CATALOG_SOURCE": "db", "GALLERY_DB_DSN": "x", "GALLERY_DB_BACKEND": "oracle"}},
		{"unknown catalog source", map[string]string{"GALLERY_CATALOG_SOURCE": "ftp"}},
		{"unknown event bus", map[string]string{"GALLERY_EVENTBUS": "kafka"}},
		{"zero sessions", map[string]string{"GALLERY_MAX_SESSIONS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
