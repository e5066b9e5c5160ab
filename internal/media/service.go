/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package media turns catalog locators into URLs a browser can fetch.
package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/videogallery/internal/catalog"
	"github.com/friendsincode/videogallery/internal/config"
)

// ErrInvalidLocator is returned for locators that cannot name a media object.
var ErrInvalidLocator = errors.New("invalid media locator")

// Storage abstracts where media objects live.
type Storage interface {
	// URL returns a browser-fetchable URL for key.
	URL(ctx context.Context, key string) (string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	CheckAccess(ctx context.Context) error
	Kind() string
}

// Service resolves catalog locators through a Storage backend.
type Service struct {
	storage Storage
	logger  zerolog.Logger
}

// NewService creates a media service using filesystem or S3 storage based on config.
func NewService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	logger = logger.With().Str("component", "media").Logger()

	var storage Storage
	if cfg.S3Bucket != "" {
		s3cfg := S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
			URLExpiry:       cfg.S3URLExpiry,
		}
		if s3cfg.AccessKeyID == "" || s3cfg.SecretAccessKey == "" {
			logger.Warn().Msg("S3 credentials not configured, falling back to the default AWS credential chain")
		}

		s3Storage, err := NewS3Storage(ctx, s3cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize S3 storage: %w", err)
		}
		storage = s3Storage
	} else {
		storage = NewFilesystemStorage(cfg.MediaRoot, logger)
	}

	return NewServiceWithStorage(storage, logger), nil
}

// NewServiceWithStorage wraps an existing backend.
func NewServiceWithStorage(storage Storage, logger zerolog.Logger) *Service {
	return &Service{storage: storage, logger: logger}
}

// Storage returns the configured backend.
func (s *Service) Storage() Storage {
	return s.storage
}

// Resolve maps a locator to a fetchable URL. Absolute http(s) locators pass
// through untouched; anything else is treated as a key in the backend.
func (s *Service) Resolve(ctx context.Context, locator string) (string, error) {
	if isRemote(locator) {
		return locator, nil
	}
	key, err := KeyFor(locator)
	if err != nil {
		return "", err
	}
	url, err := s.storage.URL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", locator, err)
	}
	return url, nil
}

// Missing lists catalog locators the backend does not hold. Remote
// locators are not checked.
func (s *Service) Missing(ctx context.Context, c *catalog.Catalog) ([]string, error) {
	var missing []string
	for _, d := range c.Entries() {
		if isRemote(d.Source) {
			continue
		}
		key, err := KeyFor(d.Source)
		if err != nil {
			missing = append(missing, d.Source)
			continue
		}
		ok, err := s.storage.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", d.Source, err)
		}
		if !ok {
			missing = append(missing, d.Source)
		}
	}
	return missing, nil
}

// CheckStorageAccess verifies that the storage backend is accessible.
func (s *Service) CheckStorageAccess(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.storage.CheckAccess(ctx)
}

// KeyFor normalizes a local locator ("/D1.mov", "clips/a.mp4") into a
// storage key with no leading slash. Keys escaping the root are rejected.
func KeyFor(locator string) (string, error) {
	if strings.TrimSpace(locator) == "" {
		return "", ErrInvalidLocator
	}
	key := strings.TrimPrefix(path.Clean("/"+locator), "/")
	if key == "" || key == "." {
		return "", ErrInvalidLocator
	}
	return key, nil
}

func isRemote(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}
