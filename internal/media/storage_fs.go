/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// MediaPathPrefix is where the HTTP server exposes the filesystem root.
const MediaPathPrefix = "/media/"

// FilesystemStorage serves media from a local directory.
type FilesystemStorage struct {
	rootDir string
	logger  zerolog.Logger
}

// NewFilesystemStorage creates a filesystem-based storage backend.
func NewFilesystemStorage(rootDir string, logger zerolog.Logger) *FilesystemStorage {
	return &FilesystemStorage{
		rootDir: rootDir,
		logger:  logger,
	}
}

// Root returns the media directory.
func (fs *FilesystemStorage) Root() string {
	return fs.rootDir
}

// URL returns the server-relative path for key under MediaPathPrefix.
func (fs *FilesystemStorage) URL(_ context.Context, key string) (string, error) {
	return MediaPathPrefix + (&url.URL{Path: key}).EscapedPath(), nil
}

// Exists reports whether key is a regular file under the root.
func (fs *FilesystemStorage) Exists(_ context.Context, key string) (bool, error) {
	info, err := os.Stat(filepath.Join(fs.rootDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat media: %w", err)
	}
	return !info.IsDir(), nil
}

// CheckAccess verifies the storage directory exists and is accessible.
func (fs *FilesystemStorage) CheckAccess(_ context.Context) error {
	info, err := os.Stat(fs.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("media root directory does not exist: %s", fs.rootDir)
		}
		return fmt.Errorf("cannot access media root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root is not a directory: %s", fs.rootDir)
	}
	return nil
}

// Kind names the backend.
func (fs *FilesystemStorage) Kind() string { return "filesystem" }
