/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version holds build information.
package version

// Version is the current version of the gallery.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/videogallery/internal/version.Version=X.Y.Z
var Version = "0.3.0"

// Commit is the source revision, set at build time like Version.
var Commit = "unknown"

// String returns the version with its commit.
func String() string {
	return Version + " (" + Commit + ")"
}
