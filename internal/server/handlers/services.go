// Defines shared service dependencies for handlers.

// Package handlers implements the HTTP handlers of the API.
package handlers

import (
	"context"

	"github.com/r-Iyer/MapMyMemories/internal/storage/git"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
	"github.com/r-Iyer/MapMyMemories/internal/uploader"
)

// Historian exposes the change history of paths in the local data directory.
// Implemented by *git.Repo.
type Historian interface {
	History(ctx context.Context, path string, n int) ([]*git.Commit, error)
}

// Services holds all service dependencies for handlers.
type Services struct {
	Uploader *uploader.Service
	Local    *local.Store
	History  Historian // may be nil when the audit trail is disabled
}

// Config holds configuration values needed by handlers.
type Config struct {
	Version string
}
