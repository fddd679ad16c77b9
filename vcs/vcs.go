package vcs

import (
	"context"

	"github.com/rs/zerolog"
)

// Commit identifies one historical tree state of a snapshot repository.
type Commit struct {
	ID      string // abbreviated identifier
	Subject string
	Age     string // relative age, e.g. "3 days ago"
}

func (c Commit) MarshalZerologObject(e *zerolog.Event) {
	e.Str("id", c.ID)
	e.Str("subject", c.Subject)
	e.Str("age", c.Age)
}

// Backend is the narrow interface over the version-control tool the snapshot
// engine consumes. Keep it to what the engine actually needs so tests can
// substitute an in-memory implementation.
type Backend interface {
	// Init creates a repository at path with the given default branch.
	Init(ctx context.Context, path, branch string) error
	// IsRepository reports whether path is a structurally valid repository.
	IsRepository(ctx context.Context, path string) bool
	// SetConfig sets one repository configuration key.
	SetConfig(ctx context.Context, path, key, value string) error
	// SetExcludes installs the repository-local ignore patterns. Excluded
	// files are invisible to StageAll, StageOne and ListFiles.
	SetExcludes(ctx context.Context, path string, patterns []string) error

	// StageAll stages every change under the repository in one operation.
	StageAll(ctx context.Context, path string) error
	// StageOne stages a single file, given relative to the repository root.
	StageOne(ctx context.Context, path, file string) error
	// ListFiles enumerates tracked and untracked files, relative paths.
	ListFiles(ctx context.Context, path string) ([]string, error)
	// HasStagedChanges reports whether the staged set differs from the last
	// commit.
	HasStagedChanges(ctx context.Context, path string) (bool, error)

	// Commit records the staged set as a new commit.
	Commit(ctx context.Context, path, message string) error
	// CommitAllowEmpty records a commit even when nothing is staged.
	CommitAllowEmpty(ctx context.Context, path, message string) error

	// Log lists commits most recent first.
	Log(ctx context.Context, path string) ([]Commit, error)
	// Head returns the abbreviated identifier of the current head commit.
	Head(ctx context.Context, path string) (string, error)
	// Checkout writes the tree state of ref into the working area. Content
	// only: no branch switch, no new commit.
	Checkout(ctx context.Context, path, ref string) error

	// GC runs the backend's garbage collection, quiet, best effort.
	GC(ctx context.Context, path string) error
}
