package dump

import (
	"errors"
	"fmt"
)

// ErrArtifactMissing means a restore was requested but the dump artifact does
// not exist. Not retried.
var ErrArtifactMissing = errors.New("dump artifact missing")

// DumpError is a database export whose retries were exhausted.
type DumpError struct {
	Database string
	Err      error
}

func (e *DumpError) Error() string {
	return fmt.Sprintf("dump of database %q: %v", e.Database, e.Err)
}

func (e *DumpError) Unwrap() error {
	return e.Err
}

// RestoreError is a failed database restore. Restores are single-shot.
type RestoreError struct {
	Database string
	Err      error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore of database %q: %v", e.Database, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
