package snapshot

import "fmt"

// RepositoryError means a repository could not be initialized or failed
// verification; fatal for the site's file pipeline.
type RepositoryError struct {
	Path string
	Err  error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Path, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// CommitError means the commit retries were exhausted. Staged changes stay
// staged so the next run folds further source changes into the retry.
type CommitError struct {
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit in %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// ReferenceNotFoundError means no commit matched the requested reference.
type ReferenceNotFoundError struct {
	Requested string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("no commit matches reference %q", e.Requested)
}
