package mirror

import "fmt"

// SyncError is a failed mirror pass. At backup time it means staging failed;
// at restore time it means the target was not (fully) rewritten.
type SyncError struct {
	Source string
	Dest   string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("mirror %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
