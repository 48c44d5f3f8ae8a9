package history

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by GetHistoryItem for an unknown id.
var ErrNotFound = errors.New("history item not found")

// ErrNotSignedIn is returned by Feed operations that require an owner.
var ErrNotSignedIn = errors.New("no signed-in user")

// StorageError reports a failed store operation. For ClearHistory,
// Failed carries the number of records that could not be deleted;
// records deleted before the failure stay deleted.
type StorageError struct {
	Op     string
	Failed int
	Err    error
}

func (e *StorageError) Error() string {
	if e.Failed > 0 {
		return fmt.Sprintf("history %s: failed to delete %d items", e.Op, e.Failed)
	}
	if e.Err != nil {
		return fmt.Sprintf("history %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("history %s failed", e.Op)
}

func (e *StorageError) Unwrap() error { return e.Err }
