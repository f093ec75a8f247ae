package syncache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is synthesized when a read (or write) completes with neither
	// an error nor a result.
	ErrNotFound = errors.New("syncache: not found")

	// ErrUnknownMethod is returned for a sync with an unsupported Method.
	ErrUnknownMethod = errors.New("syncache: unknown method")

	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("syncache: invalid config")
)

// InvalidateError reports a failure to drop a cache entry ahead of a write or
// delete. Either the generation bump, the provider delete or both failed.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
