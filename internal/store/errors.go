package store

import (
	"errors"
	"fmt"
)

// Load failure reasons. Every load error wraps exactly one of these, so
// callers can branch with errors.Is.
var (
	ErrDuplicateSlug     = errors.New("duplicate slug")
	ErrDuplicateAlias    = errors.New("duplicate alias")
	ErrMalformedMetadata = errors.New("malformed metadata")
)

// LoadError reports why a snapshot could not be built. Load never returns a
// partially valid snapshot alongside one of these.
type LoadError struct {
	Reason error  // one of the sentinels above
	Path   string // source path of the offending document
	Detail string // human-readable specifics (colliding value, parse message)
}

func (e *LoadError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("store: %s: %v", e.Path, e.Reason)
	}
	return fmt.Sprintf("store: %s: %v: %s", e.Path, e.Reason, e.Detail)
}

func (e *LoadError) Unwrap() error { return e.Reason }
