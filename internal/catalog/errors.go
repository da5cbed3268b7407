package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSite indicates the identifier's site tag matches no loaded catalog.
	ErrUnknownSite = errors.New("unknown site")

	// ErrNotFound indicates the site is known but the local id is not.
	ErrNotFound = errors.New("episode not found")

	// ErrBadID indicates a malformed global identifier.
	ErrBadID = errors.New("malformed global id")
)

// LoadError wraps a failure to read or decode a site document.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
