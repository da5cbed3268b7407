// Package extractor turns stored stream locators into directly playable
// URLs, one implementation per hosting provider. Extraction may perform
// network I/O under a bounded timeout; it never retries internally;
// retry policy belongs to the resolver and the negative cache.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstreamUnavailable indicates the hosting provider could not be
	// reached or answered with an error.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrParseFailed indicates the provider page was fetched but no
	// playable URL could be located in it.
	ErrParseFailed = errors.New("stream extraction parse failed")

	// ErrUnsupportedFormat indicates the provider answered with content
	// this extractor cannot turn into a playable URL.
	ErrUnsupportedFormat = errors.New("unsupported stream format")

	// ErrUnknownProvider indicates a provider name with no registered
	// extractor. This is a configuration defect and is checked at
	// startup, not per request.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Extractor resolves one provider's raw locator into a playable URL.
type Extractor interface {
	// Name is the canonical provider name as it appears in catalog
	// documents and priority lists.
	Name() string

	// Extract returns a directly playable URL for the locator.
	Extract(ctx context.Context, locator string) (string, error)
}

// Registry looks extractors up by provider name, case-insensitively.
type Registry struct {
	byName map[string]Extractor
}

// NewRegistry builds a registry from the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byName: make(map[string]Extractor, len(extractors))}
	for _, e := range extractors {
		r.byName[strings.ToLower(e.Name())] = e
	}
	return r
}

// Lookup returns the extractor registered for name.
func (r *Registry) Lookup(name string) (Extractor, error) {
	e, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return e, nil
}

// Validate checks that every provider named in a priority list is
// registered. Called at startup so misconfiguration fails loudly instead
// of surfacing per request.
func (r *Registry) Validate(providers []string) error {
	for _, name := range providers {
		if _, err := r.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}

// Names lists registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, e := range r.byName {
		names = append(names, e.Name())
	}
	return names
}
