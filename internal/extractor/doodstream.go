package extractor

import (
	"context"
	"fmt"
)

// Doodstream is a recognized provider without a working extraction path:
// its player requires a per-session token exchange that cannot be relayed
// as a stable URL. Registering it keeps Doodstream entries in priority
// lists valid; extraction fails with ErrUnsupportedFormat so resolution
// falls through to the next candidate.
type Doodstream struct{}

// NewDoodstream builds the placeholder Doodstream extractor.
func NewDoodstream() *Doodstream {
	return &Doodstream{}
}

func (d *Doodstream) Name() string { return "Doodstream" }

func (d *Doodstream) Extract(_ context.Context, locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", ErrUpstreamUnavailable)
	}
	return "", fmt.Errorf("%w: doodstream playback requires session tokens", ErrUnsupportedFormat)
}
