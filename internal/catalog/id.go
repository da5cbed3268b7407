package catalog

import (
	"fmt"
	"strings"
)

// GlobalID is a cross-site episode identifier of the form "{site}:{local}".
// The local part is stable within one site's catalog lifetime: it is derived
// from the series' content key plus season/episode numbers, never from
// scrape-order artifacts like stream ids.
type GlobalID struct {
	Site  string
	Local string
}

// ParseGlobalID splits "{site}:{local}" on the first colon.
func ParseGlobalID(s string) (GlobalID, error) {
	site, local, ok := strings.Cut(s, ":")
	if !ok || site == "" || local == "" {
		return GlobalID{}, fmt.Errorf("%w: %q", ErrBadID, s)
	}
	return GlobalID{Site: site, Local: local}, nil
}

func (g GlobalID) String() string {
	return g.Site + ":" + g.Local
}

// LocalID builds the stable local identifier for an episode.
// Season 0 holds movies.
func LocalID(seriesKey string, season, episode int) string {
	return fmt.Sprintf("%s/s%02de%02d", seriesKey, season, episode)
}
