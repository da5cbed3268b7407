// Package catalog holds the read-only, per-site view of scraped stream
// catalogs. Catalogs are immutable after load; the Arena swaps whole
// snapshots on reload so concurrent readers never observe partial state.
package catalog

import (
	"iter"
	"sort"
)

// StreamRef is one scraped stream: a hosting provider name plus the raw
// locator the matching extractor turns into a playable URL.
type StreamRef struct {
	Provider string
	Locator  string
}

// Episode maps language labels to scraped streams. Order inside a language
// bucket is scrape order; priority is applied at resolve time.
type Episode struct {
	Season    int
	Number    int
	Languages map[string][]StreamRef
}

// Resolvable reports whether the episode has at least one stream in any
// language. Unresolvable episodes are skipped by the resolver and the
// structure generator alike.
func (e *Episode) Resolvable() bool {
	for _, refs := range e.Languages {
		if len(refs) > 0 {
			return true
		}
	}
	return false
}

// Series owns its episodes. Key is the stable content key from the site
// document (typically the site's URL slug).
type Series struct {
	Key         string
	Title       string
	DisplayName string // library-facing name, usually "Title (Year)"
	Episodes    []*Episode
}

// SiteCatalog is one site's loaded catalog. Immutable after Load.
type SiteCatalog struct {
	Tag    string
	Series []*Series

	byLocal map[string]*Episode
}

// Lookup returns the episode for a local id, or false.
func (c *SiteCatalog) Lookup(local string) (*Episode, bool) {
	ep, ok := c.byLocal[local]
	return ep, ok
}

// All yields every (GlobalID, Episode) pair in deterministic order:
// series sorted by key, episodes by season then number. The sequence is
// finite and restartable.
func (c *SiteCatalog) All() iter.Seq2[GlobalID, *Episode] {
	return func(yield func(GlobalID, *Episode) bool) {
		for _, s := range c.Series {
			for _, ep := range s.Episodes {
				id := GlobalID{Site: c.Tag, Local: LocalID(s.Key, ep.Season, ep.Number)}
				if !yield(id, ep) {
					return
				}
			}
		}
	}
}

// index builds the local-id lookup table and fixes iteration order.
func (c *SiteCatalog) index() {
	sort.Slice(c.Series, func(i, j int) bool { return c.Series[i].Key < c.Series[j].Key })
	c.byLocal = make(map[string]*Episode)
	for _, s := range c.Series {
		sort.Slice(s.Episodes, func(i, j int) bool {
			a, b := s.Episodes[i], s.Episodes[j]
			if a.Season != b.Season {
				return a.Season < b.Season
			}
			return a.Number < b.Number
		})
		for _, ep := range s.Episodes {
			c.byLocal[LocalID(s.Key, ep.Season, ep.Number)] = ep
		}
	}
}

// SiteStats summarizes one loaded catalog.
type SiteStats struct {
	Series     int            `json:"series"`
	Episodes   int            `json:"episodes"`
	Resolvable int            `json:"resolvable"`
	Languages  map[string]int `json:"languages"`
	Providers  map[string]int `json:"providers"`
}

// Stats counts series, episodes, and per-language/provider stream totals.
func (c *SiteCatalog) Stats() SiteStats {
	st := SiteStats{
		Series:    len(c.Series),
		Languages: make(map[string]int),
		Providers: make(map[string]int),
	}
	for _, s := range c.Series {
		st.Episodes += len(s.Episodes)
		for _, ep := range s.Episodes {
			if ep.Resolvable() {
				st.Resolvable++
			}
			for lang, refs := range ep.Languages {
				st.Languages[lang] += len(refs)
				for _, ref := range refs {
					st.Providers[ref.Provider]++
				}
			}
		}
	}
	return st
}
