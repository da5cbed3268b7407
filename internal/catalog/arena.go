package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Arena holds one immutable SiteCatalog per site tag. Reload replaces a
// site's snapshot wholesale under the write lock; the serving path only
// ever reads, so readers see either the old or the new complete catalog.
type Arena struct {
	mu    sync.RWMutex
	sites map[string]*SiteCatalog
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{sites: make(map[string]*SiteCatalog)}
}

// Replace installs (or swaps in) a site's catalog snapshot.
func (a *Arena) Replace(cat *SiteCatalog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sites[cat.Tag] = cat
}

// Site returns the current snapshot for a tag.
func (a *Arena) Site(tag string) (*SiteCatalog, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cat, ok := a.sites[tag]
	return cat, ok
}

// Tags lists loaded site tags, sorted.
func (a *Arena) Tags() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tags := make([]string, 0, len(a.sites))
	for tag := range a.sites {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Lookup routes a global identifier to its site partition and returns the
// episode record. An unknown site tag is a routing failure (ErrUnknownSite),
// distinct from a known site with an unknown local id (ErrNotFound).
func (a *Arena) Lookup(id GlobalID) (*Episode, error) {
	cat, ok := a.Site(id.Site)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, id.Site)
	}
	ep, ok := cat.Lookup(id.Local)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ep, nil
}

// Stats returns per-site catalog statistics.
func (a *Arena) Stats() map[string]SiteStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]SiteStats, len(a.sites))
	for tag, cat := range a.sites {
		out[tag] = cat.Stats()
	}
	return out
}

// EpisodeInfo is the debug view of one identifier, exposed on the info
// endpoint.
type EpisodeInfo struct {
	ID        string         `json:"id"`
	Season    int            `json:"season"`
	Episode   int            `json:"episode"`
	Languages map[string]int `json:"languages"` // label -> stream count
	Providers []string       `json:"providers"`
}

// Describe returns debug info for one identifier.
func (a *Arena) Describe(id GlobalID) (*EpisodeInfo, error) {
	ep, err := a.Lookup(id)
	if err != nil {
		return nil, err
	}
	info := &EpisodeInfo{
		ID:        id.String(),
		Season:    ep.Season,
		Episode:   ep.Number,
		Languages: make(map[string]int),
	}
	seen := make(map[string]bool)
	for lang, refs := range ep.Languages {
		info.Languages[lang] = len(refs)
		for _, ref := range refs {
			if !seen[ref.Provider] {
				seen[ref.Provider] = true
				info.Providers = append(info.Providers, ref.Provider)
			}
		}
	}
	sort.Strings(info.Providers)
	return info, nil
}
