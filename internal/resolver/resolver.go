// Package resolver picks a concrete stream for a global identifier by
// applying language-then-provider priority to the episode's scraped
// streams and invoking the matching extractor. Selection is deterministic
// and side-effect-free on the catalog; extraction failures advance to the
// next candidate instead of aborting.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streamgate/internal/catalog"
	"streamgate/internal/extractor"
)

// ErrNoEligibleStream indicates the episode has streams, but none in any
// language the priority configuration lists. This is a policy failure:
// configuration must enumerate every acceptable language.
var ErrNoEligibleStream = errors.New("no eligible stream")

// Priority is one site's ordered language and provider lists.
type Priority struct {
	Languages []string
	Providers []string
}

// Result is a successful resolution.
type Result struct {
	URL      string
	Provider string
	Language string
}

// candidate is one extraction attempt: a stream plus the language bucket
// it came from.
type candidate struct {
	ref  catalog.StreamRef
	lang string
}

// Resolver routes identifiers through the catalog arena and extractor
// registry.
type Resolver struct {
	arena      *catalog.Arena
	registry   *extractor.Registry
	defaults   Priority
	sites      map[string]Priority
	perAttempt time.Duration
	logger     *slog.Logger
}

// Options configure a Resolver.
type Options struct {
	Defaults       Priority            // used when a site has no override
	Sites          map[string]Priority // per-site overrides
	AttemptTimeout time.Duration       // per-extraction bound; default 20s
	Logger         *slog.Logger
}

// New creates a Resolver.
func New(arena *catalog.Arena, registry *extractor.Registry, opts Options) *Resolver {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 20 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Resolver{
		arena:      arena,
		registry:   registry,
		defaults:   opts.Defaults,
		sites:      opts.Sites,
		perAttempt: opts.AttemptTimeout,
		logger:     opts.Logger,
	}
}

// priority returns the effective priority lists for a site.
func (r *Resolver) priority(site string) Priority {
	if p, ok := r.sites[site]; ok {
		return p
	}
	return r.defaults
}

// Resolve looks up the episode, selects candidates by priority, and
// attempts extraction until one succeeds.
func (r *Resolver) Resolve(ctx context.Context, id catalog.GlobalID) (Result, error) {
	ep, err := r.arena.Lookup(id)
	if err != nil {
		return Result{}, err
	}
	if !ep.Resolvable() {
		// A record with zero streams is unresolved, indistinguishable
		// from absent for callers.
		return Result{}, fmt.Errorf("%w: %s has no streams", catalog.ErrNotFound, id)
	}

	prio := r.priority(id.Site)
	candidates := selectCandidates(ep, prio)
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: %s (languages on record: %v)", ErrNoEligibleStream, id, languageLabels(ep))
	}

	var lastErr error
	for _, c := range candidates {
		ext, err := r.registry.Lookup(c.ref.Provider)
		if err != nil {
			// Catalogs can reference providers nobody implements yet;
			// skip them the same way a failed extraction is skipped.
			r.logger.Warn("skipping stream with unregistered provider",
				"id", id.String(), "provider", c.ref.Provider)
			lastErr = err
			continue
		}

		url, err := r.extract(ctx, ext, c.ref.Locator)
		if err != nil {
			r.logger.Info("extraction attempt failed",
				"id", id.String(), "provider", c.ref.Provider, "language", c.lang, "error", err)
			lastErr = err
			continue
		}
		return Result{URL: url, Provider: ext.Name(), Language: c.lang}, nil
	}
	return Result{}, fmt.Errorf("%w: all %d candidates failed for %s: %v",
		extractor.ErrUpstreamUnavailable, len(candidates), id, lastErr)
}

// extract runs one bounded extraction attempt.
func (r *Resolver) extract(ctx context.Context, ext extractor.Extractor, locator string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.perAttempt)
	defer cancel()
	return ext.Extract(ctx, locator)
}

// selectCandidates applies the two-level priority:
//
//  1. First (language, provider) pair from the priority lists with at
//     least one stream wins; all streams under that exact pair become the
//     candidate set, in scrape order.
//  2. Otherwise the first priority language with any stream contributes
//     all of its streams regardless of provider; a present but unranked
//     provider beats no match.
//  3. Content only in unlisted languages yields no candidates.
func selectCandidates(ep *catalog.Episode, prio Priority) []candidate {
	for _, lang := range prio.Languages {
		refs := ep.Languages[lang]
		if len(refs) == 0 {
			continue
		}
		for _, provider := range prio.Providers {
			var out []candidate
			for _, ref := range refs {
				if strings.EqualFold(ref.Provider, provider) {
					out = append(out, candidate{ref: ref, lang: lang})
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	for _, lang := range prio.Languages {
		refs := ep.Languages[lang]
		if len(refs) == 0 {
			continue
		}
		out := make([]candidate, 0, len(refs))
		for _, ref := range refs {
			out = append(out, candidate{ref: ref, lang: lang})
		}
		return out
	}
	return nil
}

func languageLabels(ep *catalog.Episode) []string {
	labels := make([]string, 0, len(ep.Languages))
	for lang, refs := range ep.Languages {
		if len(refs) > 0 {
			labels = append(labels, lang)
		}
	}
	return labels
}
