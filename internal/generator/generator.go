// Package generator projects the catalog into a media-server library: one
// directory per series, one zero-padded season directory per season, and
// one placeholder file per resolvable episode whose entire content is the
// redirect address for that episode's global identifier.
//
// Generation is incremental: a series whose content signature matches the
// progress store is skipped without touching the filesystem; a changed
// series' subtree is deleted and rewritten in full, so removed episodes
// never leave stale placeholders behind.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"streamgate/internal/catalog"
)

// Options configure a Generator.
type Options struct {
	OutputRoot   string
	RedirectBase string // e.g. "http://localhost:8580/stream/redirect"
	Workers      int    // parallel series; default 4
	Logger       *slog.Logger
}

// Generator writes placeholder trees for loaded catalogs.
type Generator struct {
	root     string
	base     string
	workers  int
	progress *ProgressStore
	logger   *slog.Logger
}

// New creates a Generator.
func New(progress *ProgressStore, opts Options) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		root:     opts.OutputRoot,
		base:     strings.TrimRight(opts.RedirectBase, "/"),
		workers:  opts.Workers,
		progress: progress,
		logger:   opts.Logger,
	}
}

// Report summarizes one generation run.
type Report struct {
	SeriesWritten int `json:"series_written"`
	SeriesSkipped int `json:"series_skipped"`
	SeriesFailed  int `json:"series_failed"`
	FilesWritten  int `json:"files_written"`
}

// Run generates the placeholder tree for one site catalog. Series are
// processed in parallel; each series' subtree and progress row are written
// by exactly one goroutine. A failed series is logged and counted, never
// fatal to the run.
func (g *Generator) Run(ctx context.Context, cat *catalog.SiteCatalog) (Report, error) {
	if err := os.MkdirAll(g.root, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output root: %w", err)
	}

	var (
		mu     sync.Mutex
		report Report
	)

	dirs := seriesDirs(cat)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for _, series := range cat.Series {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			written, files, err := g.generateSeries(ctx, cat.Tag, series, dirs[series.Key])

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.SeriesFailed++
				g.logger.Error("series generation failed",
					"site", cat.Tag, "series", series.Key, "error", err)
			case written:
				report.SeriesWritten++
				report.FilesWritten += files
			default:
				report.SeriesSkipped++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// seriesDirs assigns every series in the catalog a distinct directory
// name. Sanitized titles can collide (including collapsing to the
// fallback name); colliding series get their content key appended so no
// two goroutines ever write or remove the same subtree.
func seriesDirs(cat *catalog.SiteCatalog) map[string]string {
	counts := make(map[string]int, len(cat.Series))
	for _, s := range cat.Series {
		counts[SanitizeName(s.DisplayName)]++
	}
	dirs := make(map[string]string, len(cat.Series))
	for _, s := range cat.Series {
		name := SanitizeName(s.DisplayName)
		if counts[name] > 1 {
			suffix := " [" + SanitizeName(s.Key) + "]"
			if len(name)+len(suffix) > maxNameLength {
				name = strings.Trim(name[:maxNameLength-len(suffix)], " .")
			}
			name += suffix
		}
		dirs[s.Key] = name
	}
	return dirs
}

// generateSeries writes one series subtree if its signature changed.
// Returns whether anything was written and how many files.
func (g *Generator) generateSeries(ctx context.Context, site string, series *catalog.Series, dirName string) (bool, int, error) {
	entries := resolvableEntries(site, series)
	if len(entries) == 0 {
		// Nothing playable: no directory, no progress row.
		return false, 0, nil
	}

	sig := signature(entries)
	if prev, ok := g.progress.Get(ctx, site, series.Key); ok && prev == sig {
		return false, 0, nil
	}

	dir := filepath.Join(g.root, dirName)

	// Whole-series replace: stale placeholders from removed episodes
	// must not survive a rewrite.
	if err := os.RemoveAll(dir); err != nil {
		return false, 0, fmt.Errorf("clear series dir: %w", err)
	}

	files := 0
	for _, e := range entries {
		seasonDir := filepath.Join(dir, fmt.Sprintf("Season %02d", e.season))
		if err := os.MkdirAll(seasonDir, 0o755); err != nil {
			return false, files, fmt.Errorf("create season dir: %w", err)
		}
		name := fmt.Sprintf("S%02dE%02d.strm", e.season, e.episode)
		content := g.base + "/" + e.id
		if err := os.WriteFile(filepath.Join(seasonDir, name), []byte(content), 0o644); err != nil {
			return false, files, fmt.Errorf("write placeholder: %w", err)
		}
		files++
	}

	// Progress is recorded only after the subtree is complete, so an
	// interrupted run retries this series in full.
	if err := g.progress.Put(ctx, site, series.Key, sig); err != nil {
		return false, files, err
	}
	return true, files, nil
}

type entry struct {
	id      string
	season  int
	episode int
	streams int
}

// resolvableEntries collects the series' playable episodes in stable order.
func resolvableEntries(site string, series *catalog.Series) []entry {
	var out []entry
	for _, ep := range series.Episodes {
		if !ep.Resolvable() {
			continue
		}
		total := 0
		for _, refs := range ep.Languages {
			total += len(refs)
		}
		gid := catalog.GlobalID{Site: site, Local: catalog.LocalID(series.Key, ep.Season, ep.Number)}
		out = append(out, entry{
			id:      gid.String(),
			season:  ep.Season,
			episode: ep.Number,
			streams: total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].season != out[j].season {
			return out[i].season < out[j].season
		}
		return out[i].episode < out[j].episode
	})
	return out
}

// signature digests the resolvable episode set. Stream counts are included
// so an episode gaining or losing streams triggers a rewrite even when the
// episode list itself is unchanged.
func signature(entries []entry) string {
	h := sha256.New()
	for _, e := range entries {
		fmt.Fprintf(h, "%s#%d\n", e.id, e.streams)
	}
	return hex.EncodeToString(h.Sum(nil))
}
