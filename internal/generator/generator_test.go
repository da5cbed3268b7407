package generator_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"streamgate/internal/catalog"
	"streamgate/internal/generator"
	"streamgate/internal/migrations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openProgressDB(t *testing.T) *generator.ProgressStore {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(migrations.ProgressSQL)
	require.NoError(t, err)
	return generator.NewProgressStore(db)
}

func loadCatalog(t *testing.T, doc string) *catalog.SiteCatalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cat, err := catalog.Load(path, catalog.LoadOptions{Tag: "aniworld"})
	require.NoError(t, err)
	return cat
}

const generatorDoc = `{
  "site": "aniworld",
  "series": [
    {
      "name": "Dark",
      "display_name": "Dark (2017)",
      "key": "dark",
      "seasons": {
        "season_1": {
          "episodes": {
            "episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/1"}]}},
            "episode_2": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/2"}]}},
            "episode_3": {"streams_by_language": {}}
          }
        },
        "season_2": {
          "episodes": {
            "episode_1": {"streams_by_language": {"Englisch": [{"provider": "Vidoza", "stream_url": "https://a/3"}]}}
          }
        }
      }
    },
    {
      "name": "Ghost Series",
      "key": "ghost",
      "seasons": {
        "season_1": {
          "episodes": {
            "episode_1": {"streams_by_language": {}}
          }
        }
      }
    }
  ]
}`

func newGenerator(t *testing.T, root string) (*generator.Generator, *generator.ProgressStore) {
	t.Helper()
	progress := openProgressDB(t)
	gen := generator.New(progress, generator.Options{
		OutputRoot:   root,
		RedirectBase: "http://localhost:8580/stream/redirect",
		Workers:      2,
		Logger:       testLogger(),
	})
	return gen, progress
}

func TestRun_WritesPlaceholderTree(t *testing.T) {
	root := t.TempDir()
	gen, _ := newGenerator(t, root)
	cat := loadCatalog(t, generatorDoc)

	report, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SeriesWritten)
	assert.Equal(t, 1, report.SeriesSkipped, "all-unresolved series produces no subtree")
	assert.Equal(t, 0, report.SeriesFailed)
	assert.Equal(t, 3, report.FilesWritten, "unresolved episode s01e03 is skipped")

	content, err := os.ReadFile(filepath.Join(root, "Dark (2017)", "Season 01", "S01E01.strm"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8580/stream/redirect/aniworld:dark/s01e01", string(content))

	assert.FileExists(t, filepath.Join(root, "Dark (2017)", "Season 02", "S02E01.strm"))
	assert.NoFileExists(t, filepath.Join(root, "Dark (2017)", "Season 01", "S01E03.strm"))
	assert.NoDirExists(t, filepath.Join(root, "Ghost Series"))
}

func TestRun_SecondRunSkipsUnchangedSeries(t *testing.T) {
	root := t.TempDir()
	gen, _ := newGenerator(t, root)
	cat := loadCatalog(t, generatorDoc)

	_, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)

	report, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, 0, report.SeriesWritten)
	assert.Equal(t, 2, report.SeriesSkipped)
	assert.Equal(t, 0, report.FilesWritten)
}

func TestRun_ChangedStreamsTriggerWholeSeriesRewrite(t *testing.T) {
	root := t.TempDir()
	gen, _ := newGenerator(t, root)

	_, err := gen.Run(context.Background(), loadCatalog(t, generatorDoc))
	require.NoError(t, err)

	// The season 2 episode disappears and episode 3 gains a stream.
	changed := `{
	  "site": "aniworld",
	  "series": [
	    {
	      "name": "Dark",
	      "display_name": "Dark (2017)",
	      "key": "dark",
	      "seasons": {
	        "season_1": {
	          "episodes": {
	            "episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/1"}]}},
	            "episode_2": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/2"}]}},
	            "episode_3": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/9"}]}}
	          }
	        }
	      }
	    }
	  ]
	}`
	report, err := gen.Run(context.Background(), loadCatalog(t, changed))
	require.NoError(t, err)
	assert.Equal(t, 1, report.SeriesWritten)
	assert.Equal(t, 3, report.FilesWritten)

	// Whole-series replace: the removed season's placeholder is gone.
	assert.NoDirExists(t, filepath.Join(root, "Dark (2017)", "Season 02"))
	assert.FileExists(t, filepath.Join(root, "Dark (2017)", "Season 01", "S01E03.strm"))
}

func TestRun_StreamCountChangeAloneTriggersRewrite(t *testing.T) {
	root := t.TempDir()
	gen, _ := newGenerator(t, root)

	base := `{"site": "aniworld", "series": [{"name": "Dark", "key": "dark", "seasons": {
	  "season_1": {"episodes": {"episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/1"}]}}}}
	}}]}`
	_, err := gen.Run(context.Background(), loadCatalog(t, base))
	require.NoError(t, err)

	// Same episode set, one more stream: the signature must change.
	extra := `{"site": "aniworld", "series": [{"name": "Dark", "key": "dark", "seasons": {
	  "season_1": {"episodes": {"episode_1": {"streams_by_language": {"Deutsch": [
	    {"provider": "VOE", "stream_url": "https://a/1"},
	    {"provider": "Vidoza", "stream_url": "https://a/2"}
	  ]}}}}
	}}]}`
	report, err := gen.Run(context.Background(), loadCatalog(t, extra))
	require.NoError(t, err)
	assert.Equal(t, 1, report.SeriesWritten)
}

func TestRun_CollidingSeriesNamesGetDistinctDirectories(t *testing.T) {
	root := t.TempDir()
	gen, _ := newGenerator(t, root)

	// "What/If" and "What If" both sanitize to "What If".
	doc := `{"site": "aniworld", "series": [
	  {"name": "What/If", "key": "what-if", "seasons": {
	    "season_1": {"episodes": {"episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/1"}]}}}}
	  }},
	  {"name": "What If", "key": "what-if-2021", "seasons": {
	    "season_1": {"episodes": {"episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://a/2"}]}}}}
	  }}
	]}`
	cat := loadCatalog(t, doc)

	report, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SeriesWritten)
	assert.Equal(t, 2, report.FilesWritten)

	// Each series owns its own subtree; neither clobbered the other.
	a, err := os.ReadFile(filepath.Join(root, "What If [what-if]", "Season 01", "S01E01.strm"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8580/stream/redirect/aniworld:what-if/s01e01", string(a))

	b, err := os.ReadFile(filepath.Join(root, "What If [what-if-2021]", "Season 01", "S01E01.strm"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8580/stream/redirect/aniworld:what-if-2021/s01e01", string(b))

	assert.NoDirExists(t, filepath.Join(root, "What If"))

	// Unchanged catalog: both skip on the next run.
	report, err = gen.Run(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SeriesSkipped)
}

func TestRun_ResumesAfterInterruptedWrite(t *testing.T) {
	root := t.TempDir()
	gen, progress := newGenerator(t, root)
	cat := loadCatalog(t, generatorDoc)

	_, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)

	// Simulate a run that died mid-series: part of the subtree is on
	// disk but the progress row was never written.
	require.NoError(t, os.Remove(filepath.Join(root, "Dark (2017)", "Season 02", "S02E01.strm")))
	_, err = progress.Clear(context.Background(), "aniworld")
	require.NoError(t, err)

	_, ok := progress.Get(context.Background(), "aniworld", "dark")
	require.False(t, ok, "interrupted series must have no progress row")

	report, err := gen.Run(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SeriesWritten, "series without a progress row is rewritten in full")
	assert.Equal(t, 3, report.FilesWritten)
	assert.FileExists(t, filepath.Join(root, "Dark (2017)", "Season 02", "S02E01.strm"))

	sig, ok := progress.Get(context.Background(), "aniworld", "dark")
	require.True(t, ok)
	assert.NotEmpty(t, sig)
}

func TestProgressStore(t *testing.T) {
	progress := openProgressDB(t)
	ctx := context.Background()

	_, ok := progress.Get(ctx, "aniworld", "dark")
	assert.False(t, ok)

	require.NoError(t, progress.Put(ctx, "aniworld", "dark", "sig-1"))
	sig, ok := progress.Get(ctx, "aniworld", "dark")
	require.True(t, ok)
	assert.Equal(t, "sig-1", sig)

	// Upsert replaces.
	require.NoError(t, progress.Put(ctx, "aniworld", "dark", "sig-2"))
	sig, _ = progress.Get(ctx, "aniworld", "dark")
	assert.Equal(t, "sig-2", sig)

	require.NoError(t, progress.Put(ctx, "sto", "dark", "sig-3"))
	removed, err := progress.Clear(ctx, "aniworld")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok = progress.Get(ctx, "sto", "dark")
	assert.True(t, ok)
}
