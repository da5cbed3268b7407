package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/catalog"
)

func loadSample(t *testing.T, tag string) *catalog.SiteCatalog {
	t.Helper()
	cat, err := catalog.Load(writeDoc(t, sampleDoc), catalog.LoadOptions{
		Tag:             tag,
		LanguageAliases: map[string]string{"1": "Deutsch", "2": "Englisch"},
	})
	require.NoError(t, err)
	return cat
}

func TestArena_RoutesBySite(t *testing.T) {
	arena := catalog.NewArena()
	arena.Replace(loadSample(t, "aniworld"))
	arena.Replace(loadSample(t, "sto"))

	assert.Equal(t, []string{"aniworld", "sto"}, arena.Tags())

	ep, err := arena.Lookup(catalog.GlobalID{Site: "sto", Local: "attack-on-titan/s01e01"})
	require.NoError(t, err)
	assert.Equal(t, 1, ep.Season)
}

func TestArena_UnknownSiteVsUnknownEpisode(t *testing.T) {
	arena := catalog.NewArena()
	arena.Replace(loadSample(t, "aniworld"))

	// Routing failure: no catalog for this tag.
	_, err := arena.Lookup(catalog.GlobalID{Site: "sto", Local: "attack-on-titan/s01e01"})
	assert.ErrorIs(t, err, catalog.ErrUnknownSite)

	// Lookup failure: site known, id is not.
	_, err = arena.Lookup(catalog.GlobalID{Site: "aniworld", Local: "attack-on-titan/s09e01"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestArena_ReplaceSwapsSnapshot(t *testing.T) {
	arena := catalog.NewArena()
	arena.Replace(loadSample(t, "aniworld"))

	smaller := `{"site": "aniworld", "series": [{"name": "Dark", "key": "dark", "seasons": {
	  "season_1": {"episodes": {"episode_1": {"streams_by_language": {"Deutsch": [{"provider": "VOE", "stream_url": "https://x/1"}]}}}}
	}}]}`
	cat, err := catalog.Load(writeDoc(t, smaller), catalog.LoadOptions{Tag: "aniworld"})
	require.NoError(t, err)
	arena.Replace(cat)

	// Old snapshot's ids are gone, new ones resolve.
	_, err = arena.Lookup(catalog.GlobalID{Site: "aniworld", Local: "attack-on-titan/s01e01"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = arena.Lookup(catalog.GlobalID{Site: "aniworld", Local: "dark/s01e01"})
	assert.NoError(t, err)

	stats := arena.Stats()
	assert.Equal(t, 1, stats["aniworld"].Series)
}

func TestArena_Describe(t *testing.T) {
	arena := catalog.NewArena()
	arena.Replace(loadSample(t, "aniworld"))

	info, err := arena.Describe(catalog.GlobalID{Site: "aniworld", Local: "attack-on-titan/s01e01"})
	require.NoError(t, err)
	assert.Equal(t, "aniworld:attack-on-titan/s01e01", info.ID)
	assert.Equal(t, 1, info.Season)
	assert.Equal(t, 1, info.Episode)
	assert.Equal(t, 2, info.Languages["Deutsch"])
	assert.Equal(t, 1, info.Languages["Englisch"])
	assert.Equal(t, []string{"VOE", "Vidoza"}, info.Providers)

	_, err = arena.Describe(catalog.GlobalID{Site: "nope", Local: "x/s01e01"})
	assert.ErrorIs(t, err, catalog.ErrUnknownSite)
}
