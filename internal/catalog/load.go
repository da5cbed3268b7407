package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadOptions control how a site document is interpreted.
type LoadOptions struct {
	// Tag overrides the document's own site tag. Required when the
	// document omits one.
	Tag string

	// LanguageAliases maps raw per-site language keys (e.g. numeric
	// aniworld keys) to canonical labels. A key with no alias becomes a
	// language labeled by the raw key itself; no bucket is ever dropped.
	LanguageAliases map[string]string
}

// Document wire types. Unknown fields are ignored for forward
// compatibility; a missing or empty streams_by_language means
// "unresolved", never an error.
type siteDoc struct {
	Site   string      `json:"site"`
	Series []seriesDoc `json:"series"`
}

type seriesDoc struct {
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name"`
	Key         string               `json:"key"`
	Seasons     map[string]seasonDoc `json:"seasons"`
	Movies      map[string]entryDoc  `json:"movies"`
}

type seasonDoc struct {
	Episodes map[string]entryDoc `json:"episodes"`
}

type entryDoc struct {
	Streams map[string][]streamDoc `json:"streams_by_language"`
}

type streamDoc struct {
	Provider string `json:"provider"`
	Locator  string `json:"stream_url"`
}

// Load reads and decodes one persisted site document.
func Load(path string, opts LoadOptions) (*SiteCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var doc siteDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	tag := opts.Tag
	if tag == "" {
		tag = doc.Site
	}
	if tag == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("document has no site tag")}
	}

	cat := &SiteCatalog{Tag: tag}
	for i, sd := range doc.Series {
		s, err := buildSeries(sd, opts.LanguageAliases)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("series %d (%s): %w", i, sd.Name, err)}
		}
		cat.Series = append(cat.Series, s)
	}
	cat.index()
	return cat, nil
}

func buildSeries(sd seriesDoc, aliases map[string]string) (*Series, error) {
	key := sd.Key
	if key == "" {
		return nil, fmt.Errorf("missing content key")
	}
	s := &Series{
		Key:         key,
		Title:       sd.Name,
		DisplayName: sd.DisplayName,
	}
	if s.DisplayName == "" {
		s.DisplayName = sd.Name
	}

	for seasonKey, season := range sd.Seasons {
		num, err := keyNumber(seasonKey, "season_")
		if err != nil {
			return nil, err
		}
		for epKey, entry := range season.Episodes {
			epNum, err := keyNumber(epKey, "episode_")
			if err != nil {
				return nil, err
			}
			s.Episodes = append(s.Episodes, buildEpisode(num, epNum, entry, aliases))
		}
	}

	// Movies live in season 0, mirroring the "Season 00" library layout.
	for movieKey, entry := range sd.Movies {
		num, err := keyNumber(movieKey, "movie_")
		if err != nil {
			return nil, err
		}
		s.Episodes = append(s.Episodes, buildEpisode(0, num, entry, aliases))
	}
	return s, nil
}

func buildEpisode(season, number int, entry entryDoc, aliases map[string]string) *Episode {
	ep := &Episode{
		Season:    season,
		Number:    number,
		Languages: make(map[string][]StreamRef),
	}
	for rawLang, streams := range entry.Streams {
		lang := rawLang
		if mapped, ok := aliases[rawLang]; ok {
			lang = mapped
		}
		for _, sd := range streams {
			if sd.Locator == "" {
				continue
			}
			ep.Languages[lang] = append(ep.Languages[lang], StreamRef{
				Provider: sd.Provider,
				Locator:  sd.Locator,
			})
		}
	}
	return ep
}

// keyNumber parses map keys like "season_1", "episode_12", "movie_3".
// A bare numeric key is accepted too.
func keyNumber(key, prefix string) (int, error) {
	trimmed := strings.TrimPrefix(key, prefix)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("bad key %q: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("bad key %q: negative number", key)
	}
	return n, nil
}
