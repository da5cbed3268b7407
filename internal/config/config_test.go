package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"site":"x","series":[]}`), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[[sites]]
tag = "aniworld"
data_file = "/data/aniworld.json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8580, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, time.Hour, cfg.Cache.ResolveTTL.Value())
	assert.Equal(t, 90*time.Second, cfg.Cache.FailureTTL.Value())
	assert.Equal(t, 20*time.Second, cfg.Extract.Timeout.Value())
	assert.Equal(t, 4, cfg.Generator.Workers)
	assert.Equal(t, []string{"Deutsch", "Englisch", "mit deutschen Untertiteln"}, cfg.Priority.Languages)
	assert.Equal(t, []string{"VOE", "Vidoza", "Doodstream"}, cfg.Priority.Providers)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
log_level = "debug"

[cache]
resolve_ttl = "30m"
failure_ttl = "2m"

[extract]
timeout = "10s"
requests_per_sec = 2.5
user_agent = "custom-agent"

[generator]
output_root = "/library"
redirect_base = "http://media.lan:9000/stream/redirect"
workers = 8

[priority]
languages = ["Englisch", "Deutsch"]
providers = ["Vidoza", "VOE"]

[[sites]]
tag = "aniworld"
data_file = "/data/aniworld.json"
languages = ["Deutsch"]

[sites.language_keys]
"1" = "Deutsch"
"2" = "Englisch"

[[sites]]
tag = "sto"
data_file = "/data/sto.json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ResolveTTL.Value())
	assert.Equal(t, 2.5, cfg.Extract.RequestsPerSec)
	assert.Equal(t, 8, cfg.Generator.Workers)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, map[string]string{"1": "Deutsch", "2": "Englisch"}, cfg.Sites[0].LanguageKeys)

	// Per-site language override, default providers.
	langs, providers := cfg.SitePriority(cfg.Sites[0])
	assert.Equal(t, []string{"Deutsch"}, langs)
	assert.Equal(t, []string{"Vidoza", "VOE"}, providers)

	// No overrides: both fall back to the defaults.
	langs, providers = cfg.SitePriority(cfg.Sites[1])
	assert.Equal(t, []string{"Englisch", "Deutsch"}, langs)
	assert.Equal(t, []string{"Vidoza", "VOE"}, providers)
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("STREAMGATE_DATA", "/srv/streamgate")

	path := writeConfig(t, `
[generator]
output_root = "${STREAMGATE_DATA}/library"
progress_db = "${UNSET_VARIABLE}/progress.db"

[[sites]]
tag = "aniworld"
data_file = "${STREAMGATE_DATA}/aniworld.json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/streamgate/library", cfg.Generator.OutputRoot)
	assert.Equal(t, "/srv/streamgate/aniworld.json", cfg.Sites[0].DataFile)
	// Unknown variables are left as-is.
	assert.Equal(t, "${UNSET_VARIABLE}/progress.db", cfg.Generator.ProgressDB)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
[cache]
resolve_ttl = "one hour"

[[sites]]
tag = "aniworld"
data_file = "/data/aniworld.json"
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dataFile := writeDataFile(t)

	valid := func() *config.Config {
		cfg, err := config.Load(writeConfig(t, `
[[sites]]
tag = "aniworld"
data_file = "`+dataFile+`"
`))
		require.NoError(t, err)
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.Empty(t, valid().Validate())
	})

	t.Run("no sites", func(t *testing.T) {
		cfg := valid()
		cfg.Sites = nil
		issues := cfg.Validate()
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "at least one")
	})

	t.Run("duplicate tags", func(t *testing.T) {
		cfg := valid()
		cfg.Sites = append(cfg.Sites, cfg.Sites[0])
		issues := cfg.Validate()
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "duplicate tag")
	})

	t.Run("missing data file", func(t *testing.T) {
		cfg := valid()
		cfg.Sites[0].DataFile = "/does/not/exist.json"
		assert.NotEmpty(t, cfg.Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		issues := cfg.Validate()
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0], "server.port")
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Server.LogLevel = "verbose"
		assert.NotEmpty(t, cfg.Validate())
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := valid()
		cfg.Extract.RequestsPerSec = -1
		assert.NotEmpty(t, cfg.Validate())
	})
}

func TestConfigError_FormatsIssues(t *testing.T) {
	err := &config.ConfigError{Path: "config.toml", Issues: []string{"a", "b"}}
	assert.True(t, err.HasErrors())
	assert.Contains(t, err.Error(), "config.toml")
	assert.Contains(t, err.Error(), "- a")

	assert.False(t, (&config.ConfigError{}).HasErrors())
}
