// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Cache     CacheConfig     `toml:"cache"`
	Extract   ExtractConfig   `toml:"extract"`
	Generator GeneratorConfig `toml:"generator"`
	Priority  PriorityConfig  `toml:"priority"`
	Sites     []SiteConfig    `toml:"sites"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type CacheConfig struct {
	ResolveTTL Duration `toml:"resolve_ttl"`
	FailureTTL Duration `toml:"failure_ttl"`
}

type ExtractConfig struct {
	Timeout        Duration `toml:"timeout"`
	RequestsPerSec float64  `toml:"requests_per_sec"` // per upstream host
	UserAgent      string   `toml:"user_agent"`
}

type GeneratorConfig struct {
	OutputRoot   string `toml:"output_root"`
	RedirectBase string `toml:"redirect_base"`
	ProgressDB   string `toml:"progress_db"`
	Workers      int    `toml:"workers"`
}

// PriorityConfig holds the default ordered language and provider lists.
// Per-site overrides live on SiteConfig.
type PriorityConfig struct {
	Languages []string `toml:"languages"`
	Providers []string `toml:"providers"`
}

// SiteConfig describes one catalog partition.
type SiteConfig struct {
	Tag      string `toml:"tag"`
	DataFile string `toml:"data_file"`

	// Optional per-site priority overrides; empty means use the defaults.
	Languages []string `toml:"languages"`
	Providers []string `toml:"providers"`

	// LanguageKeys maps raw document language keys to canonical labels
	// (some sites key buckets numerically). Unmapped keys keep their
	// raw label.
	LanguageKeys map[string]string `toml:"language_keys"`
}

// Duration wraps time.Duration for TOML string values like "1h" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Value returns the underlying time.Duration.
func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8580
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Cache.ResolveTTL == 0 {
		c.Cache.ResolveTTL = Duration(time.Hour)
	}
	if c.Cache.FailureTTL == 0 {
		c.Cache.FailureTTL = Duration(90 * time.Second)
	}
	if c.Extract.Timeout == 0 {
		c.Extract.Timeout = Duration(20 * time.Second)
	}
	if c.Generator.Workers == 0 {
		c.Generator.Workers = 4
	}
	if c.Generator.ProgressDB == "" {
		c.Generator.ProgressDB = "./data/progress.db"
	}
	if len(c.Priority.Languages) == 0 {
		c.Priority.Languages = []string{"Deutsch", "Englisch", "mit deutschen Untertiteln"}
	}
	if len(c.Priority.Providers) == 0 {
		c.Priority.Providers = []string{"VOE", "Vidoza", "Doodstream"}
	}
}

// SitePriority returns the effective priority lists for one site.
func (c *Config) SitePriority(s SiteConfig) (languages, providers []string) {
	languages = s.Languages
	if len(languages) == 0 {
		languages = c.Priority.Languages
	}
	providers = s.Providers
	if len(providers) == 0 {
		providers = c.Priority.Providers
	}
	return languages, providers
}

// Site returns the configuration block for one site tag.
func (c *Config) Site(tag string) (SiteConfig, bool) {
	for _, s := range c.Sites {
		if s.Tag == tag {
			return s, true
		}
	}
	return SiteConfig{}, false
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
