package config

import (
	"fmt"
	"os"
	"slices"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for problems. It returns a list of
// human-readable issues; an empty list means the config is usable.
// Provider names are checked against the extractor registry at startup,
// not here, so the config package stays free of that dependency.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d out of range 1-65535", c.Server.Port))
	}
	if !slices.Contains(validLogLevels, c.Server.LogLevel) {
		issues = append(issues, fmt.Sprintf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel))
	}

	if c.Cache.ResolveTTL <= 0 {
		issues = append(issues, "cache.resolve_ttl must be positive")
	}
	if c.Cache.FailureTTL <= 0 {
		issues = append(issues, "cache.failure_ttl must be positive")
	}
	if c.Extract.Timeout <= 0 {
		issues = append(issues, "extract.timeout must be positive")
	}
	if c.Extract.RequestsPerSec < 0 {
		issues = append(issues, "extract.requests_per_sec must not be negative")
	}
	if c.Generator.Workers < 1 {
		issues = append(issues, "generator.workers must be at least 1")
	}

	if len(c.Sites) == 0 {
		issues = append(issues, "at least one [[sites]] block is required")
	}

	seen := make(map[string]bool, len(c.Sites))
	for i, site := range c.Sites {
		if site.Tag == "" {
			issues = append(issues, fmt.Sprintf("sites[%d]: tag is required", i))
			continue
		}
		if seen[site.Tag] {
			issues = append(issues, fmt.Sprintf("sites[%d]: duplicate tag %q", i, site.Tag))
		}
		seen[site.Tag] = true

		if site.DataFile == "" {
			issues = append(issues, fmt.Sprintf("site %q: data_file is required", site.Tag))
		} else if _, err := os.Stat(site.DataFile); err != nil {
			issues = append(issues, fmt.Sprintf("site %q: data_file %s: %v", site.Tag, site.DataFile, err))
		}
	}

	return issues
}
