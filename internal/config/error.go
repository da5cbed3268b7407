package config

import (
	"fmt"
	"strings"
)

// ConfigError aggregates validation problems for one config file.
type ConfigError struct {
	Path   string   // Config file path
	Issues []string // Validation errors
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return ""
	}

	parts := []string{fmt.Sprintf("%s: validation failed:", e.Path)}
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  - %s", issue))
	}
	return strings.Join(parts, "\n")
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Issues) > 0
}
