package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyInclude indicates no source patterns or files are configured
	ErrEmptyInclude = errors.New("no sources configured")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidLogLevel indicates an unknown log level name
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")

	// ErrInvalidSearchSettings indicates invalid search limits
	ErrInvalidSearchSettings = errors.New("invalid search settings")

	// ErrEmptyServerName indicates a missing MCP server name
	ErrEmptyServerName = errors.New("empty server name")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSources(&cfg.Sources); err != nil {
		errs = append(errs, err)
	}

	if err := validateBuild(&cfg.Build); err != nil {
		errs = append(errs, err)
	}

	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMS))
	}

	if err := validateSearch(&cfg.Search); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(cfg.Server.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: server name is required", ErrEmptyServerName))
	}

	if cfg.Cache.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_files must be positive, got %d", ErrInvalidCacheSettings, cfg.Cache.MaxFiles))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateSources(cfg *SourcesConfig) error {
	var errs []error

	if len(cfg.Include) == 0 && len(cfg.Files) == 0 {
		errs = append(errs, fmt.Errorf("%w: set sources.include or sources.files", ErrEmptyInclude))
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateBuild(cfg *BuildConfig) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.LogLevel)
}

func validateSearch(cfg *SearchConfig) error {
	var errs []error

	if cfg.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_results must be positive, got %d", ErrInvalidSearchSettings, cfg.MaxResults))
	}

	if cfg.Fuzziness < 0 || cfg.Fuzziness > 2 {
		errs = append(errs, fmt.Errorf("%w: fuzziness must be between 0 and 2, got %d", ErrInvalidSearchSettings, cfg.Fuzziness))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
