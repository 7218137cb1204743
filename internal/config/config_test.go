package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() loads from .typedb/config.yml and .typedb/config.yaml
// - Load() merges a partial config file with defaults
// - Environment variables override config file values and defaults
// - NewFileLoader() reads an explicit file
// - Load() returns error for malformed YAML and invalid values
// - Validate() rejects each invalid field and joins multiple errors
// - SlogLevel() maps level names

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, DirName)
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"**/*.lua"}, cfg.Sources.Include)
	assert.NotEmpty(t, cfg.Sources.Ignore)
	assert.Empty(t, cfg.Sources.Files)
	assert.Equal(t, "warn", cfg.Build.LogLevel)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 1, cfg.Search.Fuzziness)
	assert.Equal(t, "typedb", cfg.Server.Name)
	assert.Equal(t, 4096, cfg.Cache.MaxFiles)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.Sources.Include, cfg.Sources.Include)
	assert.Equal(t, expected.Search.MaxResults, cfg.Search.MaxResults)
	assert.Equal(t, expected.Server.Name, cfg.Server.Name)
}

func TestLoad_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
sources:
  include:
    - "types/**/*.lua"
  ignore:
    - "types/generated/**"
  files:
    - "types/core.lua"

build:
  extra_primitives: ["FVector", "FRotator"]
  log_level: debug

watch:
  debounce_ms: 250

search:
  max_results: 10
  fuzziness: 2

server:
  name: ue-types
  version: 2.0.0

cache:
  max_files: 128
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"types/**/*.lua"}, cfg.Sources.Include)
	assert.Equal(t, []string{"types/generated/**"}, cfg.Sources.Ignore)
	assert.Equal(t, []string{"types/core.lua"}, cfg.Sources.Files)
	assert.Equal(t, []string{"FVector", "FRotator"}, cfg.Build.ExtraPrimitives)
	assert.Equal(t, "debug", cfg.Build.LogLevel)
	assert.Equal(t, 250, cfg.Watch.DebounceMS)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 2, cfg.Search.Fuzziness)
	assert.Equal(t, "ue-types", cfg.Server.Name)
	assert.Equal(t, "2.0.0", cfg.Server.Version)
	assert.Equal(t, 128, cfg.Cache.MaxFiles)
}

func TestLoad_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
server:
  name: alt-ext
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "alt-ext", cfg.Server.Name)
}

func TestLoad_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
search:
  max_results: 5
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 1, cfg.Search.Fuzziness)
	assert.Equal(t, []string{"**/*.lua"}, cfg.Sources.Include)
	assert.Equal(t, 500, cfg.Watch.DebounceMS)
}

func TestLoad_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
build:
  log_level: info
search:
  max_results: 5
`)

	t.Setenv("TYPEDB_BUILD_LOG_LEVEL", "error")
	t.Setenv("TYPEDB_SEARCH_MAX_RESULTS", "99")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Build.LogLevel)
	assert.Equal(t, 99, cfg.Search.MaxResults)
}

func TestLoad_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("TYPEDB_WATCH_DEBOUNCE_MS", "1000")
	t.Setenv("TYPEDB_SERVER_NAME", "from-env")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Watch.DebounceMS)
	assert.Equal(t, "from-env", cfg.Server.Name)
}

func TestNewFileLoader_ReadsExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  max_files: 7\n"), 0644))

	cfg, err := NewFileLoader(dir, path).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.MaxFiles)

	_, err = NewFileLoader(dir, filepath.Join(dir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestLoad_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "search:\n  max_results: [unclosed\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "build:\n  log_level: loud\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.True(t, errors.Is(err, ErrInvalidLogLevel))
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no sources", func(c *Config) { c.Sources.Include = nil }, ErrEmptyInclude},
		{"bad glob", func(c *Config) { c.Sources.Ignore = []string{"[unclosed"} }, ErrInvalidPattern},
		{"log level", func(c *Config) { c.Build.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"debounce", func(c *Config) { c.Watch.DebounceMS = -1 }, ErrInvalidDebounce},
		{"max results", func(c *Config) { c.Search.MaxResults = 0 }, ErrInvalidSearchSettings},
		{"fuzziness", func(c *Config) { c.Search.Fuzziness = 3 }, ErrInvalidSearchSettings},
		{"server name", func(c *Config) { c.Server.Name = " " }, ErrEmptyServerName},
		{"cache", func(c *Config) { c.Cache.MaxFiles = 0 }, ErrInvalidCacheSettings},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestValidate_AcceptsExplicitFilesWithoutInclude(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Sources.Include = nil
	cfg.Sources.Files = []string{"core.lua"}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Build.LogLevel = "loud"
	cfg.Search.MaxResults = -1
	cfg.Cache.MaxFiles = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "log level")
	assert.Contains(t, err.Error(), "max_results")
	assert.Contains(t, err.Error(), "max_files")
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.Build.LogLevel = "DEBUG"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.Build.LogLevel = "info"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	cfg.Build.LogLevel = "error"
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
}
