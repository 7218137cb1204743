package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project configuration directory.
const DirName = ".typedb"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader loads an explicit config file instead of searching rootDir.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (TYPEDB_*)
// 2. Config file (.typedb/config.yml or .typedb/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	v.SetEnvPrefix("TYPEDB")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., TYPEDB_BUILD_LOG_LEVEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("build.log_level")
	v.BindEnv("watch.debounce_ms")
	v.BindEnv("search.max_results")
	v.BindEnv("search.fuzziness")
	v.BindEnv("server.name")
	v.BindEnv("server.version")
	v.BindEnv("cache.max_files")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("sources.include", defaults.Sources.Include)
	v.SetDefault("sources.ignore", defaults.Sources.Ignore)
	v.SetDefault("sources.files", defaults.Sources.Files)

	v.SetDefault("build.extra_primitives", defaults.Build.ExtraPrimitives)
	v.SetDefault("build.log_level", defaults.Build.LogLevel)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)

	v.SetDefault("search.max_results", defaults.Search.MaxResults)
	v.SetDefault("search.fuzziness", defaults.Search.Fuzziness)

	v.SetDefault("server.name", defaults.Server.Name)
	v.SetDefault("server.version", defaults.Server.Version)

	v.SetDefault("cache.max_files", defaults.Cache.MaxFiles)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// SlogLevel converts Build.LogLevel to a slog level. Validate guarantees the
// name is known.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Build.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
