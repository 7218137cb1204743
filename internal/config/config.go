// Package config loads typedb project configuration from .typedb/config.yml
// with TYPEDB_* environment variable overrides.
package config

// Config represents the complete typedb configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Build   BuildConfig   `yaml:"build" mapstructure:"build"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
}

// SourcesConfig selects the declaration files to parse.
type SourcesConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns relative to the root
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
	Files   []string `yaml:"files" mapstructure:"files"`     // explicit files, parsed first and in this order
}

// BuildConfig tunes the parser.
type BuildConfig struct {
	ExtraPrimitives []string `yaml:"extra_primitives" mapstructure:"extra_primitives"` // added to the primitive vocabulary
	LogLevel        string   `yaml:"log_level" mapstructure:"log_level"`               // debug, info, warn, error
}

// WatchConfig configures rebuild-on-change.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// SearchConfig configures symbol search.
type SearchConfig struct {
	MaxResults int `yaml:"max_results" mapstructure:"max_results"`
	Fuzziness  int `yaml:"fuzziness" mapstructure:"fuzziness"` // edit distance for fuzzy name queries, 0-2
}

// ServerConfig identifies the MCP server.
type ServerConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
}

// CacheConfig bounds the source content cache.
type CacheConfig struct {
	MaxFiles int `yaml:"max_files" mapstructure:"max_files"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Include: []string{"**/*.lua"},
			Ignore: []string{
				".git/**",
				".typedb/**",
				"node_modules/**",
			},
			Files: []string{},
		},
		Build: BuildConfig{
			ExtraPrimitives: []string{},
			LogLevel:        "warn",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Search: SearchConfig{
			MaxResults: 50,
			Fuzziness:  1,
		},
		Server: ServerConfig{
			Name:    "typedb",
			Version: "1.0.0",
		},
		Cache: CacheConfig{
			MaxFiles: 4096,
		},
	}
}
