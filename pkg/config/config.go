// Package config handles configuration via environment variables,
// following the same load/validate/describe shape the store's
// configuration layer uses, trimmed to what the dependency-explorer
// pipeline and its HTTP surface actually need.
//
// Example usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the archlens process reads from its
// environment or config file.
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Database DatabaseConfig     `yaml:"database"`
	Logging  LoggingConfig      `yaml:"logging"`
	Features FeatureFlagsConfig `yaml:"features"`
	Cache    CacheConfig        `yaml:"cache"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// DatabaseConfig controls the RecordSource read budget.
type DatabaseConfig struct {
	// ReadTimeout is validated and printed at startup. The visualization
	// service does not read it: it bounds its RecordSource round trips
	// with its own fixed 5s budget.
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// LoggingConfig controls request/diagnostic logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FeatureFlagsConfig holds default filter values. They are loaded,
// validated and saved with the rest of the config; the HTTP handlers do
// not read them, so a field omitted from a `POST /graph/node` body takes
// its zero value.
type FeatureFlagsConfig struct {
	DefaultLayerDepth      int  `yaml:"default_layer_depth"`
	DefaultSelfEdges       bool `yaml:"default_self_edges"`
	DefaultOutgoingMin     *int `yaml:"default_outgoing_min,omitempty"`
	DefaultOutgoingMax     *int `yaml:"default_outgoing_max,omitempty"`
	DefaultIncomingMin     *int `yaml:"default_incoming_min,omitempty"`
	DefaultIncomingMax     *int `yaml:"default_incoming_max,omitempty"`
	ShowWeakDependencies   bool `yaml:"show_weak_dependencies"`
	ShowStrongDependencies bool `yaml:"show_strong_dependencies"`
	ShowEntityDependencies bool `yaml:"show_entity_dependencies"`
}

// CacheConfig controls the BadgerDB-backed result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	DataDir string        `yaml:"data_dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// LoadFromEnv builds a Config from environment variables, applying the
// same defaults a fresh checkout runs with. If ARCHLENS_CONFIG_FILE
// names a readable YAML file, its values are loaded first and the
// environment variables above override them field by field. A zero or
// empty value in the file counts as unset and takes the default.
// Cache.Enabled and the three Show*Dependencies flags are read from the
// environment only (default true); their values in the file are not used.
func LoadFromEnv() *Config {
	cfg := &Config{}

	if path := os.Getenv("ARCHLENS_CONFIG_FILE"); path != "" {
		if loaded, err := LoadFromFile(path); err == nil {
			cfg = loaded
		}
	}

	cfg.Server.Address = getEnvOr("ARCHLENS_HTTP_ADDRESS", cfg.Server.Address, "0.0.0.0")
	cfg.Server.Port = getEnvIntOr("ARCHLENS_HTTP_PORT", cfg.Server.Port, 8080)

	cfg.Database.ReadTimeout = getEnvDurationOr("ARCHLENS_STORE_READ_TIMEOUT", cfg.Database.ReadTimeout, 5*time.Second)

	cfg.Logging.Level = getEnvOr("ARCHLENS_LOG_LEVEL", cfg.Logging.Level, "INFO")

	cfg.Features.DefaultLayerDepth = getEnvIntOr("ARCHLENS_DEFAULT_LAYER_DEPTH", cfg.Features.DefaultLayerDepth, 2)
	cfg.Features.DefaultSelfEdges = getEnvBool("ARCHLENS_DEFAULT_SELF_EDGES", cfg.Features.DefaultSelfEdges)
	if v := getEnvOptionalInt("ARCHLENS_DEFAULT_OUTGOING_MIN"); v != nil {
		cfg.Features.DefaultOutgoingMin = v
	}
	if v := getEnvOptionalInt("ARCHLENS_DEFAULT_OUTGOING_MAX"); v != nil {
		cfg.Features.DefaultOutgoingMax = v
	}
	if v := getEnvOptionalInt("ARCHLENS_DEFAULT_INCOMING_MIN"); v != nil {
		cfg.Features.DefaultIncomingMin = v
	}
	if v := getEnvOptionalInt("ARCHLENS_DEFAULT_INCOMING_MAX"); v != nil {
		cfg.Features.DefaultIncomingMax = v
	}
	cfg.Features.ShowWeakDependencies = getEnvBool("ARCHLENS_SHOW_WEAK_DEPENDENCIES", true)
	cfg.Features.ShowStrongDependencies = getEnvBool("ARCHLENS_SHOW_STRONG_DEPENDENCIES", true)
	cfg.Features.ShowEntityDependencies = getEnvBool("ARCHLENS_SHOW_ENTITY_DEPENDENCIES", true)

	cfg.Cache.Enabled = getEnvBool("ARCHLENS_CACHE_ENABLED", true)
	cfg.Cache.DataDir = getEnvOr("ARCHLENS_CACHE_DIR", cfg.Cache.DataDir, "")
	cfg.Cache.TTL = getEnvDurationOr("ARCHLENS_CACHE_TTL", cfg.Cache.TTL, 5*time.Minute)

	return cfg
}

// LoadFromFile reads a YAML config file from path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes c to path as YAML, for persisting a config seeded
// from the environment so it can be hand-edited afterward.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid http port: %d", c.Server.Port)
	}
	if c.Database.ReadTimeout <= 0 {
		return fmt.Errorf("invalid store read timeout: %s", c.Database.ReadTimeout)
	}
	if c.Features.DefaultLayerDepth < 0 {
		return fmt.Errorf("invalid default layer depth: %d", c.Features.DefaultLayerDepth)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{HTTP: %s:%d, ReadTimeout: %s, Cache: %v}",
		c.Server.Address, c.Server.Port, c.Database.ReadTimeout, c.Cache.Enabled)
}

// getEnvOr reads key, falling back to fromFile (a value already loaded
// from a config file) and finally defaultVal.
func getEnvOr(key, fromFile, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if fromFile != "" {
		return fromFile
	}
	return defaultVal
}

func getEnvIntOr(key string, fromFile, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	if fromFile != 0 {
		return fromFile
	}
	return defaultVal
}

func getEnvDurationOr(key string, fromFile, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	if fromFile != 0 {
		return fromFile
	}
	return defaultVal
}

func getEnvOptionalInt(key string) *int {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	return &i
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
