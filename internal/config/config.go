package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine drivers.
const (
	EngineOpenSearch = "opensearch"
	EngineMemory     = "memory"
)

// Catalog drivers.
const (
	CatalogRedis = "redis"
	CatalogNone  = "none"
)

// Config holds the shelfdex configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Catalog CatalogConfig `yaml:"catalog"`
	Search  SearchConfig  `yaml:"search"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig selects and connects the search engine.
type EngineConfig struct {
	Driver             string   `yaml:"driver"` // opensearch, memory (default: opensearch)
	Addresses          []string `yaml:"addresses"`
	Username           string   `yaml:"username"`
	Password           string   `yaml:"password"`
	Index              string   `yaml:"index"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
	FixturesPath       string   `yaml:"fixtures_path"` // memory driver only
	ReadinessTimeout   int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig connects the catalog facts store.
type CatalogConfig struct {
	Driver           string   `yaml:"driver"` // redis, none (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig tunes query compilation.
type SearchConfig struct {
	ScriptRevision int    `yaml:"script_revision"` // 0 = built-in revision
	DictionaryPath string `yaml:"dictionary_path"` // empty = built-in word list
	VocabularyPath string `yaml:"vocabulary_path"` // empty = built-in genres
	// Deterministic turns off the random component of featured ordering.
	Deterministic bool  `yaml:"deterministic"`
	FeaturedSeed  int64 `yaml:"featured_seed"` // 0 = seeded at startup
}

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod, test).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = EngineOpenSearch
	}
	if c.Engine.Index == "" {
		c.Engine.Index = "works"
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = CatalogRedis
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "shelfdex:"
	}
	if c.Catalog.ReadinessTimeout <= 0 {
		c.Catalog.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Engine.Driver {
	case EngineOpenSearch:
		if len(c.Engine.Addresses) == 0 {
			return fmt.Errorf("engine.addresses is required for the opensearch driver")
		}
	case EngineMemory:
		if c.Engine.FixturesPath == "" {
			return fmt.Errorf("engine.fixtures_path is required for the memory driver")
		}
	default:
		return fmt.Errorf("engine.driver must be %q or %q, got %q", EngineOpenSearch, EngineMemory, c.Engine.Driver)
	}
	switch c.Catalog.Driver {
	case CatalogRedis:
		if len(c.Catalog.Addrs) == 0 {
			return fmt.Errorf("catalog.addrs is required for the redis driver")
		}
	case CatalogNone:
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", CatalogRedis, CatalogNone, c.Catalog.Driver)
	}
	if c.Search.ScriptRevision < 0 {
		return fmt.Errorf("search.script_revision must not be negative, got %d", c.Search.ScriptRevision)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
