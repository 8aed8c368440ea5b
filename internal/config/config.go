package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/reltag/internal/domain"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
)

// Config holds the reltag API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Related  RelatedConfig  `yaml:"related"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
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

// Cache store drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DatabaseConfig holds sample cache store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CorpusConfig holds post corpus settings.
type CorpusConfig struct {
	Path                string `yaml:"path"`
	StatementTimeoutSec int    `yaml:"statement_timeout_sec"`
}

// StatementTimeout returns the per-statement timeout as a duration.
func (c CorpusConfig) StatementTimeout() time.Duration {
	return time.Duration(c.StatementTimeoutSec) * time.Second
}

// RelatedConfig holds similarity engine defaults.
type RelatedConfig struct {
	TopN          int `yaml:"top_n"`
	SampleSize    int `yaml:"sample_size"`
	FrequentLimit int `yaml:"frequent_limit"`
	CacheTTLSec   int `yaml:"cache_ttl_sec"`
}

// CacheTTL returns the sample cache TTL as a duration.
func (c RelatedConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "data/corpus.db"
	}
	if c.Corpus.StatementTimeoutSec <= 0 {
		c.Corpus.StatementTimeoutSec = 5
	}
	if c.Related.TopN <= 0 {
		c.Related.TopN = domrel.DefaultTopN
	}
	if c.Related.SampleSize <= 0 {
		c.Related.SampleSize = domrel.DefaultSampleSize
	}
	if c.Related.FrequentLimit <= 0 {
		c.Related.FrequentLimit = domrel.DefaultFrequentLimit
	}
	if c.Related.CacheTTLSec <= 0 {
		c.Related.CacheTTLSec = 24 * 60 * 60
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = domain.KeyPrefix
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, memory, got %q", c.Database.Driver)
	}
	if c.Related.TopN > domrel.MaxTopN {
		return fmt.Errorf("related.top_n must be at most %d, got %d", domrel.MaxTopN, c.Related.TopN)
	}
	if c.Related.SampleSize > domrel.MaxSampleSize {
		return fmt.Errorf("related.sample_size must be at most %d, got %d", domrel.MaxSampleSize, c.Related.SampleSize)
	}
	if c.Related.FrequentLimit > domrel.MaxFrequentLimit {
		return fmt.Errorf(
			"related.frequent_limit must be at most %d, got %d", domrel.MaxFrequentLimit, c.Related.FrequentLimit,
		)
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
