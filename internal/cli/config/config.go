package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oxjest/mockgraph/internal/logging"
	"github.com/oxjest/mockgraph/internal/store"
)

// FileName is the config file looked up in the working directory.
const FileName = "mockgraph.yml"

// EnvPrefix prefixes environment overrides, e.g. MOCKGRAPH_STORE_DSN.
const EnvPrefix = "MOCKGRAPH"

// Cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the mockgraph configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Fixtures FixturesConfig `mapstructure:"fixtures"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// StoreConfig selects the snapshot database.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig represents inspect server configuration
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// FixturesConfig locates fixture files.
type FixturesConfig struct {
	Dir string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", "mockgraph.db")
	v.SetDefault("server.addr", "127.0.0.1:7357")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("fixtures.dir", "fixtures")
}

// Defaults returns the configuration used when no file or environment
// override is present.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from path, or from mockgraph.yml in the working
// directory when path is empty. A missing default file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field with a closed set of values.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache.backend must be %s or %s, got %q",
			ErrInvalidConfig, CacheMemory, CacheRedis, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalidConfig)
	}

	if !slices.Contains(store.SupportedDrivers(), c.Store.Driver) {
		return fmt.Errorf("%w: store.driver must be one of %s, got %q",
			ErrInvalidConfig, strings.Join(store.SupportedDrivers(), ", "), c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is required", ErrInvalidConfig)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	return nil
}

// Write saves cfg as YAML at path.
func Write(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	v := viper.New()
	v.Set("log.level", cfg.Log.Level)
	v.Set("cache.backend", cfg.Cache.Backend)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	if cfg.Cache.Backend == CacheRedis {
		v.Set("cache.redis_addr", cfg.Cache.RedisAddr)
		if cfg.Cache.RedisPassword != "" {
			v.Set("cache.redis_password", cfg.Cache.RedisPassword)
		}
	}
	v.Set("store.driver", cfg.Store.Driver)
	v.Set("store.dsn", cfg.Store.DSN)
	v.Set("server.addr", cfg.Server.Addr)
	if cfg.Server.JWTSecret != "" {
		v.Set("server.jwt_secret", cfg.Server.JWTSecret)
	}
	v.Set("fixtures.dir", cfg.Fixtures.Dir)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	v.SetConfigType("yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
