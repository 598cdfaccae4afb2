// Package config loads the settings of the scorm command: built-in defaults,
// then an optional YAML file, then SCORM_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/aretw0/scorm/internal/logging"
	"github.com/joeshaw/envdecode"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

var drivers = []string{DriverMemory, DriverFile, DriverRedis, DriverSQLite}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full configuration of the scorm command.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" env:"SCORM_ADDR"`

	// RateLimit is the number of calls a session may make per minute. 0 disables limiting.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit" env:"SCORM_RATE_LIMIT"`

	Metrics bool `mapstructure:"metrics" yaml:"metrics" env:"SCORM_METRICS"`
}

// StoreConfig selects and configures the attempt store.
type StoreConfig struct {
	Driver string      `mapstructure:"driver" yaml:"driver" env:"SCORM_STORE_DRIVER"`
	Path   string      `mapstructure:"path" yaml:"path" env:"SCORM_STORE_PATH"`
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis store and the distributed locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr" env:"SCORM_REDIS_ADDR"`
	Password string        `mapstructure:"password" yaml:"password" env:"SCORM_REDIS_PASSWORD"`
	DB       int           `mapstructure:"db" yaml:"db" env:"SCORM_REDIS_DB"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" env:"SCORM_REDIS_PREFIX"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" env:"SCORM_REDIS_TTL"`
}

// SessionConfig tunes the session manager.
type SessionConfig struct {
	LockTTL     time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl" env:"SCORM_LOCK_TTL"`
	HookTimeout time.Duration `mapstructure:"hook_timeout" yaml:"hook_timeout" env:"SCORM_HOOK_TIMEOUT"`

	// DistributedLock serializes calls across processes through redis.
	DistributedLock bool `mapstructure:"distributed_lock" yaml:"distributed_lock" env:"SCORM_DISTRIBUTED_LOCK"`
}

// SecurityConfig configures the store middlewares.
type SecurityConfig struct {
	// EncryptionKey is a base64 AES-256 key. Empty disables encryption at rest.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key" env:"SCORM_ENCRYPTION_KEY"`

	// FallbackKeys are older base64 keys still accepted for decryption.
	// In the environment they are separated by ";".
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys" env:"SCORM_ENCRYPTION_FALLBACK_KEYS"`

	MaskPII bool `mapstructure:"mask_pii" yaml:"mask_pii" env:"SCORM_MASK_PII"`

	// PIIKeys overrides the element patterns masked when MaskPII is set (";" separated in the environment).
	PIIKeys []string `mapstructure:"pii_keys" yaml:"pii_keys" env:"SCORM_PII_KEYS"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" env:"SCORM_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			RateLimit: 600,
			Metrics:   true,
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   ".scorm/attempts",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "scorm:attempt:",
			},
		},
		Session: SessionConfig{
			LockTTL:     30 * time.Second,
			HookTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges a YAML document into cfg. Keys absent from the document keep
// their current values; unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// ApplyEnv overrides cfg with the SCORM_* variables that are set.
func ApplyEnv(cfg *Config) error {
	err := envdecode.Decode(cfg)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate rejects unknown drivers, malformed keys and bad limits.
func (c Config) Validate() error {
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("%w: unknown store driver %q (want one of %v)", ErrInvalid, c.Store.Driver, drivers)
	}
	if (c.Store.Driver == DriverFile || c.Store.Driver == DriverSQLite) && c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required for the %s driver", ErrInvalid, c.Store.Driver)
	}
	if (c.Store.Driver == DriverRedis || c.Session.DistributedLock) && c.Store.Redis.Addr == "" {
		return fmt.Errorf("%w: store.redis.addr is required", ErrInvalid)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	}
	if c.Session.LockTTL <= 0 || c.Session.HookTimeout <= 0 {
		return fmt.Errorf("%w: session.lock_ttl and session.hook_timeout must be positive", ErrInvalid)
	}
	if c.Security.EncryptionKey != "" {
		if _, _, err := c.Security.Keys(); err != nil {
			return err
		}
	}
	for _, p := range c.Security.PIIKeys {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: pii key pattern %q: %v", ErrInvalid, p, err)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

// Keys decodes the active and fallback encryption keys.
func (s SecurityConfig) Keys() (active []byte, fallback [][]byte, err error) {
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: security.encryption_key: %w", ErrInvalid, err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: security.fallback_keys[%d]: %w", ErrInvalid, i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
