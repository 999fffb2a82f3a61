// Package config loads the switchboard.yaml settings shared by every command.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "switchboard.yaml"

// EnvRedisAddr overrides Redis.Addr.
const EnvRedisAddr = "SWITCHBOARD_REDIS_ADDR"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreLoam   = "loam"
	StoreRedis  = "redis"
)

// Config is the structure of switchboard.yaml.
type Config struct {
	Store StoreConfig `yaml:"store" json:"store"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
	HTTP  HTTPConfig  `yaml:"http" json:"http"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	UndoLimit *int   `yaml:"undo_limit" json:"undo_limit"`
}

// StoreConfig selects where agent definitions live.
type StoreConfig struct {
	Kind string `yaml:"kind" json:"kind"` // memory, loam or redis
	Dir  string `yaml:"dir" json:"dir"`   // loam only
}

// RedisConfig is used by the redis store and by the save lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Port    int  `yaml:"port" json:"port"`
	Metrics bool `yaml:"metrics" json:"metrics"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Kind: StoreLoam, Dir: "."},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Prefix:  "switchboard:",
			LockTTL: 30 * time.Second,
		},
		HTTP:     HTTPConfig{Port: 8080, Metrics: true},
		LogLevel: "info",
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			err = json.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		cfg.Redis.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	case StoreLoam:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the loam store")
		}
	default:
		return fmt.Errorf("unknown store kind %q (want memory, loam or redis)", c.Store.Kind)
	}
	if c.Store.Kind == StoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required for the redis store")
	}
	if c.UndoLimit != nil && *c.UndoLimit < 0 {
		return fmt.Errorf("undo_limit must not be negative")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d is out of range", c.HTTP.Port)
	}
	return nil
}
