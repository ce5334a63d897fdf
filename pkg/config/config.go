// Package config loads application settings.
//
// Settings are resolved in layers: built-in defaults, then the TOML file,
// then SPACETIME_* environment variables. Command-line flags are applied
// last by the CLI. Only keys present in the file override defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/gesture"
)

const appName = "spacetime"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds every tunable setting.
type Config struct {
	Cells     int
	Rows      int
	Pitch     int
	HoldDelay time.Duration
	Palette   []diagram.Color
	LogLevel  string

	Addr      string
	Advertise bool

	Cache     string
	CacheDir  string
	CacheTTL  time.Duration
	RedisAddr string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Cells:     24,
		Rows:      24,
		Pitch:     16,
		HoldDelay: gesture.DefaultDelay,
		Palette:   append([]diagram.Color(nil), diagram.DefaultPalette...),
		LogLevel:  "info",
		Addr:      "127.0.0.1:8737",
		Cache:     CacheNone,
		CacheTTL:  24 * time.Hour,
		RedisAddr: "127.0.0.1:6379",
	}
}

type fileConfig struct {
	LogLevel  string   `toml:"log_level"`
	Pitch     int      `toml:"pitch"`
	HoldDelay string   `toml:"hold_delay"`
	Palette   []string `toml:"palette"`
	Grid      struct {
		Cells int `toml:"cells"`
		Rows  int `toml:"rows"`
	} `toml:"grid"`
	Server struct {
		Addr      string `toml:"addr"`
		Advertise bool   `toml:"advertise"`
	} `toml:"server"`
	Cache struct {
		Backend   string `toml:"backend"`
		Dir       string `toml:"dir"`
		TTL       string `toml:"ttl"`
		RedisAddr string `toml:"redis_addr"`
	} `toml:"cache"`
}

// DefaultPath returns $XDG_CONFIG_HOME/spacetime/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load resolves the configuration. An empty path means the default
// location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	} else if explicit {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}

	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("pitch") {
		c.Pitch = raw.Pitch
	}
	if meta.IsDefined("hold_delay") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HoldDelay))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse hold_delay")
		}
		c.HoldDelay = d
	}
	if meta.IsDefined("palette") {
		c.Palette = make([]diagram.Color, 0, len(raw.Palette))
		for _, p := range raw.Palette {
			c.Palette = append(c.Palette, diagram.Color(strings.TrimSpace(p)))
		}
	}
	if meta.IsDefined("grid", "cells") {
		c.Cells = raw.Grid.Cells
	}
	if meta.IsDefined("grid", "rows") {
		c.Rows = raw.Grid.Rows
	}
	if meta.IsDefined("server", "addr") {
		c.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "advertise") {
		c.Advertise = raw.Server.Advertise
	}
	if meta.IsDefined("cache", "backend") {
		c.Cache = strings.TrimSpace(raw.Cache.Backend)
	}
	if meta.IsDefined("cache", "dir") {
		c.CacheDir = strings.TrimSpace(raw.Cache.Dir)
	}
	if meta.IsDefined("cache", "ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Cache.TTL))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse cache.ttl")
		}
		c.CacheTTL = d
	}
	if meta.IsDefined("cache", "redis_addr") {
		c.RedisAddr = strings.TrimSpace(raw.Cache.RedisAddr)
	}
	return nil
}

// ApplyEnv overlays SPACETIME_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	env := func(name string) (string, bool) {
		v, ok := lookup("SPACETIME_" + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	intVar := func(name string, dst *int) error {
		if v, ok := env(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SPACETIME_%s", name)
			}
			*dst = n
		}
		return nil
	}
	durVar := func(name string, dst *time.Duration) error {
		if v, ok := env(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SPACETIME_%s", name)
			}
			*dst = d
		}
		return nil
	}

	for _, f := range []func() error{
		func() error { return intVar("CELLS", &c.Cells) },
		func() error { return intVar("ROWS", &c.Rows) },
		func() error { return intVar("PITCH", &c.Pitch) },
		func() error { return durVar("HOLD_DELAY", &c.HoldDelay) },
		func() error { return durVar("CACHE_TTL", &c.CacheTTL) },
	} {
		if err := f(); err != nil {
			return err
		}
	}

	if v, ok := env("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := env("CACHE"); ok {
		c.Cache = v
	}
	if v, ok := env("CACHE_DIR"); ok {
		c.CacheDir = v
	}
	if v, ok := env("REDIS_ADDR"); ok {
		c.RedisAddr = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := env("ADVERTISE"); ok {
		b, err := parseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SPACETIME_ADVERTISE")
		}
		c.Advertise = b
	}
	return nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", v)
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if err := errors.ValidateGrid(c.Cells, c.Rows); err != nil {
		return err
	}
	if c.Pitch < 4 || c.Pitch > 128 {
		return errors.New(errors.ErrCodeInvalidConfig, "pitch must be between 4 and 128, got %d", c.Pitch)
	}
	if c.HoldDelay <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "hold delay must be positive")
	}
	if len(c.Palette) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "palette must not be empty")
	}
	for _, p := range c.Palette {
		if err := errors.ValidateColor(string(p)); err != nil {
			return err
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log level")
	}
	switch c.Cache {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "redis cache needs an address")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want none, file or redis)", c.Cache)
	}
	if c.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "listen address is required")
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c Config) Level() log.Level {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Grid returns the configured grid.
func (c Config) Grid() diagram.Grid {
	return diagram.Grid{Cells: c.Cells, Rows: c.Rows}
}

// DiagramOptions returns the options for a new diagram.
func (c Config) DiagramOptions() []diagram.Option {
	return []diagram.Option{diagram.WithPalette(c.Palette)}
}

// CacheDirectory returns the file cache directory: the configured one, or
// $XDG_CACHE_HOME/spacetime, falling back to ~/.cache/spacetime.
func (c Config) CacheDirectory() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
