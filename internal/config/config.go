// Package config loads Forger's runtime configuration from FORGER_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/kv"
)

// Vector source cache backends.
const (
	SVGCacheFile  = "file"
	SVGCacheRedis = "redis"
	SVGCacheNone  = "none"
)

// Rasterizers.
const (
	RasterizerNative = "native"
	RasterizerRSVG   = "rsvg"
)

// Config is the process configuration. Empty directories are resolved by
// [Load] to their per-user defaults.
type Config struct {
	APIBase     string        `env:"FORGER_API_BASE"     envDefault:"https://api.iconify.design"`
	CacheTTL    time.Duration `env:"FORGER_CACHE_TTL"    envDefault:"30m"`
	HTTPTimeout time.Duration `env:"FORGER_HTTP_TIMEOUT" envDefault:"15s"`

	DataDir  string `env:"FORGER_DATA_DIR"`
	CacheDir string `env:"FORGER_CACHE_DIR"`

	Store       kv.Kind `env:"FORGER_STORE"        envDefault:"file"`
	RedisAddr   string  `env:"FORGER_REDIS_ADDR"   envDefault:"localhost:6379"`
	RedisPrefix string  `env:"FORGER_REDIS_PREFIX" envDefault:"forger:"`
	MongoURI    string  `env:"FORGER_MONGO_URI"`
	MongoDB     string  `env:"FORGER_MONGO_DB"     envDefault:"forger"`

	SVGCache     string `env:"FORGER_SVG_CACHE"     envDefault:"file"`
	DownloadAddr string `env:"FORGER_DOWNLOAD_ADDR" envDefault:"127.0.0.1:0"`
	Rasterizer   string `env:"FORGER_RASTERIZER"    envDefault:"native"`
	RSVGBinary   string `env:"FORGER_RSVG_BINARY"   envDefault:"rsvg-convert"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills default directories and validates
// the enumerated settings.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.resolveDirs(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if err := ferrors.ValidateURL(c.APIBase); err != nil {
		return fmt.Errorf("FORGER_API_BASE: %w", err)
	}
	switch c.Store {
	case kv.KindFile, kv.KindSQLite, kv.KindRedis, kv.KindMongo, kv.KindMemory:
	default:
		return fmt.Errorf("FORGER_STORE: unknown store %q", c.Store)
	}
	switch c.SVGCache {
	case SVGCacheFile, SVGCacheRedis, SVGCacheNone:
	default:
		return fmt.Errorf("FORGER_SVG_CACHE: unknown cache %q", c.SVGCache)
	}
	switch c.Rasterizer {
	case RasterizerNative, RasterizerRSVG:
	default:
		return fmt.Errorf("FORGER_RASTERIZER: unknown rasterizer %q", c.Rasterizer)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("FORGER_CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("FORGER_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// KV returns the persistence settings.
func (c Config) KV() kv.Config {
	return kv.Config{
		Kind:        c.Store,
		Dir:         c.DataDir,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
		MongoURI:    c.MongoURI,
		MongoDB:     c.MongoDB,
	}
}

func (c *Config) resolveDirs() error {
	if c.DataDir == "" {
		dir, err := kv.DefaultDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if c.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("get cache dir: %w", err)
		}
		c.CacheDir = filepath.Join(base, "forger")
	}
	return nil
}
