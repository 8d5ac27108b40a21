package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDBPath    = "classgraph.db"
	DefaultCacheSize = 4096
)

type Config struct {
	Import struct {
		Workers          int   `yaml:"workers"`    // 0 means GOMAXPROCS
		CacheSize        int   `yaml:"cache_size"` // descriptor cache entries
		IncludeInvisible *bool `yaml:"include_invisible"`
	} `yaml:"import"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Log struct {
		Verbosity int `yaml:"verbosity"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Import.CacheSize = DefaultCacheSize
	cfg.Storage.DBPath = DefaultDBPath
	return &cfg
}

// KeepInvisible reports whether class-retention annotations are imported.
func (c *Config) KeepInvisible() bool {
	return c.Import.IncludeInvisible == nil || *c.Import.IncludeInvisible
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config; a missing file keeps the defaults
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("CLASSGRAPH_DB"); db != "" {
		cfg.Storage.DBPath = db
	}
	if v := os.Getenv("CLASSGRAPH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CLASSGRAPH_WORKERS %q: %w", v, err)
		}
		cfg.Import.Workers = n
	}
	if v := os.Getenv("CLASSGRAPH_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CLASSGRAPH_CACHE_SIZE %q: %w", v, err)
		}
		cfg.Import.CacheSize = n
	}

	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = DefaultDBPath
	}
	return cfg, nil
}
