// Package config loads the daemon's yaml configuration with the documented
// defaults filled in for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultListen is the daemon's default TCP address.
const DefaultListen = "127.0.0.1:7461"

type IndexConfig struct {
	// Root is the filesystem location of the index root.
	Root string `yaml:"root"`
	// Name selects a named index within the root; empty means the default
	// index stored in the root itself.
	Name string `yaml:"name"`
}

type PoolConfig struct {
	// Min is the slot count seeded without a materialized searcher.
	Min int `yaml:"min"`
	// Max is the hard cap on concurrent searchers.
	Max int `yaml:"max"`
}

type IngestConfig struct {
	// Dir, when set, is watched for dropped *.json documents.
	Dir string `yaml:"dir"`
}

type Config struct {
	Index  IndexConfig  `yaml:"index"`
	Pool   PoolConfig   `yaml:"pool"`
	Ingest IngestConfig `yaml:"ingest"`
	Listen string       `yaml:"listen"`
}

// Default returns the configuration used when no file is present: index root
// under the platform temp directory, unnamed index, pool 1..10.
func Default() Config {
	return Config{
		Index:  IndexConfig{Root: filepath.Join(os.TempDir(), "pooldex")},
		Pool:   PoolConfig{Min: 1, Max: 10},
		Listen: DefaultListen,
	}
}

// Load reads path and merges it over the defaults. A missing file is not an
// error; it yields the pure defaults. An empty path loads "pooldex.yaml" from
// the working directory if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = "pooldex.yaml"
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Index.Root == "" {
		return fmt.Errorf("index.root is required")
	}
	if c.Pool.Max < 1 {
		return fmt.Errorf("pool.max must be >= 1, got %d", c.Pool.Max)
	}
	if c.Pool.Min < 0 || c.Pool.Min > c.Pool.Max {
		return fmt.Errorf("pool.min must be in [0, %d], got %d", c.Pool.Max, c.Pool.Min)
	}
	return nil
}
