// Package config loads engine configuration from TOML files.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/piecetable/internal/engine"
	"github.com/dshills/piecetable/internal/engine/chunk"
)

// Config holds the tunable engine settings.
type Config struct {
	ChunkCapacity    int  `toml:"chunk_capacity"`
	SingleBuffer     bool `toml:"single_buffer"`
	ThrowOnError     bool `toml:"throw_on_error"`
	UnlimitedHistory bool `toml:"unlimited_history"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{ChunkCapacity: chunk.DefaultCapacity}
}

// Load reads a TOML config file. A missing file is not an error; the
// defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	if cfg.ChunkCapacity <= 0 {
		cfg.ChunkCapacity = chunk.DefaultCapacity
	}
	return cfg, nil
}

// EngineOptions converts the configuration into engine options.
func (c Config) EngineOptions() []engine.Option {
	var opts []engine.Option
	if c.SingleBuffer {
		opts = append(opts, engine.WithSingleBuffer())
	} else {
		opts = append(opts, engine.WithChunkCapacity(c.ChunkCapacity))
	}
	if c.ThrowOnError {
		opts = append(opts, engine.WithThrowOnError())
	}
	if c.UnlimitedHistory {
		opts = append(opts, engine.WithUnlimitedHistory())
	}
	return opts
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
