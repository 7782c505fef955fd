package kura

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PidType selects how persistent ids (pids) map to entity ids. It is fixed at
// Store construction; changing it while entities exist is not supported.
type PidType uint8

const (
	// UsePidAsId uses the entity id as pid. Lookups are direct indexing.
	UsePidAsId PidType = iota
	// RandomPids assigns random or externally supplied pids, mapped to ids
	// through a dictionary.
	RandomPids
)

func (p PidType) String() string {
	switch p {
	case UsePidAsId:
		return "use_pid_as_id"
	case RandomPids:
		return "random_pids"
	default:
		return fmt.Sprintf("PidType(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PidType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PidType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "use_pid_as_id", "":
		*p = UsePidAsId
	case "random_pids":
		*p = RandomPids
	default:
		return eris.Wrapf(ErrInvalidConfig, "unknown pid_type %q", text)
	}
	return nil
}

// LoggingConfig configures the zap logger built by NewLogger.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
}

// Config holds the construction settings of a Store.
type Config struct {
	// ChunkSize is the number of rows per chunk. Must be a power of two >= 64
	// so every chunk can be viewed as whole 512-bit lanes.
	ChunkSize             int           `toml:"chunk_size" yaml:"chunk_size"`
	PidType               PidType       `toml:"pid_type" yaml:"pid_type"`
	InitialEntityCapacity int           `toml:"initial_entity_capacity" yaml:"initial_entity_capacity"`
	Logging               LoggingConfig `toml:"logging" yaml:"logging"`
}

// DefaultChunkSize is the chunk size used when none is configured.
const DefaultChunkSize = 512

// DefaultConfig returns the default Store settings.
func DefaultConfig() Config {
	return Config{
		ChunkSize:             DefaultChunkSize,
		PidType:               UsePidAsId,
		InitialEntityCapacity: 1024,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads a Config from a .toml, .yaml or .yml file. Missing keys
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "read config %s", path)
	}
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, eris.Wrapf(err, "parse config %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, eris.Wrapf(err, "parse config %s", path)
		}
	default:
		return Config{}, eris.Wrapf(ErrInvalidConfig, "unsupported config format %q", filepath.Ext(path))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if c.ChunkSize < 64 || c.ChunkSize&(c.ChunkSize-1) != 0 {
		return eris.Wrapf(ErrInvalidConfig, "chunk_size %d must be a power of two >= 64", c.ChunkSize)
	}
	if c.PidType > RandomPids {
		return eris.Wrapf(ErrInvalidConfig, "unknown pid_type %d", c.PidType)
	}
	if c.InitialEntityCapacity < 0 {
		return eris.Wrapf(ErrInvalidConfig, "initial_entity_capacity %d must not be negative", c.InitialEntityCapacity)
	}
	return nil
}
