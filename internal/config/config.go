// Package config merges run configuration from defaults, an optional TOML
// file, and the environment. CLI arguments are layered on top by the
// command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Environment variable names.
const (
	EnvNote          = "TM_NOTE"
	EnvAddNote       = "TM_ADD_NOTE"
	EnvMetaKey       = "TM_META_KEY"
	EnvProcessedRoot = "TM_PROCESSED_ROOT"
	EnvLZOPath       = "GBXLZO_PATH"
	EnvConfigFile    = "GBXSTRIP_CONFIG"
)

// fileConfig is the on-disk TOML shape.
type fileConfig struct {
	ProcessedRoot string `toml:"processed_root"`
	MetaKey       string `toml:"meta_key"`
	LZOPath       string `toml:"lzo_path"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
}

// Config is the merged run configuration, read-only after Load.
type Config struct {
	// ProcessedRoot overrides the artifact log root; empty means "use the
	// output file's directory".
	ProcessedRoot string
	// MetaKey overrides the script metadata key for the removal record.
	MetaKey string
	// LZOPath is the explicit codec executable path, when configured.
	LZOPath   string
	LogLevel  string
	LogFormat string
	// Note is the environment-supplied note fallback.
	Note string
	// AddDefaultNote injects the fixed default note when no explicit note
	// was given anywhere.
	AddDefaultNote bool
}

// Load builds the merged configuration. configPath may be empty, in which
// case EnvConfigFile and then the default location are consulted; a missing
// file is not an error.
func Load(configPath string) (Config, error) {
	cfg := Config{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}

	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv(EnvConfigFile))
		explicit = path != ""
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".config", "gbxstrip", "config.toml")
		}
	}
	if path != "" {
		if err := mergeFile(&cfg, path, explicit); err != nil {
			return Config{}, err
		}
	}

	mergeEnv(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}
	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	overlay(&cfg.ProcessedRoot, file.ProcessedRoot)
	overlay(&cfg.MetaKey, file.MetaKey)
	overlay(&cfg.LZOPath, file.LZOPath)
	overlay(&cfg.LogLevel, file.LogLevel)
	overlay(&cfg.LogFormat, file.LogFormat)
	return nil
}

func mergeEnv(cfg *Config) {
	overlay(&cfg.ProcessedRoot, os.Getenv(EnvProcessedRoot))
	overlay(&cfg.MetaKey, os.Getenv(EnvMetaKey))
	overlay(&cfg.LZOPath, os.Getenv(EnvLZOPath))
	overlay(&cfg.Note, os.Getenv(EnvNote))
	if truthy(os.Getenv(EnvAddNote)) {
		cfg.AddDefaultNote = true
	}
}

func overlay(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
