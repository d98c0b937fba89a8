package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/acksell/hbnb/console"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const configFileName = "hbnb.yaml"

// Backend names accepted by the backend setting.
const (
	backendFile   = "file"
	backendBadger = "badger"
	backendSQLite = "sqlite"
)

// Config holds the shell configuration. Values come from hbnb.yaml, then
// HBNB_* environment variables, then command-line flags.
type Config struct {
	// Backend selects the durable store: file, badger or sqlite.
	Backend string `yaml:"backend" env:"HBNB_BACKEND"`

	// Path is the durable file or database location. Each backend has its
	// own default.
	Path string `yaml:"path" env:"HBNB_PATH"`

	// Prompt is shown before each line when stdin is a terminal.
	Prompt string `yaml:"prompt" env:"HBNB_PROMPT"`

	Verbose bool `yaml:"verbose" env:"HBNB_VERBOSE"`
}

func defaultConfig() Config {
	return Config{
		Backend: backendFile,
		Prompt:  console.DefaultPrompt,
	}
}

// LoadConfig reads the config file at path, or searches for hbnb.yaml
// starting from the current directory when path is empty, and applies the
// environment on top. The result is not validated.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		dir, err := os.Getwd()
		if err == nil {
			path = findConfigFile(dir)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case backendFile, backendBadger, backendSQLite:
		return nil
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, backendFile, backendBadger, backendSQLite)
	}
}

// findConfigFile searches for hbnb.yaml walking up from dir.
func findConfigFile(dir string) string {
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		} else if !errors.Is(err, fs.ErrNotExist) {
			return ""
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
