package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultConfigFile = "config.toml"

// Config is the service configuration. Values come from an optional TOML
// file and are then overridden by environment variables.
type Config struct {
	Port       string    `toml:"port"`
	PuzzlesDir string    `toml:"puzzles_dir"`
	LogLevel   string    `toml:"log_level"`
	GCP        GCPConfig `toml:"gcp"`
}

// GCPConfig enables Gemini clue writing when ProjectID is set.
type GCPConfig struct {
	ProjectID string `toml:"project_id"`
	Region    string `toml:"region"`
}

// LoadConfig reads filename if it exists and applies environment overrides.
func LoadConfig(filename string) (Config, error) {
	cfg := Config{
		Port:     "8080",
		LogLevel: "info",
	}

	md, err := toml.DecodeFile(filename, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", filename, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, fmt.Errorf("config %s: unknown keys %v", filename, undecoded)
		}
	}

	override(&cfg.Port, "PORT")
	override(&cfg.PuzzlesDir, "PUZZLES_DIR")
	override(&cfg.LogLevel, "LOG_LEVEL")
	override(&cfg.GCP.ProjectID, "GCP_PROJECT_ID")
	override(&cfg.GCP.Region, "GCP_REGION")
	return cfg, nil
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	return defaultConfigFile
}
