// Package ui implements the ebiten-backed window, the pull-based audio
// bridge onto the APU's push-delivered samples, and keyboard input
// polling, persisting user settings as TOML.
package ui

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds window/audio/input settings persisted between runs.
type Config struct {
	Title       string
	Scale       int
	AudioStereo bool
	AudioBufferMs int
}

// Defaults fills zero-valued fields with sensible defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.AudioBufferMs <= 0 {
		c.AudioBufferMs = 40
	}
}

// DefaultConfigPath returns ~/.config/gbemu/settings.toml, falling back
// to a relative path if the user's home directory can't be resolved.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gbemu-settings.toml"
	}
	return filepath.Join(dir, "gbemu", "settings.toml")
}

// LoadConfig reads a TOML settings file, returning defaults if it does
// not exist or fails to parse.
func LoadConfig(path string) Config {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		c = Config{}
	}
	c.Defaults()
	return c
}

// SaveConfig writes c as TOML to path, creating parent directories as
// needed.
func SaveConfig(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
