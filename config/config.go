// Package config loads the demo configuration from YAML or TOML and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("config: unsupported file format")

type Config struct {
	Title     string `yaml:"title" toml:"title" env:"NODEBRIDGE_TITLE"`
	Width     int    `yaml:"width" toml:"width" env:"NODEBRIDGE_WIDTH"`
	Height    int    `yaml:"height" toml:"height" env:"NODEBRIDGE_HEIGHT"`
	SceneDir  string `yaml:"scene_dir" toml:"scene_dir" env:"NODEBRIDGE_SCENE_DIR"`
	Scene     string `yaml:"scene" toml:"scene" env:"NODEBRIDGE_SCENE"`
	LogLevel  string `yaml:"log_level" toml:"log_level" env:"NODEBRIDGE_LOG_LEVEL"`
	Watch     bool   `yaml:"watch" toml:"watch" env:"NODEBRIDGE_WATCH"`
	Debug     bool   `yaml:"debug" toml:"debug" env:"NODEBRIDGE_DEBUG"`
	TTLFrames int    `yaml:"ttl_frames" toml:"ttl_frames" env:"NODEBRIDGE_TTL_FRAMES"`
}

func Default() Config {
	return Config{
		Title:     "nodebridge",
		Width:     1280,
		Height:    720,
		SceneDir:  "scenefile/scenes",
		Scene:     "player.yaml",
		LogLevel:  "info",
		TTLFrames: 180,
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("config: window size %dx%d must be positive", c.Width, c.Height))
	}
	if strings.TrimSpace(c.Scene) == "" {
		errs = append(errs, fmt.Errorf("config: scene is required"))
	}
	if c.TTLFrames < 0 {
		errs = append(errs, fmt.Errorf("config: ttl_frames must not be negative"))
	}
	return errors.Join(errs...)
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
		return nil
	case ".toml":
		return decodeTOML(path, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

type tomlConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	SceneDir  string `toml:"scene_dir"`
	Scene     string `toml:"scene"`
	LogLevel  string `toml:"log_level"`
	Watch     bool   `toml:"watch"`
	Debug     bool   `toml:"debug"`
	TTLFrames int    `toml:"ttl_frames"`
}

func decodeTOML(path string, cfg *Config) error {
	var raw tomlConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config: %s: unknown keys %v", path, undecoded)
	}

	if meta.IsDefined("title") {
		cfg.Title = strings.TrimSpace(raw.Title)
	}
	if meta.IsDefined("width") {
		cfg.Width = raw.Width
	}
	if meta.IsDefined("height") {
		cfg.Height = raw.Height
	}
	if meta.IsDefined("scene_dir") {
		cfg.SceneDir = strings.TrimSpace(raw.SceneDir)
	}
	if meta.IsDefined("scene") {
		cfg.Scene = strings.TrimSpace(raw.Scene)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("watch") {
		cfg.Watch = raw.Watch
	}
	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}
	if meta.IsDefined("ttl_frames") {
		cfg.TTLFrames = raw.TTLFrames
	}
	return nil
}
