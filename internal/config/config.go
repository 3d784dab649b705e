// Package config loads the larder configuration file and supplies defaults
// for everything it omits.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields Larder needs to talk to a pantry service and
// drive the detail page.
type Config struct {
	APIBind               string
	DefaultLang           string
	DisplayDelay          time.Duration
	EnforceRequiredFields bool
	RequiredNutrients     []string
	RequiredImages        []string
	Debug                 bool
	LogDir                string
}

const (
	defaultConfigPath   = "~/.config/larder/config.toml"
	defaultLogDir       = "~/.local/share/larder"
	defaultAPIBind      = "127.0.0.1:8420"
	defaultLang         = "en"
	defaultDisplayDelay = time.Second
)

func defaultRequiredNutrients() []string {
	return []string{"energy-kcal", "fat", "carbohydrates", "proteins"}
}

func defaultRequiredImages() []string {
	return []string{"front", "nutrition"}
}

// Load locates and parses the larder config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBind:               defaultAPIBind,
		DefaultLang:           defaultLang,
		DisplayDelay:          defaultDisplayDelay,
		EnforceRequiredFields: true,
		RequiredNutrients:     defaultRequiredNutrients(),
		RequiredImages:        defaultRequiredImages(),
		LogDir:                mustExpand(defaultLogDir),
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBind             string   `toml:"api_bind"`
		DefaultLang         string   `toml:"default_lang"`
		DisplayDelaySeconds *float64 `toml:"display_delay_seconds"`
		EnforceRequired     *bool    `toml:"enforce_required_fields"`
		RequiredNutrients   []string `toml:"required_nutrients"`
		RequiredImages      []string `toml:"required_images"`
		Debug               bool     `toml:"debug"`
		LogDir              string   `toml:"log_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if bind := strings.TrimSpace(raw.APIBind); bind != "" {
		cfg.APIBind = bind
	}
	if lang := strings.TrimSpace(raw.DefaultLang); lang != "" {
		cfg.DefaultLang = lang
	}
	if raw.DisplayDelaySeconds != nil && *raw.DisplayDelaySeconds >= 0 {
		cfg.DisplayDelay = time.Duration(*raw.DisplayDelaySeconds * float64(time.Second))
	}
	if raw.EnforceRequired != nil {
		cfg.EnforceRequiredFields = *raw.EnforceRequired
	}
	if len(raw.RequiredNutrients) > 0 {
		cfg.RequiredNutrients = raw.RequiredNutrients
	}
	if len(raw.RequiredImages) > 0 {
		cfg.RequiredImages = raw.RequiredImages
	}
	cfg.Debug = raw.Debug
	if dir := strings.TrimSpace(raw.LogDir); dir != "" {
		cfg.LogDir = mustExpand(dir)
	}

	return cfg, nil
}

// LogPath returns the path of the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/larder.log")
	}
	return filepath.Join(c.LogDir, "larder.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
