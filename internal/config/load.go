package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable consulted for a config path when
// --config is not given.
const EnvConfig = "RADIANCE_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)
	cfg.Validate()

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./radiance.yaml",
		filepath.Join(ConfigDir(), "radiance.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Radiance")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Radiance")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "radiance")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "radiance")
	}
}

// assetPaths returns the file references a config file may set.
func assetPaths(cfg *Config) []*string {
	return []*string{
		&cfg.Lighting.EnvironmentMap,
		&cfg.Scene.GroundAlbedo,
		&cfg.Scene.GroundNormal,
		&cfg.Scene.GroundRoughness,
		&cfg.Scene.GroundAO,
	}
}

// loadFromFile merges a YAML file into cfg. Unknown keys are rejected so a
// misspelled option fails loudly. Relative asset paths set by the file are
// taken relative to the file's directory; defaults stay relative to the
// working directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	paths := assetPaths(cfg)
	before := make([]string, len(paths))
	for i, p := range paths {
		before[i] = *p
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	dir := filepath.Dir(path)
	for i, p := range paths {
		if *p != before[i] && *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return nil
}
