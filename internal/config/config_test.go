package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1600 {
		t.Errorf("expected width 1600, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}

	if cfg.Lighting.IrradianceSize != 32 {
		t.Errorf("expected irradiance size 32, got %d", cfg.Lighting.IrradianceSize)
	}
	if cfg.Lighting.FastIrradiance {
		t.Error("expected fast_irradiance to be false by default")
	}

	if cfg.Shadows.DirectionalResolution != 2048 {
		t.Errorf("expected directional resolution 2048, got %d", cfg.Shadows.DirectionalResolution)
	}
	if cfg.Shadows.DirectionalNear >= cfg.Shadows.DirectionalFar {
		t.Errorf("directional near %f must be below far %f", cfg.Shadows.DirectionalNear, cfg.Shadows.DirectionalFar)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radiance.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true
  vsync: false
  exposure: 1.5

lighting:
  environment_map: "sky/noon.hdr"
  fast_irradiance: true
  irradiance_size: 16

shadows:
  directional_extent: 40
  point_far: 60

logging:
  level: "debug"
  log_file: "radiance.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.Fullscreen {
		t.Error("expected fullscreen to be true")
	}
	if cfg.Graphics.Exposure != 1.5 {
		t.Errorf("expected exposure 1.5, got %f", cfg.Graphics.Exposure)
	}
	if want := filepath.Join(filepath.Dir(configPath), "sky", "noon.hdr"); cfg.Lighting.EnvironmentMap != want {
		t.Errorf("expected environment map %s, got %s", want, cfg.Lighting.EnvironmentMap)
	}
	if !cfg.Lighting.FastIrradiance {
		t.Error("expected fast_irradiance to be true")
	}
	if cfg.Lighting.IrradianceSize != 16 {
		t.Errorf("expected irradiance size 16, got %d", cfg.Lighting.IrradianceSize)
	}
	if cfg.Shadows.DirectionalExtent != 40 {
		t.Errorf("expected directional extent 40, got %f", cfg.Shadows.DirectionalExtent)
	}
	// Unset keys keep their defaults.
	if cfg.Shadows.DirectionalResolution != 2048 {
		t.Errorf("expected default directional resolution 2048, got %d", cfg.Shadows.DirectionalResolution)
	}
	if cfg.Logging.LogFile != "radiance.log" {
		t.Errorf("expected log file 'radiance.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radiance.yaml")
	if err := os.WriteFile(configPath, []byte("shadows:\n  directional_resolutoin: 4096\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	err := loadFromFile(Default(), configPath)
	if err == nil {
		t.Fatal("expected error for misspelled key, got nil")
	}
	if !strings.Contains(err.Error(), "directional_resolutoin") {
		t.Errorf("expected error to name the key, got %v", err)
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radiance.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("expected empty file to load, got %v", err)
	}
	if cfg.Graphics.Width != 1600 {
		t.Errorf("expected default width, got %d", cfg.Graphics.Width)
	}
}

func TestLoadFromFileAssetPaths(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "radiance.yaml")
	abs := filepath.Join(dir, "abs", "albedo.png")

	yamlContent := "scene:\n  ground_albedo: " + abs + "\n  ground_normal: tex/normal.png\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Scene.GroundAlbedo != abs {
		t.Errorf("expected absolute path kept, got %s", cfg.Scene.GroundAlbedo)
	}
	if want := filepath.Join(dir, "tex", "normal.png"); cfg.Scene.GroundNormal != want {
		t.Errorf("expected %s, got %s", want, cfg.Scene.GroundNormal)
	}
	// Defaults the file leaves alone stay relative to the working directory.
	if cfg.Lighting.EnvironmentMap != Default().Lighting.EnvironmentMap {
		t.Errorf("expected default environment map, got %s", cfg.Lighting.EnvironmentMap)
	}
	if cfg.Scene.GroundRoughness != "" {
		t.Errorf("expected empty roughness path, got %s", cfg.Scene.GroundRoughness)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(configPath, []byte("graphics:\n  height: 600\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(EnvConfig, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Graphics.Height != 600 {
		t.Errorf("expected height 600 from %s, got %d", EnvConfig, cfg.Graphics.Height)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/radiance.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidateClampsIrradiance(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{in: 2, want: 8},
		{in: 8, want: 8},
		{in: 20, want: 20},
		{in: 64, want: 32},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Lighting.IrradianceSize = tt.in
		cfg.Validate()
		if cfg.Lighting.IrradianceSize != tt.want {
			t.Errorf("irradiance size %d: got %d, want %d", tt.in, cfg.Lighting.IrradianceSize, tt.want)
		}
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "radiance.yaml")

	cfg := Default()
	cfg.Lighting.FastIrradiance = true
	cfg.Shadows.SpotExtent = 12
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if !loaded.Lighting.FastIrradiance {
		t.Error("fast_irradiance lost on save")
	}
	if loaded.Shadows.SpotExtent != 12 {
		t.Errorf("spot extent: got %f, want 12", loaded.Shadows.SpotExtent)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "radiance.yaml"), []byte("graphics:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find radiance.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name:  "environment flag",
			setup: func() { *flagEnv = "/tmp/dusk.hdr" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Lighting.EnvironmentMap != "/tmp/dusk.hdr" {
					t.Errorf("expected environment map /tmp/dusk.hdr, got %s", cfg.Lighting.EnvironmentMap)
				}
			},
			teardown: func() { *flagEnv = "" },
		},
		{
			name:  "fast irradiance flag",
			setup: func() { *flagFastIrradiance = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Lighting.FastIrradiance {
					t.Error("expected fast irradiance with flag")
				}
			},
			teardown: func() { *flagFastIrradiance = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "radiance.yaml")

	yamlContent := `
graphics:
  width: 1280
  height: 720
lighting:
  irradiance_size: 99
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720 from file, got %d", cfg.Graphics.Height)
	}
	if cfg.Lighting.IrradianceSize != 32 {
		t.Errorf("expected irradiance size clamped to 32, got %d", cfg.Lighting.IrradianceSize)
	}
}
