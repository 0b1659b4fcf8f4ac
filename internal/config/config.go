// Package config handles viewer and renderer configuration loading.
package config

// Config holds all renderer settings.
type Config struct {
	Graphics    GraphicsConfig   `yaml:"graphics"`
	Lighting    LightingConfig   `yaml:"lighting"`
	Shadows     ShadowConfig     `yaml:"shadows"`
	Scene       SceneConfig      `yaml:"scene"`
	Logging     LoggingConfig    `yaml:"logging"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
}

// GraphicsConfig holds display and output settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	Exposure   float32 `yaml:"exposure"`
	Gamma      float32 `yaml:"gamma"`
}

// LightingConfig holds image-based lighting settings.
type LightingConfig struct {
	EnvironmentMap  string  `yaml:"environment_map"`  // Equirectangular Radiance .hdr file
	FastIrradiance  bool    `yaml:"fast_irradiance"`  // Fewer convolution samples
	IrradianceSize  int32   `yaml:"irradiance_size"`  // Face size, 8..32
	AmbientStrength float32 `yaml:"ambient_strength"` // IBL contribution multiplier
}

// ShadowConfig holds shadow map sizes and projection volumes.
type ShadowConfig struct {
	DirectionalResolution int32   `yaml:"directional_resolution"`
	DirectionalExtent     float32 `yaml:"directional_extent"` // Ortho half-extent
	DirectionalNear       float32 `yaml:"directional_near"`
	DirectionalFar        float32 `yaml:"directional_far"`

	PointResolution int32   `yaml:"point_resolution"` // Cube face size
	PointNear       float32 `yaml:"point_near"`
	PointFar        float32 `yaml:"point_far"`

	SpotResolution int32   `yaml:"spot_resolution"`
	SpotExtent     float32 `yaml:"spot_extent"`
	SpotNear       float32 `yaml:"spot_near"`
	SpotFar        float32 `yaml:"spot_far"`
}

// SceneConfig controls the demo scene built by the viewer.
type SceneConfig struct {
	GridSize int     `yaml:"grid_size"` // Entities per side
	Spacing  float32 `yaml:"spacing"`
	Animate  bool    `yaml:"animate"` // Attach movement/rotation controllers

	// Texture files for the ground material. Empty paths keep the slot
	// scalar-backed.
	GroundAlbedo    string `yaml:"ground_albedo"`
	GroundNormal    string `yaml:"ground_normal"`
	GroundRoughness string `yaml:"ground_roughness"`
	GroundAO        string `yaml:"ground_ao"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ScreenshotConfig holds screenshot output settings.
type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:    1600,
			Height:   900,
			VSync:    true,
			Exposure: 1.0,
			Gamma:    2.2,
		},
		Lighting: LightingConfig{
			EnvironmentMap:  "assets/env/studio.hdr",
			FastIrradiance:  false,
			IrradianceSize:  32,
			AmbientStrength: 1.0,
		},
		Shadows: ShadowConfig{
			DirectionalResolution: 2048,
			DirectionalExtent:     20,
			DirectionalNear:       1,
			DirectionalFar:        50,
			PointResolution:       1024,
			PointNear:             0.1,
			PointFar:              25,
			SpotResolution:        1024,
			SpotExtent:            10,
			SpotNear:              0.5,
			SpotFar:               50,
		},
		Scene: SceneConfig{
			GridSize: 8,
			Spacing:  2.5,
			Animate:  true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Screenshots: ScreenshotConfig{
			Dir: "screenshots",
		},
	}
}

// Validate clamps values the renderer cannot honor.
func (c *Config) Validate() {
	if c.Lighting.IrradianceSize < 8 {
		c.Lighting.IrradianceSize = 8
	}
	if c.Lighting.IrradianceSize > 32 {
		c.Lighting.IrradianceSize = 32
	}
	if c.Graphics.Width < 1 {
		c.Graphics.Width = 1
	}
	if c.Graphics.Height < 1 {
		c.Graphics.Height = 1
	}
	if c.Graphics.Gamma <= 0 {
		c.Graphics.Gamma = 2.2
	}
	if c.Scene.GridSize < 0 {
		c.Scene.GridSize = 0
	}
}
