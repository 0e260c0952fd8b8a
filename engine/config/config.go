package config

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// The application name used in windowing.
	Name string `toml:"name"`
	// Window starting width.
	Width uint32 `toml:"width"`
	// Window starting height.
	Height    uint32 `toml:"height"`
	LogLevel  string `toml:"log_level"`
	AssetsDir string `toml:"assets_dir"`
}

type RendererConfig struct {
	ClearColor        [4]float32 `toml:"clear_color"`
	Validation        bool       `toml:"validation"`
	MaxFramesInFlight uint32     `toml:"max_frames_in_flight"`
	ShadersDir        string     `toml:"shaders_dir"`
}

type CameraConfig struct {
	FovDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
	StartZ     float32 `toml:"start_z"`
	MoveSpeed  float32 `toml:"move_speed"`
	LookSpeed  float32 `toml:"look_speed"`
}

type LightingConfig struct {
	// rgb plus intensity
	AmbientColor [4]float32 `toml:"ambient_color"`
	// radians per second around the vertical axis
	RotationRate float32 `toml:"rotation_rate"`
}

type ObjectConfig struct {
	Name        string     `toml:"name"`
	Model       string     `toml:"model"`
	Translation [3]float32 `toml:"translation"`
	Rotation    [3]float32 `toml:"rotation"`
	Scale       [3]float32 `toml:"scale"`
	Color       [3]float32 `toml:"color"`
}

type LightConfig struct {
	Intensity   float32    `toml:"intensity"`
	Radius      float32    `toml:"radius"`
	Color       [3]float32 `toml:"color"`
	Translation [3]float32 `toml:"translation"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Camera      CameraConfig      `toml:"camera"`
	Lighting    LightingConfig    `toml:"lighting"`
	Objects     []ObjectConfig    `toml:"objects"`
	Lights      []LightConfig     `toml:"lights"`
}

// Load reads and validates the file at path. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	// a file that lists objects or lights replaces the default scene
	cfg.Objects = nil
	cfg.Lights = nil

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, errors.Wrapf(err, "line %d column %d", row, col)
		}
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if cfg.Objects == nil && cfg.Lights == nil {
		defaults := Default()
		cfg.Objects = defaults.Objects
		cfg.Lights = defaults.Lights
	}
	for i := range cfg.Lights {
		if cfg.Lights[i].Radius == 0 {
			cfg.Lights[i].Radius = DefaultLightRadius
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLighting reads only the lighting section from path, for hot reload.
func LoadLighting(path string) (LightingConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return LightingConfig{}, err
	}
	return cfg.Lighting, nil
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return errors.Newf("window size %dx%d must be positive", c.Application.Width, c.Application.Height)
	}
	if n := c.Renderer.MaxFramesInFlight; n < 1 || n > 3 {
		return errors.Newf("max_frames_in_flight %d outside [1, 3]", n)
	}
	if len(c.Lights) > metadata.MAX_LIGHTS {
		return errors.Newf("%d lights configured, at most %d supported", len(c.Lights), metadata.MAX_LIGHTS)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return errors.Newf("camera clip range [%g, %g] is invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		return errors.Newf("camera fov %g must be within (0, 180)", c.Camera.FovDegrees)
	}
	for i, o := range c.Objects {
		if o.Model == "" {
			return errors.Newf("object %d (%s) has no model", i, o.Name)
		}
	}
	return nil
}
