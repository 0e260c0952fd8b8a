package config

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const (
	DefaultLightIntensity float32 = 10.0
	DefaultLightRadius    float32 = 0.1
)

var defaultLightColors = [][3]float32{
	{1, .1, .1},
	{.1, .1, 1},
	{.1, 1, .1},
	{1, 1, .1},
	{.1, 1, 1},
	{1, 1, 1},
}

// Default is the built-in scene: two vases on a floor lit by a ring of coloured lights.
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:      "Lumen",
			Width:     800,
			Height:    600,
			LogLevel:  "info",
			AssetsDir: "assets",
		},
		Renderer: RendererConfig{
			ClearColor:        [4]float32{0.01, 0.01, 0.001, 1},
			Validation:        true,
			MaxFramesInFlight: metadata.MAX_FRAMES_IN_FLIGHT,
			ShadersDir:        "shaders",
		},
		Camera: CameraConfig{
			FovDegrees: 50,
			Near:       0.1,
			Far:        250,
			StartZ:     -2.5,
			MoveSpeed:  3,
			LookSpeed:  1.5,
		},
		Lighting: LightingConfig{
			AmbientColor: [4]float32{1, 1, 1, 0.02},
			RotationRate: 0.5,
		},
		Objects: []ObjectConfig{
			{
				Name:        "flat_vase",
				Model:       "models/flat_vase.obj",
				Translation: [3]float32{-.5, .5, 0},
				Scale:       [3]float32{3, 1.5, 3},
			},
			{
				Name:        "smooth_vase",
				Model:       "models/smooth_vase.obj",
				Translation: [3]float32{.5, .5, 0},
				Scale:       [3]float32{3, 1.5, 3},
			},
			{
				Name:        "floor",
				Model:       "models/quad.obj",
				Translation: [3]float32{0, .5, 0},
				Scale:       [3]float32{3, 1, 3},
			},
		},
		Lights: ringLights(),
	}
}

// ringLights spreads the default colours evenly around the vertical axis.
func ringLights() []LightConfig {
	lights := make([]LightConfig, 0, len(defaultLightColors))
	for i, color := range defaultLightColors {
		angle := float32(i) * math.K_PI_2 / float32(len(defaultLightColors))
		rotation := mgl32.HomogRotate3D(angle, mgl32.Vec3{0, -1, 0})
		p := rotation.Mul4x1(mgl32.Vec4{-1, -1, -1, 1})
		lights = append(lights, LightConfig{
			Intensity:   DefaultLightIntensity,
			Radius:      DefaultLightRadius,
			Color:       color,
			Translation: [3]float32{p.X(), p.Y(), p.Z()},
		})
	}
	return lights
}
