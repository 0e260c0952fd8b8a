package engine

import (
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/scene"
	"github.com/spaghettifunk/lumen/engine/systems"
)

// Game plugs application code into the engine loop. Only Config is required.
type Game struct {
	Config *config.Config
	// File the config was read from. When set, lighting changes to it are
	// applied while running.
	ConfigPath string
	State      interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

// Initialize populates the scene once the renderer is up. Models acquired
// through models are owned by the objects they are assigned to.
type Initialize func(objects *scene.Scene, models *systems.ModelSystem) error

// Update runs once per frame before drawing, with the frame time in seconds.
type Update func(objects *scene.Scene, deltaTime float32) error

type Shutdown func() error
