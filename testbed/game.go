package testbed

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/scene"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	objectCount int
	lightCount  int
}

func NewTestGame(cfg *config.Config, configPath string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config:     cfg,
			ConfigPath: configPath,
			State:      &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnShutdown = tg.Shutdown
	return tg
}

// Initialize fills the scene with the configured objects and point lights.
func (g *TestGame) Initialize(objects *scene.Scene, models *systems.ModelSystem) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	paths := make([]string, 0, len(g.Config.Objects))
	for _, oc := range g.Config.Objects {
		paths = append(paths, oc.Model)
	}
	if err := models.Preload(paths, runtime.NumCPU()); err != nil {
		return errors.Wrap(err, "failed to preload models")
	}

	for _, oc := range g.Config.Objects {
		model, err := models.Acquire(oc.Model)
		if err != nil {
			return errors.Wrapf(err, "failed to load object '%s'", oc.Name)
		}
		obj := objects.CreateObject()
		obj.SetModel(model)
		obj.Color = mgl32.Vec3(oc.Color)
		obj.Transform.Translation = mgl32.Vec3(oc.Translation)
		obj.Transform.Rotation = mgl32.Vec3(oc.Rotation)
		if oc.Scale != [3]float32{} {
			obj.Transform.Scale = mgl32.Vec3(oc.Scale)
		}
		state.objectCount++
	}

	for _, lc := range g.Config.Lights {
		light := objects.Factory().CreatePointLight(lc.Intensity, lc.Radius, mgl32.Vec3(lc.Color))
		light.Transform.Translation = mgl32.Vec3(lc.Translation)
		if err := objects.Add(light); err != nil {
			return err
		}
		state.lightCount++
	}

	core.LogInfo("scene ready: %d objects, %d point lights", state.objectCount, state.lightCount)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}
