package engine

import (
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/platform"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/vulkan"
	"github.com/spaghettifunk/lumen/engine/scene"
	"github.com/spaghettifunk/lumen/engine/systems"
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool

	platform      *platform.Platform
	backend       renderer.RendererBackend
	frameRenderer *renderer.FrameRenderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager

	objects    *scene.Scene
	viewer     *scene.GameObject
	camera     *components.Camera
	controller *systems.KeyboardMovementController

	clock   *core.Clock
	metrics *core.Metrics
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.Config == nil {
		return nil, core.Precondition("a game with a config is required")
	}
	p := platform.New()

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		platform:     p,
		backend:      vulkan.New(p, g.Config.Renderer.MaxFramesInFlight),
		assetManager: am,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return core.Precondition("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	cfg := e.gameInstance.Config

	if !core.EventSystemInitialize() {
		return errors.New("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)

	if err := e.platform.Startup(cfg.Application.Name, cfg.Application.Width, cfg.Application.Height); err != nil {
		return err
	}
	if err := e.backend.Initialize(cfg.Application.Name, cfg.Renderer.Validation); err != nil {
		return errors.Wrap(err, "failed to initialize the renderer backend")
	}
	if err := e.assetManager.Initialize(cfg.Application.AssetsDir); err != nil {
		return err
	}

	clear := metadata.ClearValues{
		Color: mgl32.Vec4(cfg.Renderer.ClearColor),
		Depth: 1.0,
	}
	fr, err := renderer.NewFrameRenderer(e.platform, e.backend, cfg.Renderer.MaxFramesInFlight, clear)
	if err != nil {
		return err
	}
	e.frameRenderer = fr

	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		ShadersDir:   cfg.Renderer.ShadersDir,
		ModelsDir:    cfg.Application.AssetsDir,
		RotationRate: cfg.Lighting.RotationRate,
		AmbientColor: mgl32.Vec4(cfg.Lighting.AmbientColor),
	}, e.backend, fr)
	if err != nil {
		return err
	}
	e.systemManager = sm

	e.objects = scene.New(scene.NewFactory())
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.objects, sm.ModelSystem); err != nil {
			return errors.Wrap(err, "failed to initialize game")
		}
	}

	// The viewer drives the camera and is not part of the drawn scene.
	e.camera = components.NewCamera()
	e.viewer = e.objects.Factory().CreateObject()
	e.viewer.Transform.Translation = mgl32.Vec3{0, 0, cfg.Camera.StartZ}
	e.controller = systems.NewKeyboardMovementController(cfg.Camera.MoveSpeed, cfg.Camera.LookSpeed)

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized with %d game objects", e.objects.Len())
	return nil
}

// Run drives the frame loop until the window closes or a quit event arrives.
// Any error out of a frame stops the loop; the frame it came from is not submitted.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.Precondition("engine must be initialized before running, stage is %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning
	cfg := e.gameInstance.Config

	e.isRunning.Store(true)
	e.clock.Start()
	for e.isRunning.Load() && !e.platform.ShouldClose() {
		e.platform.PollEvents()
		e.processAssetChanges()

		frameTime := e.clock.Tick()

		e.controller.MoveInPlaneXZ(e.platform, frameTime, e.viewer)
		e.camera.SetViewYXZ(e.viewer.Transform.Translation, e.viewer.Transform.Rotation)
		aspect := e.frameRenderer.AspectRatio()
		if err := e.camera.SetPerspectiveProjection(math.DegToRad(cfg.Camera.FovDegrees), aspect, cfg.Camera.Near, cfg.Camera.Far); err != nil {
			return err
		}

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(e.objects, frameTime); err != nil {
				return errors.Wrap(err, "game update failed")
			}
		}

		if _, err := e.systemManager.DrawFrame(e.objects, e.camera, frameTime); err != nil {
			if errors.Is(err, core.ErrWindowClosed) {
				core.LogInfo("window closed while minimized")
				break
			}
			return err
		}

		if e.metrics.Update(float64(frameTime)) {
			fps, ms := e.metrics.Frame()
			core.LogDebug("%.0f fps, %.2f ms/frame", fps, ms)
		}

		// Input state is copied last so this frame saw every key it received.
		e.platform.Input.Update()
	}
	e.clock.Stop()

	return e.backend.WaitIdle()
}

// Shutdown releases everything in reverse order of creation. It is safe to call
// after a failed Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs error
	if e.frameRenderer != nil {
		if err := e.backend.WaitIdle(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	if e.gameInstance.FnShutdown != nil {
		errs = errors.CombineErrors(errs, e.gameInstance.FnShutdown())
	}
	if e.systemManager != nil {
		errs = errors.CombineErrors(errs, e.systemManager.Shutdown())
	}
	if e.objects != nil {
		e.objects.Destroy()
	}
	if e.frameRenderer != nil {
		e.frameRenderer.Destroy()
	}
	errs = errors.CombineErrors(errs, e.backend.Shutdown())
	errs = errors.CombineErrors(errs, e.assetManager.Shutdown())
	if e.platform.Window != nil {
		errs = errors.CombineErrors(errs, e.platform.Shutdown())
	}
	core.EventSystemShutdown()

	e.currentStage = EngineStageShutdown
	return errs
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

// processAssetChanges applies lighting edits made to the running config file.
// Other asset types are only reported.
func (e *Engine) processAssetChanges() {
	for _, c := range e.assetManager.Drain() {
		if c.Type != assets.ASSET_TYPE_CONFIG || c.Removed || !samePath(c.Path, e.gameInstance.ConfigPath) {
			core.LogDebug("%s asset %s changed, restart to apply", c.Type, c.Path)
			continue
		}
		lighting, err := config.LoadLighting(e.gameInstance.ConfigPath)
		if err != nil {
			core.LogWarn("ignoring config change: %s", err)
			continue
		}
		e.gameInstance.Config.Lighting = lighting
		e.systemManager.SetAmbientColor(mgl32.Vec4(lighting.AmbientColor))
		e.systemManager.PointLightSystem.SetRotationRate(lighting.RotationRate)
		core.LogInfo("lighting reloaded from %s", c.Path)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func (e *Engine) onEvent(context core.EventContext) {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
	}
}

func (e *Engine) onKey(context core.EventContext) {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EventContext{
			Type: core.EVENT_CODE_APPLICATION_QUIT,
		})
	}
}

func (e *Engine) onResized(context core.EventContext) {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return
	}
	if se.WindowWidth == 0 || se.WindowHeight == 0 {
		core.LogInfo("Window minimized, rendering paused.")
		return
	}
	core.LogDebug("Window resize: %d, %d", se.WindowWidth, se.WindowHeight)
}
