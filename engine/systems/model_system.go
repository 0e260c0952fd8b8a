package systems

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/resources"
)

// ModelSystem uploads each model file once and hands out shared references.
// The system keeps one reference per cached model until Shutdown.
type ModelSystem struct {
	device   metadata.Device
	basePath string
	models   map[string]*resources.Model
}

func NewModelSystem(device metadata.Device, basePath string) *ModelSystem {
	return &ModelSystem{
		device:   device,
		basePath: basePath,
		models:   make(map[string]*resources.Model),
	}
}

// Acquire returns a reference to the model at path, relative to the base path.
// The caller owns the returned reference.
func (ms *ModelSystem) Acquire(path string) (*resources.Model, error) {
	if m, ok := ms.models[path]; ok {
		return m.Acquire(), nil
	}

	data, err := loaders.LoadOBJFile(filepath.Join(ms.basePath, path))
	if err != nil {
		return nil, err
	}
	m, err := ms.Create(path, data.Vertices, data.Indices)
	if err != nil {
		return nil, err
	}
	core.LogDebug("loaded model '%s': %d vertices, %d indices", path, len(data.Vertices), len(data.Indices))
	return m, nil
}

// Create uploads geometry under name, replacing nothing. Indices may be empty.
func (ms *ModelSystem) Create(name string, vertices []metadata.Vertex, indices []uint32) (*resources.Model, error) {
	if _, ok := ms.models[name]; ok {
		return nil, errors.Newf("model '%s' already exists", name)
	}
	geometry, err := ms.device.CreateGeometry(vertices, indices)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upload model '%s'", name)
	}
	m := resources.NewModel(name, geometry)
	ms.models[name] = m
	return m.Acquire(), nil
}

// Preload parses the given model files on a pool of workers and uploads them in
// order. Already cached paths are skipped. The cache keeps the only reference to
// each preloaded model; later Acquire calls hand out shared ones.
func (ms *ModelSystem) Preload(paths []string, workers int) error {
	pending := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, ok := ms.models[p]; ok {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pending = append(pending, p)
	}
	if len(pending) == 0 {
		return nil
	}

	jobs, err := NewJobSystem(min(workers, len(pending)), len(pending))
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		parsed = make(map[string]*loaders.ModelData, len(pending))
		errs   error
	)
	for _, p := range pending {
		jobs.Submit(JobTask{
			Name: p,
			Run: func() error {
				data, err := loaders.LoadOBJFile(filepath.Join(ms.basePath, p))
				if err != nil {
					return err
				}
				mu.Lock()
				parsed[p] = data
				mu.Unlock()
				return nil
			},
			OnFailure: func(err error) {
				mu.Lock()
				errs = errors.CombineErrors(errs, err)
				mu.Unlock()
			},
		})
	}
	if err := jobs.Shutdown(); err != nil {
		return err
	}
	if errs != nil {
		return errs
	}

	// GPU uploads stay on the calling goroutine.
	for _, p := range pending {
		data := parsed[p]
		m, err := ms.Create(p, data.Vertices, data.Indices)
		if err != nil {
			return err
		}
		m.Release()
	}
	core.LogDebug("preloaded %d models with %d workers", len(pending), workers)
	return nil
}

func (ms *ModelSystem) Len() int {
	return len(ms.models)
}

// Shutdown drops the cache references. Geometry still held by game objects
// lives until they release it.
func (ms *ModelSystem) Shutdown() error {
	for name, m := range ms.models {
		m.Release()
		delete(ms.models, name)
	}
	return nil
}
