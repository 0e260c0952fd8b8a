package assets

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

type AssetType int

const (
	ASSET_TYPE_NONE AssetType = iota
	ASSET_TYPE_MODEL
	ASSET_TYPE_SHADER
	ASSET_TYPE_CONFIG
)

func (t AssetType) String() string {
	switch t {
	case ASSET_TYPE_MODEL:
		return "model"
	case ASSET_TYPE_SHADER:
		return "shader"
	case ASSET_TYPE_CONFIG:
		return "config"
	default:
		return "none"
	}
}

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

// Change describes a watched asset that was created, written or removed.
type Change struct {
	Path    string
	Type    AssetType
	Removed bool
}

// Size of the change queue. Changes beyond it are dropped until the frame loop drains.
const changeQueueSize = 64

// AssetManager indexes the asset directory and watches it for changes. The watcher
// runs on its own goroutine; consumers read Events from the frame loop.
type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
	events   chan Change
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		events:   make(chan Change, changeQueueSize),
		done:     make(chan struct{}),
	}
	am.registerLoader(ASSET_TYPE_MODEL, &loaders.ModelLoader{})
	am.registerLoader(ASSET_TYPE_SHADER, &loaders.ShaderLoader{})
	return am, nil
}

// Initialize indexes assetsDir and starts watching it recursively.
func (am *AssetManager) Initialize(assetsDir string) error {
	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}
	am.started = true
	am.wg.Add(1)
	go am.start()
	core.LogInfo("watching assets in %s (%d files)", assetsDir, am.Len())
	return nil
}

// Events delivers asset changes. The channel is closed by Shutdown.
func (am *AssetManager) Events() <-chan Change {
	return am.events
}

// Drain returns every queued change without blocking.
func (am *AssetManager) Drain() []Change {
	var changes []Change
	for {
		select {
		case c, ok := <-am.events:
			if !ok {
				return changes
			}
			changes = append(changes, c)
		default:
			return changes
		}
	}
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if !am.started {
		close(am.events)
		return am.fsnotify.Close()
	}
	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name, false)
}

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Get returns the index entry for path.
func (am *AssetManager) Get(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[filepath.Clean(path)]
	return asset, ok
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// LoadAsset loads an indexed asset with the loader registered for its type.
func (am *AssetManager) LoadAsset(path string) (interface{}, error) {
	path = filepath.Clean(path)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, errors.Newf("asset not found: %s", path)
	}

	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil, errors.Newf("no loader registered for %s asset %s", asset.Type, path)
	}
	return loader.Load(path)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("file watcher: %s", err)

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogError("failed to close file watcher: %s", err)
			}
			close(am.events)
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	path := filepath.Clean(e.Name)
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(path); err == nil && s.IsDir() {
			if err := am.watchRecursive(path, false); err != nil {
				core.LogError("failed to watch %s: %s", path, err)
			}
			return
		}
	}
	switch {
	case e.Has(fsnotify.Create) || e.Has(fsnotify.Write):
		if assetType := am.handleFileEvent(path); assetType != ASSET_TYPE_NONE {
			am.publish(Change{Path: path, Type: assetType})
		}
	case e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename):
		if assetType := am.removeAsset(path); assetType != ASSET_TYPE_NONE {
			am.publish(Change{Path: path, Type: assetType, Removed: true})
		}
	}
}

func (am *AssetManager) publish(c Change) {
	select {
	case am.events <- c:
	default:
		core.LogWarn("asset change queue full, dropping change to %s", c.Path)
	}
}

// watchRecursive adds (or removes) every directory under path and indexes its files.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(filepath.Clean(walkPath))
		return nil
	})
}

// handleFileEvent indexes path and returns its type, or ASSET_TYPE_NONE when ignored.
func (am *AssetManager) handleFileEvent(path string) AssetType {
	assetType := determineAssetType(path)
	if assetType == ASSET_TYPE_NONE {
		return assetType
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	return assetType
}

func (am *AssetManager) removeAsset(path string) AssetType {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	asset, ok := am.assets[path]
	if !ok {
		return ASSET_TYPE_NONE
	}
	delete(am.assets, path)
	return asset.Type
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".obj":
		return ASSET_TYPE_MODEL
	case ".spv", ".vert", ".frag":
		return ASSET_TYPE_SHADER
	case ".toml":
		return ASSET_TYPE_CONFIG
	default:
		return ASSET_TYPE_NONE
	}
}
