package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
)

const triangleOBJ = "o tri\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, ASSET_TYPE_MODEL, determineAssetType("models/quad.obj"))
	assert.Equal(t, ASSET_TYPE_SHADER, determineAssetType("shaders/mesh.vert.spv"))
	assert.Equal(t, ASSET_TYPE_SHADER, determineAssetType("shaders/mesh.frag"))
	assert.Equal(t, ASSET_TYPE_CONFIG, determineAssetType("lumen.toml"))
	assert.Equal(t, ASSET_TYPE_NONE, determineAssetType("README.md"))
}

func TestAssetManagerIndexesAndLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	model := filepath.Join(dir, "models", "tri.obj")
	require.NoError(t, os.WriteFile(model, []byte(triangleOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lumen.toml"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	assert.Equal(t, 2, am.Len())
	info, ok := am.Get(model)
	require.True(t, ok)
	assert.Equal(t, ASSET_TYPE_MODEL, info.Type)

	loaded, err := am.LoadAsset(model)
	require.NoError(t, err)
	data, ok := loaded.(*loaders.ModelData)
	require.True(t, ok)
	assert.Len(t, data.Vertices, 3)

	_, err = am.LoadAsset(filepath.Join(dir, "missing.obj"))
	assert.Error(t, err)
	_, err = am.LoadAsset(filepath.Join(dir, "lumen.toml"))
	assert.Error(t, err)
}

func TestAssetManagerPublishesChanges(t *testing.T) {
	dir := t.TempDir()
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	defer am.Shutdown()

	path := filepath.Join(dir, "lumen.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lighting]\n"), 0o644))

	var changes []Change
	require.Eventually(t, func() bool {
		changes = append(changes, am.Drain()...)
		return len(changes) > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, path, changes[0].Path)
	assert.Equal(t, ASSET_TYPE_CONFIG, changes[0].Type)
	assert.False(t, changes[0].Removed)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		for _, c := range am.Drain() {
			if c.Removed && c.Path == path {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	_, ok := am.Get(path)
	assert.False(t, ok)
}

func TestShutdownClosesEvents(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	require.NoError(t, am.Shutdown())
	_, open := <-am.Events()
	assert.False(t, open)
	require.NoError(t, am.Shutdown())
}
