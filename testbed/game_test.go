package testbed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
	"github.com/spaghettifunk/lumen/engine/scene"
	"github.com/spaghettifunk/lumen/engine/systems"
)

const quadOBJ = `o quad
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
vn 0 -1 0
f 1//1 2//1 3//1 4//1
`

func TestInitializeBuildsSceneFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "quad.obj"), []byte(quadOBJ), 0o644))

	cfg := config.Default()
	cfg.Objects = []config.ObjectConfig{
		{Name: "a", Model: "models/quad.obj", Translation: [3]float32{1, 2, 3}},
		{Name: "b", Model: "models/quad.obj", Scale: [3]float32{2, 2, 2}},
	}

	device := rendertest.NewDevice()
	models := systems.NewModelSystem(device, dir)
	objects := scene.New(nil)

	g := NewTestGame(cfg, "")
	require.NoError(t, g.FnInitialize(objects, models))

	assert.Equal(t, len(cfg.Objects)+len(cfg.Lights), objects.Len())
	assert.Len(t, objects.PointLights(), len(cfg.Lights))
	assert.Len(t, device.Geometries, 1, "both objects share one upload")

	var withModel []*scene.GameObject
	objects.Each(func(obj *scene.GameObject) {
		if obj.Model != nil {
			withModel = append(withModel, obj)
		}
	})
	require.Len(t, withModel, 2)
	assert.Equal(t, float32(3), withModel[0].Transform.Translation.Z())
	assert.Equal(t, float32(1), withModel[0].Transform.Scale.X(), "zero scale keeps the default")
	assert.Equal(t, float32(2), withModel[1].Transform.Scale.X())
	assert.EqualValues(t, 3, withModel[0].Model.RefCount())

	require.NoError(t, models.Shutdown())
	objects.Destroy()
	assert.True(t, device.Geometries[0].Destroyed)
}

func TestInitializeFailsOnMissingModel(t *testing.T) {
	cfg := config.Default()
	cfg.Objects = []config.ObjectConfig{{Name: "ghost", Model: "models/none.obj"}}

	g := NewTestGame(cfg, "")
	err := g.FnInitialize(scene.New(nil), systems.NewModelSystem(rendertest.NewDevice(), t.TempDir()))
	assert.Error(t, err)
}
