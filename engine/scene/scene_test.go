package scene

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
	"github.com/spaghettifunk/lumen/engine/resources"
)

func TestFactoryIdsStrictlyIncrease(t *testing.T) {
	f := NewFactory()
	prev := f.CreateObject().ID()
	for i := 0; i < 100; i++ {
		id := f.CreateObject().ID()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestCreateObjectDefaults(t *testing.T) {
	o := NewFactory().CreateObject()
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, o.Transform.Scale)
	assert.Equal(t, mgl32.Vec3{}, o.Transform.Translation)
	assert.Nil(t, o.Model)
	assert.Nil(t, o.PointLight)
}

func TestCreatePointLight(t *testing.T) {
	o := NewFactory().CreatePointLight(10, 0.1, mgl32.Vec3{1, 0, 0})
	require.NotNil(t, o.PointLight)
	assert.Equal(t, float32(10), o.PointLight.LightIntensity)
	assert.Equal(t, float32(0.1), o.Transform.Scale.X())
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, o.Color)
}

func TestSceneIteratesInIdOrder(t *testing.T) {
	f := NewFactory()
	s := New(f)
	a := f.CreateObject()
	b := f.CreateObject()
	c := f.CreateObject()
	require.NoError(t, s.Add(c))
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))
	d := s.CreateObject()

	var ids []ID
	s.Each(func(o *GameObject) { ids = append(ids, o.ID()) })
	assert.Equal(t, []ID{a.ID(), b.ID(), c.ID(), d.ID()}, ids)
	assert.Equal(t, 4, s.Len())

	got, ok := s.Get(b.ID())
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestCreateObjectAfterForeignObjects(t *testing.T) {
	foreign := NewFactory()
	var fifth *GameObject
	for i := 0; i < 6; i++ {
		fifth = foreign.CreateObject()
	}
	require.Equal(t, ID(5), fifth.ID())

	s := New(nil)
	require.NoError(t, s.Add(fifth))
	first := s.CreateObject()
	assert.Equal(t, ID(0), first.ID())

	var ids []ID
	s.Each(func(o *GameObject) { ids = append(ids, o.ID()) })
	assert.Equal(t, []ID{0, 5}, ids)

	for i := 0; i < 5; i++ {
		s.CreateObject()
	}
	ids = ids[:0]
	s.Each(func(o *GameObject) { ids = append(ids, o.ID()) })
	assert.Equal(t, []ID{0, 1, 2, 3, 4, 5, 6}, ids)

	got, ok := s.Get(5)
	require.True(t, ok)
	assert.Same(t, fifth, got)
}

func TestSceneRejectsDuplicates(t *testing.T) {
	s := New(nil)
	o := s.Factory().CreateObject()
	require.NoError(t, s.Add(o))
	err := s.Add(o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateObject))
	assert.True(t, core.IsPrecondition(s.Add(nil)))
}

func TestScenesWithSeparateFactoriesAreIndependent(t *testing.T) {
	s1 := New(nil)
	s2 := New(nil)
	assert.Equal(t, s1.CreateObject().ID(), s2.CreateObject().ID())
}

func TestPointLightsFiltersLights(t *testing.T) {
	s := New(nil)
	s.CreateObject()
	l := s.Factory().CreatePointLight(1, 0.1, mgl32.Vec3{1, 1, 1})
	require.NoError(t, s.Add(l))
	lights := s.PointLights()
	require.Len(t, lights, 1)
	assert.Same(t, l, lights[0])
}

func TestDestroyReleasesSharedModels(t *testing.T) {
	geometry := &rendertest.Geometry{VertexCount: 3}
	model := resources.NewModel("tri", geometry)
	s := New(nil)
	a := s.CreateObject()
	a.SetModel(model)
	b := s.CreateObject()
	b.SetModel(model.Acquire())
	assert.EqualValues(t, 2, model.RefCount())

	s.Destroy()
	assert.EqualValues(t, 0, model.RefCount())
	assert.True(t, geometry.Destroyed)
	assert.Zero(t, s.Len())
}
