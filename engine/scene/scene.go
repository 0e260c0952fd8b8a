package scene

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/core"
)

// Scene owns the game objects, keyed by id and iterated in ascending id order.
// It is not safe for concurrent use; the frame loop is its only writer.
type Scene struct {
	factory *Factory
	objects map[ID]*GameObject
	order   []ID
}

// New creates an empty scene. Objects are minted by the given factory, or by a
// private one when factory is nil.
func New(factory *Factory) *Scene {
	if factory == nil {
		factory = NewFactory()
	}
	return &Scene{
		factory: factory,
		objects: make(map[ID]*GameObject),
	}
}

func (s *Scene) Factory() *Factory {
	return s.factory
}

// Add takes ownership of obj, including its model reference.
func (s *Scene) Add(obj *GameObject) error {
	if obj == nil {
		return core.Precondition("cannot add a nil game object")
	}
	if _, ok := s.objects[obj.id]; ok {
		return errors.Wrapf(core.ErrDuplicateObject, "game object %d", obj.id)
	}
	s.objects[obj.id] = obj
	// Ids grow monotonically so appending keeps the order sorted in the common case.
	i, _ := slices.BinarySearch(s.order, obj.id)
	s.order = slices.Insert(s.order, i, obj.id)
	return nil
}

// CreateObject mints an object and adds it to the scene. Ids already taken by
// objects from other factories are skipped.
func (s *Scene) CreateObject() *GameObject {
	o := s.factory.CreateObject()
	for s.has(o.id) {
		o = s.factory.CreateObject()
	}
	if err := s.Add(o); err != nil {
		// unreachable: o is non-nil and its id is free
		panic(err)
	}
	return o
}

func (s *Scene) has(id ID) bool {
	_, ok := s.objects[id]
	return ok
}

func (s *Scene) Get(id ID) (*GameObject, bool) {
	o, ok := s.objects[id]
	return o, ok
}

func (s *Scene) Len() int {
	return len(s.objects)
}

// Each calls fn for every object in ascending id order.
func (s *Scene) Each(fn func(obj *GameObject)) {
	for _, id := range s.order {
		fn(s.objects[id])
	}
}

// PointLights returns the light-bearing objects in ascending id order.
func (s *Scene) PointLights() []*GameObject {
	var lights []*GameObject
	s.Each(func(obj *GameObject) {
		if obj.PointLight != nil {
			lights = append(lights, obj)
		}
	})
	return lights
}

// Destroy drops every object and releases their model references.
func (s *Scene) Destroy() {
	s.Each(func(obj *GameObject) {
		if obj.Model != nil {
			obj.Model.Release()
			obj.Model = nil
		}
	})
	s.objects = make(map[ID]*GameObject)
	s.order = nil
}
