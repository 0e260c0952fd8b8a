package loaders

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mokiat/go-data-front/decoder/obj"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// ModelData is a de-duplicated triangle list ready for upload.
type ModelData struct {
	Name     string
	Vertices []metadata.Vertex
	Indices  []uint32
}

// DefaultVertexColor is used when the file carries no per-vertex colour.
var DefaultVertexColor = mgl32.Vec3{1, 1, 1}

type ModelLoader struct{}

func (ml *ModelLoader) Load(path string) (interface{}, error) {
	return LoadOBJFile(path)
}

func LoadOBJFile(path string) (*ModelData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model %s", path)
	}
	defer f.Close()

	data, err := LoadOBJ(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load model %s", path)
	}
	data.Name = path
	return data, nil
}

// LoadOBJ decodes a Wavefront OBJ stream. Polygons are triangulated as fans and
// identical vertices share one index.
func LoadOBJ(r io.Reader) (*ModelData, error) {
	model, err := obj.NewDecoder(obj.DefaultLimits()).Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode obj")
	}

	data := &ModelData{}
	unique := make(map[metadata.Vertex]uint32)
	for _, object := range model.Objects {
		for _, mesh := range object.Meshes {
			for _, face := range mesh.Faces {
				if len(face.References) < 3 {
					continue
				}
				corners := make([]uint32, len(face.References))
				for i, ref := range face.References {
					v := vertexFromReference(model, ref)
					index, ok := unique[v]
					if !ok {
						index = uint32(len(data.Vertices))
						unique[v] = index
						data.Vertices = append(data.Vertices, v)
					}
					corners[i] = index
				}
				for i := 1; i+1 < len(corners); i++ {
					data.Indices = append(data.Indices, corners[0], corners[i], corners[i+1])
				}
			}
		}
	}
	if len(data.Vertices) == 0 {
		return nil, errors.New("model has no faces")
	}
	return data, nil
}

func vertexFromReference(model *obj.Model, ref obj.Reference) metadata.Vertex {
	p := model.GetVertexFromReference(ref)
	v := metadata.Vertex{
		Position: mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)},
		Color:    DefaultVertexColor,
	}
	if ref.HasNormal() {
		n := model.GetNormalFromReference(ref)
		v.Normal = mgl32.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
	}
	if ref.HasTexCoord() {
		t := model.GetTexCoordFromReference(ref)
		v.UV = mgl32.Vec2{float32(t.U), float32(t.V)}
	}
	return v
}
