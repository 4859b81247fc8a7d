package model3d

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is one mesh vertex. Normal and UV are written only when the
// owning mesh reports them.
type Vertex struct {
	Pos    r3.Vec
	Normal r3.Vec
	UV     [2]float64
}

// Mesh is an indexed triangle list with one material.
type Mesh struct {
	Name       string
	Vertices   []Vertex
	Indices    []uint32
	Material   int
	HasNormals bool
	HasUV      bool
	Min, Max   r3.Vec
}

// NewMesh returns an empty mesh with inverted bounds.
func NewMesh(name string, material int) *Mesh {
	inf := math.Inf(1)
	return &Mesh{
		Name:     name,
		Material: material,
		Min:      r3.Vec{X: inf, Y: inf, Z: inf},
		Max:      r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// AddVertex appends v and returns its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	m.Min = r3.Vec{X: math.Min(m.Min.X, v.Pos.X), Y: math.Min(m.Min.Y, v.Pos.Y), Z: math.Min(m.Min.Z, v.Pos.Z)}
	m.Max = r3.Vec{X: math.Max(m.Max.X, v.Pos.X), Y: math.Max(m.Max.Y, v.Pos.Y), Z: math.Max(m.Max.Z, v.Pos.Z)}
	return uint32(len(m.Vertices) - 1)
}

// AddTriangle appends a counter-clockwise triangle.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// ComputeNormals sets smooth vertex normals from area-weighted face normals.
func (m *Mesh) ComputeNormals() {
	acc := make([]r3.Vec, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		n := r3.Cross(r3.Sub(m.Vertices[b].Pos, m.Vertices[a].Pos), r3.Sub(m.Vertices[c].Pos, m.Vertices[a].Pos))
		acc[a] = r3.Add(acc[a], n)
		acc[b] = r3.Add(acc[b], n)
		acc[c] = r3.Add(acc[c], n)
	}
	for i := range m.Vertices {
		if r3.Norm(acc[i]) > 0 {
			m.Vertices[i].Normal = r3.Unit(acc[i])
		} else {
			m.Vertices[i].Normal = r3.Vec{Y: 1}
		}
	}
	m.HasNormals = true
}

// Material is a glTF PBR material. Texture fields are texture indices or -1.
type Material struct {
	Name             string
	BaseColor        [4]float64
	BaseColorTexture int
	Metallic         float64
	Roughness        float64
	NormalTexture    int
	EmissiveTexture  int
	EmissiveStrength float64
	AlphaMask        bool
	AlphaCutoff      float64
	DoubleSided      bool
	Transmission     float64
	IOR              float64
}

// baseMaterial takes an sRGB colour; glTF base colour factors are linear.
func baseMaterial(name string, r, g, b, metallic, roughness float64) Material {
	lr, lg, lb := colorful.Color{R: r, G: g, B: b}.LinearRgb()
	return Material{
		Name:             name,
		BaseColor:        [4]float64{lr, lg, lb, 1},
		BaseColorTexture: -1,
		Metallic:         metallic,
		Roughness:        roughness,
		NormalTexture:    -1,
		EmissiveTexture:  -1,
	}
}

// Texture is an image embedded as PNG.
type Texture struct {
	Name  string
	Image image.Image
}

// Node is a scene graph node: a mesh instance or a group.
type Node struct {
	Name     string
	Mesh     int // -1 for groups
	Children []int
}

// Scene collects everything one glTF document holds.
type Scene struct {
	ModelID   string
	Meshes    []*Mesh
	Materials []Material
	Textures  []Texture
	Nodes     []Node
	Root      int
	Extras    map[string]any
}

// NewScene returns an empty scene.
func NewScene(modelID string) *Scene {
	return &Scene{ModelID: modelID, Root: -1, Extras: map[string]any{}}
}

// AddMaterial registers m and returns its index.
func (s *Scene) AddMaterial(m Material) int {
	s.Materials = append(s.Materials, m)
	return len(s.Materials) - 1
}

// AddTexture registers an image and returns its index.
func (s *Scene) AddTexture(name string, img image.Image) int {
	s.Textures = append(s.Textures, Texture{Name: name, Image: img})
	return len(s.Textures) - 1
}

// AddMesh registers m together with a node instancing it and returns the
// node index.
func (s *Scene) AddMesh(m *Mesh) int {
	s.Meshes = append(s.Meshes, m)
	return s.AddNode(Node{Name: m.Name, Mesh: len(s.Meshes) - 1})
}

// AddNode registers n and returns its index.
func (s *Scene) AddNode(n Node) int {
	s.Nodes = append(s.Nodes, n)
	return len(s.Nodes) - 1
}

// AddGroup registers a group node over children.
func (s *Scene) AddGroup(name string, children []int) int {
	return s.AddNode(Node{Name: name, Mesh: -1, Children: children})
}

// VertexCount sums vertices over all meshes.
func (s *Scene) VertexCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += len(m.Vertices)
	}
	return n
}

// FaceCount sums triangles over all meshes.
func (s *Scene) FaceCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += len(m.Indices) / 3
	}
	return n
}
