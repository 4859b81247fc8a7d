package model3d

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/renderer"
)

func TestSegmentedCylinderCounts(t *testing.T) {
	m := NewMesh("tube", 0)
	profile := []Ring{
		{Center: r3.Vec{}, RadiusU: 1, RadiusW: 1},
		{Center: r3.Vec{Y: 1}, RadiusU: 1, RadiusW: 1},
		{Center: r3.Vec{Y: 2}, RadiusU: 0.5, RadiusW: 0.5},
	}
	if err := m.AddSegmentedCylinder(profile, 8, true, true); err != nil {
		t.Fatalf("AddSegmentedCylinder: %v", err)
	}
	// 3 rings of 9 vertices plus 2 cap centres.
	if got := len(m.Vertices); got != 29 {
		t.Errorf("expected 29 vertices, got %d", got)
	}
	// 2 bands of 16 triangles plus 2 caps of 8.
	if got := len(m.Indices) / 3; got != 48 {
		t.Errorf("expected 48 triangles, got %d", got)
	}
	if m.Min.Y != 0 || m.Max.Y != 2 {
		t.Errorf("unexpected bounds %v %v", m.Min, m.Max)
	}

	m.ComputeNormals()
	// Side vertices of the straight band point away from the axis.
	v := m.Vertices[9]
	radial := r3.Vec{X: v.Pos.X, Z: v.Pos.Z}
	if r3.Dot(v.Normal, radial) <= 0 {
		t.Errorf("side normal %v points inward at %v", v.Normal, v.Pos)
	}
}

func TestSegmentedCylinderRejects(t *testing.T) {
	m := NewMesh("bad", 0)
	if err := m.AddSegmentedCylinder([]Ring{{}}, 8, false, false); err == nil {
		t.Error("expected error for a single ring")
	}
	if err := m.AddSegmentedCylinder([]Ring{{}, {Center: r3.Vec{Y: 1}}}, 2, false, false); err == nil {
		t.Error("expected error for 2 radial segments")
	}
	if err := m.AddSegmentedCylinder([]Ring{{}, {}}, 8, false, false); err == nil {
		t.Error("expected error for coincident rings")
	}
}

func TestParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	p := DefaultParameters()
	p.DroopStartFrac = p.ConnectionRadiusFrac
	if err := p.Validate(); err == nil {
		t.Error("expected error when droop start is not beyond connection radius")
	}
	p = DefaultParameters()
	p.StemSegments = 2
	if err := p.Validate(); err == nil {
		t.Error("expected error for 2 stem segments")
	}
}

func testFlower(t *testing.T, seed int64) *flower.Flower {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	params := flower.DefaultParams()
	params.Radius = 24
	params.NumLayers = 2
	f, err := flower.New(rng, params)
	if err != nil {
		t.Fatalf("flower.New: %v", err)
	}
	return f
}

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(renderer.New(renderer.DefaultOptions()), DefaultParameters(), nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func nodeNames(s *Scene) map[string]bool {
	names := map[string]bool{}
	for _, n := range s.Nodes {
		names[n.Name] = true
	}
	return names
}

func TestBuildOrgansFollowSex(t *testing.T) {
	b := testBuilder(t)
	f := testFlower(t, 3)

	tests := []struct {
		sex     flower.Sex
		pistil  bool
		stamens bool
	}{
		{flower.Both, true, true},
		{flower.Male, false, true},
		{flower.Female, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.sex.String(), func(t *testing.T) {
			s, err := b.Build(f, "m1", Options{Sex: tt.sex})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			names := nodeNames(s)
			if !names["Stem"] || !names["Petals"] || !names["Flower_m1"] {
				t.Errorf("missing base nodes in %v", names)
			}
			if names["Pistil"] != tt.pistil {
				t.Errorf("pistil present = %v, want %v", names["Pistil"], tt.pistil)
			}
			if names["Stamen_0"] != tt.stamens {
				t.Errorf("stamens present = %v, want %v", names["Stamen_0"], tt.stamens)
			}
			if s.Nodes[s.Root].Name != "Flower_m1" {
				t.Errorf("root is %q", s.Nodes[s.Root].Name)
			}
		})
	}
}

func TestBuildTextures(t *testing.T) {
	b := testBuilder(t)
	f := testFlower(t, 5)

	plain, err := b.Build(f, "plain", Options{Sex: flower.Both})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rich, err := b.Build(f, "rich", Options{Sex: flower.Both, UseNormals: true, UseEmissive: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rich.Textures) <= len(plain.Textures) {
		t.Errorf("normal and emissive maps should add textures: %d vs %d", len(rich.Textures), len(plain.Textures))
	}
	if plain.VertexCount() != rich.VertexCount() {
		t.Errorf("texture switches must not change geometry: %d vs %d", plain.VertexCount(), rich.VertexCount())
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := testBuilder(t)
	f := testFlower(t, 9)
	opts := Options{Sex: flower.Both, UseNormals: true, UseEmissive: true}

	s1, err := b.Build(f, "same", opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s2, err := b.Build(f, "same", opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g1, err := s1.GLTF()
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}
	g2, err := s2.GLTF()
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}
	if string(g1) != string(g2) {
		t.Error("same flower and model id produced different documents")
	}
}

func TestGLTFDocument(t *testing.T) {
	b := testBuilder(t)
	f := testFlower(t, 11)
	s, err := b.Build(f, "abc", Options{Sex: flower.Both, UseNormals: true, UseEmissive: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := s.GLTF()
	if err != nil {
		t.Fatalf("GLTF: %v", err)
	}

	var doc struct {
		Asset struct {
			Version string `json:"version"`
		} `json:"asset"`
		Scenes []struct {
			Name   string         `json:"name"`
			Nodes  []int          `json:"nodes"`
			Extras map[string]any `json:"extras"`
		} `json:"scenes"`
		Meshes    []json.RawMessage `json:"meshes"`
		Materials []json.RawMessage `json:"materials"`
		Images    []struct {
			URI string `json:"uri"`
		} `json:"images"`
		Accessors []struct {
			BufferView int `json:"bufferView"`
		} `json:"accessors"`
		BufferViews []struct {
			ByteOffset int `json:"byteOffset"`
			ByteLength int `json:"byteLength"`
		} `json:"bufferViews"`
		Buffers []struct {
			ByteLength int    `json:"byteLength"`
			URI        string `json:"uri"`
		} `json:"buffers"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not JSON: %v", err)
	}

	if doc.Asset.Version != "2.0" {
		t.Errorf("asset version %q", doc.Asset.Version)
	}
	if len(doc.Scenes) != 1 || doc.Scenes[0].Name != "Flower_abc_Scene" {
		t.Fatalf("unexpected scenes %+v", doc.Scenes)
	}
	extras := doc.Scenes[0].Extras
	if extras["modelId"] != "abc" {
		t.Errorf("extras modelId = %v", extras["modelId"])
	}
	if int(extras["vertexCount"].(float64)) != s.VertexCount() {
		t.Errorf("extras vertexCount = %v, want %d", extras["vertexCount"], s.VertexCount())
	}
	if int(extras["faceCount"].(float64)) != s.FaceCount() {
		t.Errorf("extras faceCount = %v, want %d", extras["faceCount"], s.FaceCount())
	}
	if len(doc.Meshes) != len(s.Meshes) || len(doc.Materials) != len(s.Materials) {
		t.Errorf("mesh/material counts %d/%d, want %d/%d", len(doc.Meshes), len(doc.Materials), len(s.Meshes), len(s.Materials))
	}
	for i, img := range doc.Images {
		if !strings.HasPrefix(img.URI, "data:image/png;base64,") {
			t.Errorf("image %d is not an embedded PNG", i)
		}
	}
	if len(doc.Buffers) != 1 || !strings.HasPrefix(doc.Buffers[0].URI, "data:application/octet-stream;base64,") {
		t.Fatalf("expected one embedded buffer, got %+v", doc.Buffers)
	}
	for i, v := range doc.BufferViews {
		if v.ByteOffset%4 != 0 {
			t.Errorf("buffer view %d misaligned at %d", i, v.ByteOffset)
		}
		if v.ByteOffset+v.ByteLength > doc.Buffers[0].ByteLength {
			t.Errorf("buffer view %d overruns the buffer", i)
		}
	}
	for i, a := range doc.Accessors {
		if a.BufferView < 0 || a.BufferView >= len(doc.BufferViews) {
			t.Errorf("accessor %d references missing view %d", i, a.BufferView)
		}
	}
}

func TestGLTFRequiresRoot(t *testing.T) {
	if _, err := NewScene("x").GLTF(); err == nil {
		t.Error("expected error for scene without root")
	}
}
