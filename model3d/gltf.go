package model3d

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image/png"
	"math"
)

// glTF enums.
const (
	gltfFloat         = 5126
	gltfUnsignedShort = 5123
	gltfUnsignedInt   = 5125
	gltfArrayBuffer   = 34962
	gltfElementBuffer = 34963
	gltfTriangles     = 4
	gltfLinear        = 9729
	gltfLinearMipmap  = 9987
	gltfRepeat        = 10497
)

type gltfDoc struct {
	Asset          gltfAsset        `json:"asset"`
	ExtensionsUsed []string         `json:"extensionsUsed,omitempty"`
	Scene          int              `json:"scene"`
	Scenes         []gltfScene      `json:"scenes"`
	Nodes          []gltfNode       `json:"nodes"`
	Meshes         []gltfMesh       `json:"meshes,omitempty"`
	Materials      []gltfMaterial   `json:"materials,omitempty"`
	Textures       []gltfTexture    `json:"textures,omitempty"`
	Images         []gltfImage      `json:"images,omitempty"`
	Samplers       []gltfSampler    `json:"samplers,omitempty"`
	Accessors      []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews    []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers        []gltfBuffer     `json:"buffers,omitempty"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfScene struct {
	Name   string         `json:"name"`
	Nodes  []int          `json:"nodes"`
	Extras map[string]any `json:"extras,omitempty"`
}

type gltfNode struct {
	Name     string `json:"name"`
	Mesh     *int   `json:"mesh,omitempty"`
	Children []int  `json:"children,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Material   int            `json:"material"`
	Mode       int            `json:"mode"`
}

type gltfTextureRef struct {
	Index int `json:"index"`
}

type gltfPBR struct {
	BaseColorFactor  [4]float64      `json:"baseColorFactor"`
	BaseColorTexture *gltfTextureRef `json:"baseColorTexture,omitempty"`
	MetallicFactor   float64         `json:"metallicFactor"`
	RoughnessFactor  float64         `json:"roughnessFactor"`
}

type gltfMaterial struct {
	Name                 string          `json:"name"`
	PBRMetallicRoughness gltfPBR         `json:"pbrMetallicRoughness"`
	NormalTexture        *gltfTextureRef `json:"normalTexture,omitempty"`
	EmissiveTexture      *gltfTextureRef `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float64     `json:"emissiveFactor,omitempty"`
	AlphaMode            string          `json:"alphaMode,omitempty"`
	AlphaCutoff          *float64        `json:"alphaCutoff,omitempty"`
	DoubleSided          bool            `json:"doubleSided,omitempty"`
	Extensions           map[string]any  `json:"extensions,omitempty"`
}

type gltfTexture struct {
	Name    string `json:"name"`
	Sampler int    `json:"sampler"`
	Source  int    `json:"source"`
}

type gltfImage struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
}

type gltfSampler struct {
	MagFilter int `json:"magFilter"`
	MinFilter int `json:"minFilter"`
	WrapS     int `json:"wrapS"`
	WrapT     int `json:"wrapT"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type gltfBuffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri"`
}

// gltfWriter accumulates the single binary buffer of the document.
type gltfWriter struct {
	doc gltfDoc
	buf bytes.Buffer
}

func (w *gltfWriter) view(data []byte, target int) int {
	for w.buf.Len()%4 != 0 {
		w.buf.WriteByte(0)
	}
	w.doc.BufferViews = append(w.doc.BufferViews, gltfBufferView{
		ByteOffset: w.buf.Len(),
		ByteLength: len(data),
		Target:     target,
	})
	w.buf.Write(data)
	return len(w.doc.BufferViews) - 1
}

func (w *gltfWriter) accessor(a gltfAccessor) int {
	w.doc.Accessors = append(w.doc.Accessors, a)
	return len(w.doc.Accessors) - 1
}

func putFloats(dst []byte, vs ...float64) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	}
	return dst
}

func (w *gltfWriter) mesh(m *Mesh) (gltfMesh, error) {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return gltfMesh{}, fmt.Errorf("mesh %q is empty", m.Name)
	}
	attrs := map[string]int{}

	pos := make([]byte, 0, len(m.Vertices)*12)
	for _, v := range m.Vertices {
		pos = putFloats(pos, v.Pos.X, v.Pos.Y, v.Pos.Z)
	}
	// glTF requires min and max on positions; they must match the float32 data.
	attrs["POSITION"] = w.accessor(gltfAccessor{
		BufferView:    w.view(pos, gltfArrayBuffer),
		ComponentType: gltfFloat,
		Count:         len(m.Vertices),
		Type:          "VEC3",
		Min:           []float64{float64(float32(m.Min.X)), float64(float32(m.Min.Y)), float64(float32(m.Min.Z))},
		Max:           []float64{float64(float32(m.Max.X)), float64(float32(m.Max.Y)), float64(float32(m.Max.Z))},
	})

	if m.HasNormals {
		nrm := make([]byte, 0, len(m.Vertices)*12)
		for _, v := range m.Vertices {
			nrm = putFloats(nrm, v.Normal.X, v.Normal.Y, v.Normal.Z)
		}
		attrs["NORMAL"] = w.accessor(gltfAccessor{
			BufferView: w.view(nrm, gltfArrayBuffer), ComponentType: gltfFloat, Count: len(m.Vertices), Type: "VEC3",
		})
	}
	if m.HasUV {
		uv := make([]byte, 0, len(m.Vertices)*8)
		for _, v := range m.Vertices {
			uv = putFloats(uv, v.UV[0], v.UV[1])
		}
		attrs["TEXCOORD_0"] = w.accessor(gltfAccessor{
			BufferView: w.view(uv, gltfArrayBuffer), ComponentType: gltfFloat, Count: len(m.Vertices), Type: "VEC2",
		})
	}

	var idx []byte
	componentType := gltfUnsignedInt
	if len(m.Vertices) <= math.MaxUint16 {
		componentType = gltfUnsignedShort
		idx = make([]byte, 0, len(m.Indices)*2)
		for _, i := range m.Indices {
			idx = binary.LittleEndian.AppendUint16(idx, uint16(i))
		}
	} else {
		idx = make([]byte, 0, len(m.Indices)*4)
		for _, i := range m.Indices {
			idx = binary.LittleEndian.AppendUint32(idx, i)
		}
	}
	indices := w.accessor(gltfAccessor{
		BufferView: w.view(idx, gltfElementBuffer), ComponentType: componentType, Count: len(m.Indices), Type: "SCALAR",
	})

	return gltfMesh{
		Name: m.Name,
		Primitives: []gltfPrimitive{{
			Attributes: attrs,
			Indices:    indices,
			Material:   m.Material,
			Mode:       gltfTriangles,
		}},
	}, nil
}

func material(m Material, used map[string]bool) gltfMaterial {
	out := gltfMaterial{
		Name: m.Name,
		PBRMetallicRoughness: gltfPBR{
			BaseColorFactor: m.BaseColor,
			MetallicFactor:  m.Metallic,
			RoughnessFactor: m.Roughness,
		},
		DoubleSided: m.DoubleSided,
	}
	if m.BaseColorTexture >= 0 {
		out.PBRMetallicRoughness.BaseColorTexture = &gltfTextureRef{Index: m.BaseColorTexture}
	}
	if m.NormalTexture >= 0 {
		out.NormalTexture = &gltfTextureRef{Index: m.NormalTexture}
	}
	if m.AlphaMask {
		cutoff := m.AlphaCutoff
		out.AlphaMode = "MASK"
		out.AlphaCutoff = &cutoff
	}
	ext := map[string]any{}
	if m.EmissiveTexture >= 0 {
		out.EmissiveTexture = &gltfTextureRef{Index: m.EmissiveTexture}
		out.EmissiveFactor = &[3]float64{1, 1, 1}
		if m.EmissiveStrength > 0 {
			ext["KHR_materials_emissive_strength"] = map[string]float64{"emissiveStrength": m.EmissiveStrength}
		}
	}
	if m.Transmission > 0 {
		ext["KHR_materials_transmission"] = map[string]float64{"transmissionFactor": m.Transmission}
	}
	if m.IOR > 0 {
		ext["KHR_materials_ior"] = map[string]float64{"ior": m.IOR}
	}
	for name := range ext {
		used[name] = true
	}
	if len(ext) > 0 {
		out.Extensions = ext
	}
	return out
}

// GLTF encodes s as a self-contained glTF 2.0 JSON document: geometry in
// one base64 buffer, textures as embedded PNG images.
func (s *Scene) GLTF() ([]byte, error) {
	if s.Root < 0 || s.Root >= len(s.Nodes) {
		return nil, fmt.Errorf("scene %q has no root node", s.ModelID)
	}
	w := &gltfWriter{}
	w.doc.Asset = gltfAsset{Version: "2.0", Generator: "bloom model3d"}

	for _, m := range s.Meshes {
		gm, err := w.mesh(m)
		if err != nil {
			return nil, err
		}
		w.doc.Meshes = append(w.doc.Meshes, gm)
	}

	if len(s.Textures) > 0 {
		w.doc.Samplers = []gltfSampler{{MagFilter: gltfLinear, MinFilter: gltfLinearMipmap, WrapS: gltfRepeat, WrapT: gltfRepeat}}
	}
	for i, t := range s.Textures {
		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, t.Image); err != nil {
			return nil, fmt.Errorf("encoding texture %q: %w", t.Name, err)
		}
		w.doc.Images = append(w.doc.Images, gltfImage{
			Name:     t.Name,
			URI:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBuf.Bytes()),
			MimeType: "image/png",
		})
		w.doc.Textures = append(w.doc.Textures, gltfTexture{Name: t.Name, Source: i})
	}

	used := map[string]bool{}
	for _, m := range s.Materials {
		w.doc.Materials = append(w.doc.Materials, material(m, used))
	}
	for _, name := range []string{"KHR_materials_emissive_strength", "KHR_materials_ior", "KHR_materials_transmission"} {
		if used[name] {
			w.doc.ExtensionsUsed = append(w.doc.ExtensionsUsed, name)
		}
	}

	for _, n := range s.Nodes {
		gn := gltfNode{Name: n.Name, Children: n.Children}
		if n.Mesh >= 0 {
			mesh := n.Mesh
			gn.Mesh = &mesh
		}
		w.doc.Nodes = append(w.doc.Nodes, gn)
	}

	w.doc.Scenes = []gltfScene{{
		Name:   fmt.Sprintf("Flower_%s_Scene", s.ModelID),
		Nodes:  []int{s.Root},
		Extras: s.Extras,
	}}
	if w.buf.Len() > 0 {
		for w.buf.Len()%4 != 0 {
			w.buf.WriteByte(0)
		}
		w.doc.Buffers = []gltfBuffer{{
			ByteLength: w.buf.Len(),
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(w.buf.Bytes()),
		}}
	}

	data, err := json.Marshal(w.doc)
	if err != nil {
		return nil, fmt.Errorf("encoding glTF: %w", err)
	}
	return data, nil
}
