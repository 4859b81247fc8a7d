// Package model3d turns a flower into a textured glTF scene: a stem, one
// lofted mesh per petal layer textured with the layer's raster, and the
// reproductive organs selected by the flower's sex.
package model3d

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/renderer"
)

const (
	petalNormalStrength = 2.0
	emissiveTolerance   = 60.0
	grainSize           = 32
)

// Builder assembles scenes. It is immutable and safe for concurrent use.
type Builder struct {
	renderer *renderer.Renderer
	params   Parameters
	log      *slog.Logger
}

// NewBuilder validates params and returns a builder drawing petal
// textures with r.
func NewBuilder(r *renderer.Renderer, params Parameters, log *slog.Logger) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{renderer: r, params: params, log: log}, nil
}

// Parameters returns the sizes the builder was created with.
func (b *Builder) Parameters() Parameters { return b.params }

// Build produces the scene of f. The petals are drawn with the parameters
// embedded in f.
func (b *Builder) Build(f *flower.Flower, modelID string, opts Options) (*Scene, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	p := b.params
	fp := f.Petals
	scene := NewScene(modelID)

	var organNormal = -1
	if opts.UseNormals {
		organNormal = scene.AddTexture("organ_grain", GrainNormalMap(grainSize, textureSeed(modelID, "organ_grain")))
	}

	var roots []int
	stemMesh, err := stem(p, scene.AddMaterial(stemMaterial()))
	if err != nil {
		return nil, err
	}
	roots = append(roots, scene.AddMesh(stemMesh))

	petals, err := b.petals(scene, f, modelID, opts)
	if err != nil {
		return nil, err
	}
	roots = append(roots, scene.AddGroup("Petals", petals))

	head := r3.Vec{Y: p.StemHeight + float64(fp.NumLayers-1)*p.LayerVerticalSpacing}

	if opts.Sex.HasPistil() {
		style, stigma, err := pistil(p, head,
			scene.AddMaterial(pistilStyleMaterial()), scene.AddMaterial(stigmaMaterial(organNormal)))
		if err != nil {
			return nil, err
		}
		roots = append(roots, scene.AddGroup("Pistil", []int{scene.AddMesh(style), scene.AddMesh(stigma)}))
	}

	if opts.Sex.HasStamens() && p.StamenCount > 0 {
		filMat := scene.AddMaterial(filamentMaterial())
		antMat := scene.AddMaterial(antherMaterial(organNormal))
		ringRadius := 0.8 * p.ConnectionRadiusFrac * renderer.LayerRadius(fp, 0) * p.PetalScaleFactor
		bases, outwards := stamenRing(head, ringRadius, p.StamenCount)
		for i := range bases {
			fil, ant, err := stamen(p, i, bases[i], outwards[i], filMat, antMat)
			if err != nil {
				return nil, err
			}
			roots = append(roots, scene.AddGroup(fmt.Sprintf("Stamen_%d", i), []int{scene.AddMesh(fil), scene.AddMesh(ant)}))
		}
	}

	scene.Root = scene.AddGroup("Flower_"+modelID, roots)
	scene.Extras["modelId"] = modelID
	scene.Extras["sex"] = opts.Sex.String()
	scene.Extras["petals"] = fp
	scene.Extras["vertexCount"] = scene.VertexCount()
	scene.Extras["faceCount"] = scene.FaceCount()
	scene.Extras["parameters"] = p

	b.log.Debug("model built",
		"model_id", modelID,
		"meshes", len(scene.Meshes),
		"vertices", scene.VertexCount(),
		"faces", scene.FaceCount(),
	)
	return scene, nil
}

// petals renders every layer scaled to its place in the flower, traces
// its outline and lofts it, outermost layer lowest. A layer whose render
// is fully transparent contributes no mesh.
func (b *Builder) petals(scene *Scene, f *flower.Flower, modelID string, opts Options) ([]int, error) {
	p := b.params
	fp := f.Petals
	var nodes []int
	for layer := fp.NumLayers - 1; layer >= 0; layer-- {
		img, err := b.renderer.RenderImage(f.PetalsNet(), fp, renderer.Request{
			Kind: renderer.KindLayer, Layer: layer, ScaleLayer: true,
		})
		if err != nil {
			return nil, fmt.Errorf("rendering petal layer %d: %w", layer, err)
		}
		outline := Simplify(TraceContour(img, p.AlphaThreshold), p.ContourSimplificationTolerance)
		if len(outline) < 3 {
			b.log.Debug("petal layer skipped", "model_id", modelID, "layer", layer)
			continue
		}

		name := fmt.Sprintf("PetalLayer_%d", layer)
		tex := scene.AddTexture(name+"_color", img)
		normal, emissive := -1, -1
		if opts.UseNormals {
			normal = scene.AddTexture(name+"_normal", NormalMap(img, textureSeed(modelID, name), petalNormalStrength))
		}
		if opts.UseEmissive {
			emissive = scene.AddTexture(name+"_emissive", EmissiveMap(img, p.AlphaThreshold, emissiveTolerance))
		}

		mesh := NewMesh(name, scene.AddMaterial(petalMaterial(name, tex, normal, emissive)))
		bounds := img.Bounds()
		err = mesh.addPetalLayer(petalLayer{
			contour: outline,
			width:   bounds.Dx(),
			height:  bounds.Dy(),
			base:    r3.Vec{Y: p.StemHeight + float64(fp.NumLayers-1-layer)*p.LayerVerticalSpacing},
			radius:  renderer.LayerRadius(fp, layer),
			scale:   renderer.LayerRadius(fp, layer) / float64(fp.Radius),
		}, p)
		if err != nil {
			return nil, fmt.Errorf("petal layer %d: %w", layer, err)
		}
		mesh.ComputeNormals()
		nodes = append(nodes, scene.AddMesh(mesh))
	}
	return nodes, nil
}
