// Package renderer decodes a petals network into raster images. Every
// pixel is an evaluation of the network at the pixel's polar coordinate,
// so rendering is a pure function of genome, parameters and output kind.
package renderer

import (
	"fmt"
	"image"
	"math"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/neural"
)

// Kind selects what a render produces.
type Kind int

const (
	KindFlower Kind = iota // petals over stem and leaves, 2R x 3R
	KindPetals             // all petal layers, 2R x 2R
	KindLayer              // a single petal layer, 2R x 2R
	KindStem               // stem and leaves only, 2R x 3R
)

func (k Kind) String() string {
	switch k {
	case KindFlower:
		return "flower"
	case KindPetals:
		return "petals"
	case KindLayer:
		return "layer"
	case KindStem:
		return "stem"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Coordinate channels used for the stem and leaves. Petal layers use
// layer/numLayers in [0, 1).
const (
	stemLayerChannel = -1.0
	leafLayerChannel = -2.0
)

// Options tunes the non-petal geometry.
type Options struct {
	StemWidth  float64 `yaml:"stem_width"`  // stem half-width as a fraction of radius
	Leaves     int     `yaml:"leaves"`      // leaves along the stem
	LeafLength float64 `yaml:"leaf_length"` // leaf length as a fraction of radius
}

// DefaultOptions returns the stock stem geometry.
func DefaultOptions() Options {
	return Options{StemWidth: 1.0 / 32, Leaves: 2, LeafLength: 0.5}
}

// Request describes one render.
type Request struct {
	Kind Kind
	// Layer and ScaleLayer apply to KindLayer. With ScaleLayer the layer
	// keeps the radius it has inside the full flower; otherwise it fills
	// the canvas.
	Layer      int
	ScaleLayer bool
}

// Renderer holds immutable render options and is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New creates a renderer.
func New(opts Options) *Renderer {
	if opts.StemWidth <= 0 {
		opts.StemWidth = DefaultOptions().StemWidth
	}
	if opts.LeafLength <= 0 {
		opts.LeafLength = DefaultOptions().LeafLength
	}
	if opts.Leaves < 0 {
		opts.Leaves = 0
	}
	return &Renderer{opts: opts}
}

// Size returns the raster dimensions of a render kind.
func Size(p flower.Params, kind Kind) (w, h int) {
	switch kind {
	case KindFlower, KindStem:
		return 2 * p.Radius, 3 * p.Radius
	default:
		return 2 * p.Radius, 2 * p.Radius
	}
}

// LayerRadius is the pixel radius of a layer inside the full flower:
// the outermost layer (numLayers-1) spans the full radius and each inner
// layer halves it.
func LayerRadius(p flower.Params, layer int) float64 {
	return float64(p.Radius) / math.Pow(2, float64(p.NumLayers-1-layer))
}

// Render draws req into dst, resizing dst to the kind's dimensions.
func (r *Renderer) Render(dst *Surface, g *neural.Genome, p flower.Params, req Request) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if req.Kind < KindFlower || req.Kind > KindStem {
		return fmt.Errorf("%w: unknown render kind %d", neural.ErrInvalidParameter, int(req.Kind))
	}
	if req.Kind == KindLayer && (req.Layer < 0 || req.Layer >= p.NumLayers) {
		return fmt.Errorf("%w: layer %d outside [0, %d)", flower.ErrInvalidParams, req.Layer, p.NumLayers)
	}
	if g.Inputs != neural.PetalInputs || g.Outputs != neural.PetalOutputs {
		return fmt.Errorf("%w: petals network must be %d->%d, got %d->%d", neural.ErrIncompatible,
			neural.PetalInputs, neural.PetalOutputs, g.Inputs, g.Outputs)
	}
	net, err := neural.Compile(g)
	if err != nil {
		return err
	}

	w, h := Size(p, req.Kind)
	img := dst.Resize(w, h)
	d := &decoder{net: net, in: make([]float64, neural.PetalInputs), out: make([]float64, neural.PetalOutputs), params: p}

	switch req.Kind {
	case KindFlower:
		d.stem(img, r.opts)
		d.petals(img)
	case KindPetals:
		d.petals(img)
	case KindLayer:
		radius := float64(p.Radius)
		if req.ScaleLayer {
			radius = LayerRadius(p, req.Layer)
		}
		d.layer(img, req.Layer, radius)
	case KindStem:
		d.stem(img, r.opts)
	}
	return nil
}

// RenderImage renders into a fresh surface and returns its image.
func (r *Renderer) RenderImage(g *neural.Genome, p flower.Params, req Request) (*image.NRGBA, error) {
	s := &Surface{}
	if err := r.Render(s, g, p, req); err != nil {
		return nil, err
	}
	return s.Image(), nil
}

type decoder struct {
	net    *neural.Network
	in     []float64
	out    []float64
	params flower.Params
}

func (d *decoder) query(angle, radius, layer float64) []float64 {
	d.in[neural.InAngle] = angle
	d.in[neural.InRadius] = radius
	d.in[neural.InLayer] = layer
	d.in[neural.InBias] = d.params.Bias
	// Buffers are sized from the compiled network, so Activate cannot fail.
	_ = d.net.Activate(d.in, d.out)
	return d.out
}

// petals draws layers outermost first so inner layers sit on top.
func (d *decoder) petals(img *image.NRGBA) {
	for layer := d.params.NumLayers - 1; layer >= 0; layer-- {
		d.layer(img, layer, LayerRadius(d.params, layer))
	}
}

func (d *decoder) layer(img *image.NRGBA, layer int, radius float64) {
	shape := NewSuperformula(d.params.P, d.params.Bias)
	layerCh := float64(layer) / float64(d.params.NumLayers)
	cx, cy := float64(d.params.Radius), float64(d.params.Radius)

	x0 := max(0, int(math.Floor(cx-radius)))
	x1 := min(img.Rect.Dx(), int(math.Ceil(cx+radius)))
	y0 := max(0, int(math.Floor(cy-radius)))
	y1 := min(img.Rect.Dy(), int(math.Ceil(cy+radius)))

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist := math.Hypot(dx, dy)
			if dist > radius {
				continue
			}
			theta := math.Atan2(dy, dx)
			angle := shape.AngleChannel(theta)

			rim := d.query(angle, 1, layerCh)[neural.OutRadius]
			boundary := radius * clamp01(math.Abs(rim)) * shape.At(theta)
			if dist > boundary {
				continue
			}

			o := d.query(angle, dist/radius, layerCh)
			img.SetNRGBA(x, y, petalColor(o[neural.OutHue], o[neural.OutSaturation], o[neural.OutValue], o[neural.OutAlpha]))
		}
	}
}

// stem draws a narrow column from the flower centre to the bottom edge
// plus leaves. The angle channel carries the horizontal offset across the
// stem without wrapping.
func (d *decoder) stem(img *image.NRGBA, opts Options) {
	R := float64(d.params.Radius)
	half := max(1, math.Round(R*opts.StemWidth))
	cx := R
	top := d.params.Radius
	bottom := img.Rect.Dy()
	length := float64(bottom - top)

	for y := top; y < bottom; y++ {
		along := (float64(y-top) + 0.5) / length
		for x := int(cx - half); x < int(cx+half); x++ {
			across := (float64(x) + 0.5 - cx) / half
			o := d.query(across, along, stemLayerChannel)
			img.SetNRGBA(x, y, stemColor(o[neural.OutHue], o[neural.OutSaturation], o[neural.OutValue]))
		}
	}

	leafLen := R * opts.LeafLength
	maxHalfWidth := leafLen * 0.22
	for k := range opts.Leaves {
		yk := float64(top) + length*float64(k+1)/float64(opts.Leaves+1)
		dir := 1.0
		if k%2 == 1 {
			dir = -1
		}
		base := cx + dir*half
		for i := 0; i < int(math.Ceil(leafLen)); i++ {
			u := (float64(i) + 0.5) / leafLen
			if u > 1 {
				break
			}
			rim := d.query(u, 0, leafLayerChannel)[neural.OutRadius]
			hw := maxHalfWidth * math.Sin(math.Pi*u) * (0.5 + 0.5*clamp01(math.Abs(rim)))
			x := int(math.Floor(base + dir*(float64(i)+0.5)))
			for y := int(math.Floor(yk - hw)); y <= int(math.Ceil(yk+hw)); y++ {
				off := math.Abs(float64(y) + 0.5 - yk)
				if off > hw || !(image.Point{x, y}.In(img.Rect)) {
					continue
				}
				o := d.query(u, off/maxHalfWidth, leafLayerChannel)
				img.SetNRGBA(x, y, stemColor(o[neural.OutHue], o[neural.OutSaturation], o[neural.OutValue]))
			}
		}
	}
}
