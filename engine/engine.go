// Package engine is the boundary of the flower engine. An Engine is an
// explicit, immutable handle: every entry point takes its randomness and
// its output surface from the caller, so one Engine can serve concurrent
// callers as long as they do not share a surface or a random source.
//
// Genomes cross the boundary as exchange-format text. Entry points never
// modify their inputs and report every failure as an *Error.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/bloom/config"
	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/model3d"
	"github.com/pthm-cable/bloom/neural"
	"github.com/pthm-cable/bloom/renderer"
	"github.com/pthm-cable/bloom/stats"
)

// Engine holds the immutable settings shared by all entry points.
type Engine struct {
	mutation  neural.MutationOptions
	crossover neural.CrossoverOptions
	renderer  *renderer.Renderer
	builder   *model3d.Builder
	log       *slog.Logger
}

// New builds an engine from cfg. A nil cfg uses the embedded defaults and
// a nil log uses slog.Default.
func New(cfg *config.Config, log *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}
	r := renderer.New(cfg.Derived.Render)
	b, err := model3d.NewBuilder(r, cfg.Model3D, log)
	if err != nil {
		return nil, wrap("new", err)
	}
	return &Engine{
		mutation:  cfg.Derived.MutationOptions,
		crossover: cfg.Derived.Crossover,
		renderer:  r,
		builder:   b,
		log:       log,
	}, nil
}

// Renderer exposes the raster renderer the engine draws with.
func (e *Engine) Renderer() *renderer.Renderer { return e.renderer }

// create makes a fresh flower and draws req into dst when dst is not nil.
func (e *Engine) create(op string, rng *rand.Rand, p flower.Params, req renderer.Request, dst *renderer.Surface) (string, error) {
	if req.Kind == renderer.KindLayer && p.Validate() == nil && (req.Layer < 0 || req.Layer >= p.NumLayers) {
		return "", wrap(op, fmt.Errorf("%w: layer %d outside [0, %d)", flower.ErrInvalidParams, req.Layer, p.NumLayers))
	}
	f, err := flower.New(rng, p)
	if err != nil {
		return "", wrap(op, err)
	}
	return e.finish(op, f, req, dst)
}

// finish draws f and encodes it. Nothing is returned on a draw failure.
func (e *Engine) finish(op string, f *flower.Flower, req renderer.Request, dst *renderer.Surface) (string, error) {
	if dst != nil {
		if err := e.renderer.Render(dst, f.PetalsNet(), f.Petals, req); err != nil {
			return "", wrap(op, err)
		}
	}
	text, err := flower.Encode(f)
	if err != nil {
		return "", wrap(op, err)
	}
	return text, nil
}

// MakeFlower creates a flower and draws petals, stem and leaves.
func (e *Engine) MakeFlower(rng *rand.Rand, p flower.Params, dst *renderer.Surface) (string, error) {
	return e.create("make flower", rng, p, renderer.Request{Kind: renderer.KindFlower}, dst)
}

// MakePetals creates a flower and draws its petal layers only.
func (e *Engine) MakePetals(rng *rand.Rand, p flower.Params, dst *renderer.Surface) (string, error) {
	return e.create("make petals", rng, p, renderer.Request{Kind: renderer.KindPetals}, dst)
}

// MakePetalLayer creates a flower and draws one of its layers filling the canvas.
func (e *Engine) MakePetalLayer(rng *rand.Rand, p flower.Params, layer int, dst *renderer.Surface) (string, error) {
	return e.create("make petal layer", rng, p, renderer.Request{Kind: renderer.KindLayer, Layer: layer}, dst)
}

// MakeStem creates a flower and draws its stem and leaves only.
func (e *Engine) MakeStem(rng *rand.Rand, p flower.Params, dst *renderer.Surface) (string, error) {
	return e.create("make stem", rng, p, renderer.Request{Kind: renderer.KindStem}, dst)
}

// draw decodes text and renders it with p.
func (e *Engine) draw(op, text string, p flower.Params, req renderer.Request, dst *renderer.Surface) error {
	f, err := flower.Decode(text)
	if err != nil {
		return wrap(op, err)
	}
	if dst == nil {
		dst = &renderer.Surface{}
	}
	return wrap(op, e.renderer.Render(dst, f.PetalsNet(), p, req))
}

// DrawFlower re-renders an encoded flower, petals over stem, with p.
func (e *Engine) DrawFlower(text string, p flower.Params, dst *renderer.Surface) error {
	return e.draw("draw flower", text, p, renderer.Request{Kind: renderer.KindFlower}, dst)
}

// DrawPetals re-renders the petal layers of an encoded flower with p.
func (e *Engine) DrawPetals(text string, p flower.Params, dst *renderer.Surface) error {
	return e.draw("draw petals", text, p, renderer.Request{Kind: renderer.KindPetals}, dst)
}

// DrawPetalLayer re-renders one layer. With scale the layer keeps its
// radius inside the full flower.
func (e *Engine) DrawPetalLayer(text string, p flower.Params, layer int, scale bool, dst *renderer.Surface) error {
	return e.draw("draw petal layer", text, p, renderer.Request{Kind: renderer.KindLayer, Layer: layer, ScaleLayer: scale}, dst)
}

// DrawStem re-renders the stem and leaves of an encoded flower with p.
func (e *Engine) DrawStem(text string, p flower.Params, dst *renderer.Surface) error {
	return e.draw("draw stem", text, p, renderer.Request{Kind: renderer.KindStem}, dst)
}

// EmbeddedParams returns the phenotype parameters an encoded flower was
// last drawn with.
func (e *Engine) EmbeddedParams(text string) (flower.Params, error) {
	f, err := flower.Decode(text)
	if err != nil {
		return flower.Params{}, wrap("embedded params", err)
	}
	return f.Petals, nil
}

// Reproduce crosses two encoded flowers and draws the child's petals.
func (e *Engine) Reproduce(rng *rand.Rand, father, mother string, p flower.Params, dst *renderer.Surface) (string, error) {
	return e.reproduce(rng, father, mother, p, e.crossover, dst)
}

// ReproduceRanked is Reproduce with parent fitness: unmatched genes of the
// fitter parent always survive, those of the weaker one only sometimes.
func (e *Engine) ReproduceRanked(rng *rand.Rand, father, mother string, fatherFitness, motherFitness float64, p flower.Params, dst *renderer.Surface) (string, error) {
	opts := e.crossover
	opts.Ranked = true
	opts.FatherFitness = fatherFitness
	opts.MotherFitness = motherFitness
	return e.reproduce(rng, father, mother, p, opts, dst)
}

func (e *Engine) reproduce(rng *rand.Rand, father, mother string, p flower.Params, opts neural.CrossoverOptions, dst *renderer.Surface) (string, error) {
	const op = "reproduce"
	f1, err := flower.Decode(father)
	if err != nil {
		return "", wrap(op, fmt.Errorf("father: %w", err))
	}
	f2, err := flower.Decode(mother)
	if err != nil {
		return "", wrap(op, fmt.Errorf("mother: %w", err))
	}
	child, err := flower.Reproduce(rng, f1, f2, p, opts)
	if err != nil {
		return "", wrap(op, err)
	}
	return e.finish(op, child, renderer.Request{Kind: renderer.KindPetals}, dst)
}

// Mutate returns a mutated copy of an encoded flower and draws its petals.
func (e *Engine) Mutate(rng *rand.Rand, original string, p flower.Params, rates neural.MutationRates, dst *renderer.Surface) (string, error) {
	text, _, err := e.MutateReport(rng, original, p, rates, dst)
	return text, err
}

// MutateReport is Mutate that also returns how many times each operator
// fired.
func (e *Engine) MutateReport(rng *rand.Rand, original string, p flower.Params, rates neural.MutationRates, dst *renderer.Surface) (string, neural.MutationReport, error) {
	const op = "mutate"
	if err := rates.Validate(); err != nil {
		return "", neural.MutationReport{}, wrap(op, err)
	}
	f, err := flower.Decode(original)
	if err != nil {
		return "", neural.MutationReport{}, wrap(op, err)
	}
	child, report, err := flower.Mutate(rng, f, p, rates, e.mutation)
	if err != nil {
		return "", report, wrap(op, err)
	}
	e.log.Debug("flower mutated", "report", report)
	text, err := e.finish(op, child, renderer.Request{Kind: renderer.KindPetals}, dst)
	return text, report, err
}

// Stats evaluates an encoded flower against an environment and returns
// the metrics as JSON text.
func (e *Engine) Stats(text string, env stats.Environment) (string, error) {
	const op = "stats"
	f, err := flower.Decode(text)
	if err != nil {
		return "", wrap(op, err)
	}
	s, err := stats.Compute(f, env)
	if err != nil {
		return "", wrap(op, err)
	}
	out, err := s.JSON()
	if err != nil {
		return "", wrap(op, err)
	}
	return out, nil
}

// Model3D builds the glTF document of an encoded flower.
func (e *Engine) Model3D(text, modelID string, opts model3d.Options) (string, error) {
	const op = "model3d"
	if opts.Sex > flower.Female {
		return "", wrap(op, fmt.Errorf("%w: unknown sex %d", neural.ErrInvalidParameter, int(opts.Sex)))
	}
	f, err := flower.Decode(text)
	if err != nil {
		return "", wrap(op, err)
	}
	scene, err := e.builder.Build(f, modelID, opts)
	if err != nil {
		return "", wrap(op, err)
	}
	doc, err := scene.GLTF()
	if err != nil {
		return "", wrap(op, err)
	}
	return string(doc), nil
}
