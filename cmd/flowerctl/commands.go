package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/model3d"
	"github.com/pthm-cable/bloom/neural"
	"github.com/pthm-cable/bloom/renderer"
	"github.com/pthm-cable/bloom/stats"
)

func runMake(args []string) error {
	c := newCommon("make")
	kind := c.fs.String("kind", "flower", "What to draw: flower, petals, layer or stem")
	layer := c.fs.Int("layer", 0, "Layer index for -kind layer")
	out := c.fs.String("o", "", "Output file for the flower (empty = stdout)")
	pngPath := c.fs.String("png", "", "Write the drawing to this PNG file")
	thumb := c.fs.Int("thumb", 0, "Shrink the PNG to fit this many pixels (0 = full size)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	k, err := parseKind(*kind)
	if err != nil {
		return err
	}
	cfg, eng, rng, err := c.setup()
	if err != nil {
		return err
	}
	p := c.params(cfg.Phenotype)

	var dst *renderer.Surface
	if *pngPath != "" {
		dst = &renderer.Surface{}
	}
	var text string
	switch k {
	case renderer.KindFlower:
		text, err = eng.MakeFlower(rng, p, dst)
	case renderer.KindPetals:
		text, err = eng.MakePetals(rng, p, dst)
	case renderer.KindLayer:
		text, err = eng.MakePetalLayer(rng, p, *layer, dst)
	case renderer.KindStem:
		text, err = eng.MakeStem(rng, p, dst)
	}
	if err != nil {
		return err
	}
	if dst != nil {
		if err := writePNG(*pngPath, dst.Image(), *thumb); err != nil {
			return err
		}
	}
	return writeOutput(*out, text)
}

func runDraw(args []string) error {
	c := newCommon("draw")
	in := c.fs.String("in", "", "Flower file (empty = stdin)")
	kind := c.fs.String("kind", "flower", "What to draw: flower, petals, layer or stem")
	layer := c.fs.Int("layer", 0, "Layer index for -kind layer")
	scale := c.fs.Bool("scale", false, "Draw a layer at the radius it has inside the flower")
	pngPath := c.fs.String("png", "flower.png", "PNG file to write")
	thumb := c.fs.Int("thumb", 0, "Shrink the PNG to fit this many pixels (0 = full size)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	k, err := parseKind(*kind)
	if err != nil {
		return err
	}
	_, eng, _, err := c.setup()
	if err != nil {
		return err
	}
	text, err := readInput(*in)
	if err != nil {
		return err
	}
	// Unless overridden, draw with the parameters the flower was made with.
	embedded, err := eng.EmbeddedParams(text)
	if err != nil {
		return err
	}
	p := c.params(embedded)

	dst := &renderer.Surface{}
	switch k {
	case renderer.KindFlower:
		err = eng.DrawFlower(text, p, dst)
	case renderer.KindPetals:
		err = eng.DrawPetals(text, p, dst)
	case renderer.KindLayer:
		err = eng.DrawPetalLayer(text, p, *layer, *scale, dst)
	case renderer.KindStem:
		err = eng.DrawStem(text, p, dst)
	}
	if err != nil {
		return err
	}
	return writePNG(*pngPath, dst.Image(), *thumb)
}

func runReproduce(args []string) error {
	c := newCommon("reproduce")
	father := c.fs.String("father", "", "Father flower file")
	mother := c.fs.String("mother", "", "Mother flower file")
	ranked := c.fs.Bool("ranked", false, "Favour the fitter parent's unmatched genes")
	fatherFitness := c.fs.Float64("father-fitness", 0, "Father fitness for -ranked")
	motherFitness := c.fs.Float64("mother-fitness", 0, "Mother fitness for -ranked")
	out := c.fs.String("o", "", "Output file for the child (empty = stdout)")
	pngPath := c.fs.String("png", "", "Write the child's petals to this PNG file")
	thumb := c.fs.Int("thumb", 0, "Shrink the PNG to fit this many pixels (0 = full size)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if *father == "" || *mother == "" {
		return fmt.Errorf("-father and -mother are required")
	}
	cfg, eng, rng, err := c.setup()
	if err != nil {
		return err
	}
	f1, err := readInput(*father)
	if err != nil {
		return err
	}
	f2, err := readInput(*mother)
	if err != nil {
		return err
	}
	p := c.params(cfg.Phenotype)

	var dst *renderer.Surface
	if *pngPath != "" {
		dst = &renderer.Surface{}
	}
	var child string
	if *ranked {
		child, err = eng.ReproduceRanked(rng, f1, f2, *fatherFitness, *motherFitness, p, dst)
	} else {
		child, err = eng.Reproduce(rng, f1, f2, p, dst)
	}
	if err != nil {
		return err
	}
	if dst != nil {
		if err := writePNG(*pngPath, dst.Image(), *thumb); err != nil {
			return err
		}
	}
	return writeOutput(*out, child)
}

func runMutate(args []string) error {
	c := newCommon("mutate")
	in := c.fs.String("in", "", "Flower file (empty = stdin)")
	times := c.fs.Int("n", 1, "Number of successive mutations")
	out := c.fs.String("o", "", "Output file for the mutant (empty = stdout)")
	pngPath := c.fs.String("png", "", "Write the mutant's petals to this PNG file")
	thumb := c.fs.Int("thumb", 0, "Shrink the PNG to fit this many pixels (0 = full size)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if *times < 1 {
		return fmt.Errorf("-n must be at least 1, got %d", *times)
	}
	cfg, eng, rng, err := c.setup()
	if err != nil {
		return err
	}
	text, err := readInput(*in)
	if err != nil {
		return err
	}
	p := c.params(cfg.Phenotype)

	var dst *renderer.Surface
	for i := range *times {
		if i == *times-1 && *pngPath != "" {
			dst = &renderer.Surface{}
		}
		if text, err = eng.Mutate(rng, text, p, cfg.Mutation.Rates, dst); err != nil {
			return err
		}
	}
	if dst != nil {
		if err := writePNG(*pngPath, dst.Image(), *thumb); err != nil {
			return err
		}
	}
	return writeOutput(*out, text)
}

// StatsRow is one flower's stats in CSV form.
type StatsRow struct {
	File         string  `csv:"file"`
	Health       int     `csv:"health"`
	Stamina      int     `csv:"stamina"`
	MinTemp      int     `csv:"min_temp"`
	MaxTemp      int     `csv:"max_temp"`
	Maturation   int     `csv:"maturation"`
	Sex          string  `csv:"sex"`
	Toxicity     float64 `csv:"toxicity"`
	Vitality     float64 `csv:"vitality"`
	Agility      float64 `csv:"agility"`
	Intelligence float64 `csv:"intelligence"`
	Strength     float64 `csv:"strength"`
	Luck         float64 `csv:"luck"`
}

func newStatsRow(file string, s stats.Stats) StatsRow {
	return StatsRow{
		File:         file,
		Health:       s.Health,
		Stamina:      s.Stamina,
		MinTemp:      s.MinTemperature,
		MaxTemp:      s.MaxTemperature,
		Maturation:   s.MaturationPeriod,
		Sex:          s.Sex.String(),
		Toxicity:     s.ToxicityRate,
		Vitality:     s.Effects.Vitality,
		Agility:      s.Effects.Agility,
		Intelligence: s.Effects.Intelligence,
		Strength:     s.Effects.Strength,
		Luck:         s.Effects.Luck,
	}
}

func runStats(args []string) error {
	c := newCommon("stats")
	humidity := c.fs.Float64("humidity", math.NaN(), "Humidity in [0, 1] (default from config)")
	temperature := c.fs.Int("temperature", math.MinInt, "Temperature (default from config)")
	altitude := c.fs.Int("altitude", math.MinInt, "Altitude (default from config)")
	terrain := c.fs.Int("terrain", math.MinInt, "Terrain type (default from config)")
	asCSV := c.fs.Bool("csv", false, "Write one CSV row per flower instead of JSON")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	cfg, eng, _, err := c.setup()
	if err != nil {
		return err
	}
	env := cfg.Garden.Environment()
	if !math.IsNaN(*humidity) {
		env.Humidity = *humidity
	}
	if *temperature != math.MinInt {
		env.Temperature = *temperature
	}
	if *altitude != math.MinInt {
		env.Altitude = *altitude
	}
	if *terrain != math.MinInt {
		env.TerrainType = *terrain
	}

	files := c.fs.Args()
	if len(files) == 0 {
		files = []string{"-"}
	}
	var rows []StatsRow
	for _, file := range files {
		text, err := readInput(file)
		if err != nil {
			return err
		}
		out, err := eng.Stats(text, env)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if !*asCSV {
			if err := writeOutput("", out); err != nil {
				return err
			}
			continue
		}
		var s stats.Stats
		if err := json.Unmarshal([]byte(out), &s); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		rows = append(rows, newStatsRow(file, s))
	}
	if *asCSV {
		return gocsv.Marshal(&rows, os.Stdout)
	}
	return nil
}

func runModel3D(args []string) error {
	c := newCommon("model3d")
	in := c.fs.String("in", "", "Flower file (empty = stdin)")
	id := c.fs.String("id", "flower", "Model identifier")
	sex := c.fs.String("sex", "both", "Organs to build: both, male or female")
	normals := c.fs.Bool("normals", false, "Attach normal maps")
	emissive := c.fs.Bool("emissive", false, "Attach emissive maps to petals")
	out := c.fs.String("o", "flower.gltf", "glTF file to write (- = stdout)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	s, err := flower.ParseSex(*sex)
	if err != nil {
		return err
	}
	_, eng, _, err := c.setup()
	if err != nil {
		return err
	}
	text, err := readInput(*in)
	if err != nil {
		return err
	}
	doc, err := eng.Model3D(text, *id, model3d.Options{Sex: s, UseNormals: *normals, UseEmissive: *emissive})
	if err != nil {
		return err
	}
	return writeOutput(*out, doc)
}

// NEATCheck reports how far goNEAT's evaluation of one genome strays from
// the native evaluator.
type NEATCheck struct {
	Genome  int     `json:"genome"`
	Samples int     `json:"samples"`
	MaxDiff float64 `json:"maxDiff"`
	Exact   bool    `json:"exact"` // only identity, sigmoid, tanh and sine activations
}

func runNEAT(args []string) error {
	c := newCommon("neat")
	in := c.fs.String("in", "", "Flower file (empty = stdin)")
	samples := c.fs.Int("samples", 32, "Random inputs per genome")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	_, _, rng, err := c.setup()
	if err != nil {
		return err
	}
	text, err := readInput(*in)
	if err != nil {
		return err
	}
	f, err := flower.Decode(text)
	if err != nil {
		return err
	}

	checks := make([]NEATCheck, 0, len(f.DNA.Genomes))
	for i, g := range f.DNA.Genomes {
		check, err := crossCheck(rng, g, *samples)
		if err != nil {
			return fmt.Errorf("genome %d: %w", i, err)
		}
		check.Genome = i
		checks = append(checks, check)
	}
	data, err := json.Marshal(checks)
	if err != nil {
		return err
	}
	return writeOutput("", string(data))
}

func crossCheck(rng *rand.Rand, g *neural.Genome, samples int) (NEATCheck, error) {
	net, err := neural.Compile(g)
	if err != nil {
		return NEATCheck{}, err
	}
	check := NEATCheck{Samples: samples, Exact: true}
	for _, n := range g.Nodes {
		if n.Activation == neural.Gaussian || n.Activation == neural.Step {
			check.Exact = false
		}
	}
	in := make([]float64, g.Inputs)
	want := make([]float64, g.Outputs)
	for range samples {
		for i := range in {
			in[i] = rng.Float64()*2 - 1
		}
		if err := net.Activate(in, want); err != nil {
			return NEATCheck{}, err
		}
		got, err := neural.ActivateNEAT(g, in)
		if err != nil {
			return NEATCheck{}, err
		}
		for i := range want {
			if i < len(got) {
				check.MaxDiff = math.Max(check.MaxDiff, math.Abs(got[i]-want[i]))
			}
		}
	}
	return check, nil
}
