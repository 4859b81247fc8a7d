// Package stats derives environment-dependent traits of a flower from its
// stats network.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/bloom/flower"
	"github.com/pthm-cable/bloom/neural"
)

// Output channels of the stats network.
const (
	outEffect0    = 0 // 0-4 shape the effect curve
	outEffectSign = 5
	outHealth     = 6
	outStamina    = 7
	outMinTemp    = 8
	outMaxTemp    = 9
	outMaturation = 10
	outMale       = 11
	outFemale     = 12
	outToxicity   = 13
)

const (
	inputRange  = 10000.0 // environment inputs are clamped to ±inputRange
	effectStep  = 1000    // effect id spacing fed through the transforms
	effectLimit = 100.0
)

// Environment describes where the flower grows.
type Environment struct {
	Humidity    float64 `json:"humidity" yaml:"humidity"` // in [0, 1]
	Temperature int     `json:"temperature" yaml:"temperature"`
	Altitude    int     `json:"altitude" yaml:"altitude"`
	TerrainType int     `json:"terrainType" yaml:"terrain_type"`
}

// Validate checks humidity lies in [0, 1].
func (e Environment) Validate() error {
	if math.IsNaN(e.Humidity) || e.Humidity < 0 || e.Humidity > 1 {
		return fmt.Errorf("%w: humidity must be in [0, 1], got %v", flower.ErrInvalidParams, e.Humidity)
	}
	return nil
}

// Effects are the five signed effect strengths, each in [-100, 100].
type Effects struct {
	Vitality     float64 `json:"vitality"`
	Agility      float64 `json:"agility"`
	Intelligence float64 `json:"intelligence"`
	Strength     float64 `json:"strength"`
	Luck         float64 `json:"luck"`
}

// Stats are the metrics of one flower in one environment.
type Stats struct {
	Health           int        `json:"health"`
	Stamina          int        `json:"stamina"`
	MinTemperature   int        `json:"minTemperature"`
	MaxTemperature   int        `json:"maxTemperature"`
	MaturationPeriod int        `json:"maturationPeriod"`
	Sex              flower.Sex `json:"sex"`
	ToxicityRate     float64    `json:"toxicityRate"`
	Effects          Effects    `json:"effects"`
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("health", s.Health),
		slog.Int("stamina", s.Stamina),
		slog.Int("min_temp", s.MinTemperature),
		slog.Int("max_temp", s.MaxTemperature),
		slog.Int("maturation", s.MaturationPeriod),
		slog.String("sex", s.Sex.String()),
		slog.Float64("toxicity", s.ToxicityRate),
	)
}

// JSON returns the text form handed across the engine boundary.
func (s Stats) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Tolerates reports whether temperature lies within the flower's range.
func (s Stats) Tolerates(temperature int) bool {
	return temperature >= s.MinTemperature && temperature <= s.MaxTemperature
}

// Compute evaluates the stats network of f in env.
func Compute(f *flower.Flower, env Environment) (Stats, error) {
	if err := env.Validate(); err != nil {
		return Stats{}, err
	}
	if len(f.DNA.Genomes) < flower.NumGenomes {
		return Stats{}, fmt.Errorf("%w: DNA needs %d genomes, got %d", neural.ErrMalformed, flower.NumGenomes, len(f.DNA.Genomes))
	}
	g := f.Stats()
	if g.Inputs != neural.StatsInputs || g.Outputs != neural.StatsOutputs {
		return Stats{}, fmt.Errorf("%w: stats network must be %d->%d, got %d->%d", neural.ErrIncompatible,
			neural.StatsInputs, neural.StatsOutputs, g.Inputs, g.Outputs)
	}
	net, err := neural.Compile(g)
	if err != nil {
		return Stats{}, err
	}

	humidity := normalize(env.Humidity)
	temperature := normalize(float64(env.Temperature))
	altitude := normalize(float64(env.Altitude))
	terrain := normalize(float64(env.TerrainType))

	out := make([]float64, neural.StatsOutputs)
	if err := net.Activate([]float64{humidity, temperature, altitude, terrain}, out); err != nil {
		return Stats{}, err
	}

	s := Stats{
		Health:           clampInt(toInt(math.Abs(out[outHealth])*10), 1, 100),
		Stamina:          clampInt(toInt(math.Abs(out[outStamina])*10), 1, 100),
		MinTemperature:   clampInt(toInt(math.Abs(out[outMinTemp]))*10, 0, 50),
		MaxTemperature:   clampInt(toInt(math.Abs(out[outMaxTemp]))*10, 2, 50),
		MaturationPeriod: clampInt(toInt(math.Abs(out[outMaturation]))*10, 1, 100),
		Sex:              sexOf(out[outMale], out[outFemale]),
		ToxicityRate:     clampFloat(math.Round(out[outToxicity]), -100, 100),
	}
	if s.MinTemperature > s.MaxTemperature {
		s.MinTemperature, s.MaxTemperature = s.MaxTemperature, s.MinTemperature
	}

	transforms := [5]func(float64) float64{math.Sin, math.Cosh, math.Sinh, math.Tan, math.Cos}
	targets := [5]*float64{&s.Effects.Vitality, &s.Effects.Agility, &s.Effects.Intelligence, &s.Effects.Strength, &s.Effects.Luck}
	for i, fn := range transforms {
		in := []float64{humidity, temperature, altitude, fn(normalize(float64(effectStep * i)))}
		if err := net.Activate(in, out); err != nil {
			return Stats{}, err
		}
		*targets[i] = clampFloat(effect(out), -effectLimit, effectLimit)
	}
	return s, nil
}

// effect turns outputs 0-5 into a signed strength: linear for small raw
// values, cubic once they grow.
func effect(out []float64) float64 {
	sign := -1.0
	if out[outEffectSign] > 0.5 {
		sign = 1.0
	}
	left := math.Abs(out[outEffect0]) + math.Abs(out[outEffect0+1])
	right := math.Abs(out[outEffect0+3]) + math.Abs(out[outEffect0+4])
	raw := left * out[outEffect0+2] * right
	a := 1.5 * math.Abs(out[outEffect0])
	b := 0.05 * math.Abs(out[outEffect0+3])
	v := math.Round(sign * (a*raw + b*raw*raw*raw))
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func sexOf(male, female float64) flower.Sex {
	switch {
	case male > 0.5 && female > 0.5:
		return flower.Both
	case female > 0.5:
		return flower.Female
	case male > 0.5:
		return flower.Male
	}
	return flower.Both
}

// normalize maps [-inputRange, inputRange] onto [-1, 1].
func normalize(v float64) float64 {
	return clampFloat(v, -inputRange, inputRange) / inputRange
}

// toInt truncates toward zero, saturating far outside the metric ranges.
func toInt(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(-1e6, math.Min(1e6, v)))
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, lo), hi)
}
