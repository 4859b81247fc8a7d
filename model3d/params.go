package model3d

import (
	"fmt"

	"github.com/pthm-cable/bloom/flower"
)

// Options are the per-request switches of a model build.
type Options struct {
	Sex         flower.Sex
	UseNormals  bool // attach generated normal maps to petals and organs
	UseEmissive bool // attach emissive maps to petals
}

// Parameters size every part of the model. Lengths are in metres; the
// *Frac fields are fractions of a petal layer's radius.
type Parameters struct {
	StemHeight   float64 `yaml:"stem_height"`
	StemRadius   float64 `yaml:"stem_radius"`
	StemSegments int     `yaml:"stem_segments"`

	PistilStyleHeight           float64 `yaml:"pistil_style_height"`
	PistilStyleRadius           float64 `yaml:"pistil_style_radius"`
	PistilStigmaRadialSegments  int     `yaml:"pistil_stigma_radial_segments"`
	PistilStigmaHeight          float64 `yaml:"pistil_stigma_height"`
	PistilStigmaMaxWidthFactor  float64 `yaml:"pistil_stigma_max_width_factor"`
	PistilStigmaTipNarrowFactor float64 `yaml:"pistil_stigma_tip_narrow_factor"`

	StamenCount                  int     `yaml:"stamen_count"`
	StamenFilamentRadialSegments int     `yaml:"stamen_filament_radial_segments"`
	StamenFilamentHeight         float64 `yaml:"stamen_filament_height"`
	StamenFilamentRadius         float64 `yaml:"stamen_filament_radius"`
	StamenAntherRadialSegments   int     `yaml:"stamen_anther_radial_segments"`
	StamenAntherHeight           float64 `yaml:"stamen_anther_height"`

	PetalScaleFactor         float64 `yaml:"petal_scale_factor"` // metres per pixel
	ConnectionRadiusFrac     float64 `yaml:"connection_radius_frac"`
	DroopStartFrac           float64 `yaml:"droop_start_frac"`
	PeakHeightOffset         float64 `yaml:"peak_height_offset"`
	PetalDroopFactor         float64 `yaml:"petal_droop_factor"` // drop per metre beyond the peak ring
	LayerVerticalSpacing     float64 `yaml:"layer_vertical_spacing"`
	ConnectionVerticalOffset float64 `yaml:"connection_vertical_offset"` // inner ring height, fraction of layer radius

	ContourSimplificationTolerance float64 `yaml:"contour_simplification_tolerance"` // pixels
	AlphaThreshold                 uint8   `yaml:"alpha_threshold"`
}

// DefaultParameters returns a hand-sized flower: a 50 cm stem carrying a
// head of roughly 6 cm radius at the default 64 px petals radius.
func DefaultParameters() Parameters {
	return Parameters{
		StemHeight:   0.5,
		StemRadius:   0.005,
		StemSegments: 12,

		PistilStyleHeight:           0.02,
		PistilStyleRadius:           0.0008,
		PistilStigmaRadialSegments:  12,
		PistilStigmaHeight:          0.002,
		PistilStigmaMaxWidthFactor:  2,
		PistilStigmaTipNarrowFactor: 0.01,

		StamenCount:                  6,
		StamenFilamentRadialSegments: 12,
		StamenFilamentHeight:         0.018,
		StamenFilamentRadius:         0.0005,
		StamenAntherRadialSegments:   12,
		StamenAntherHeight:           0.002,

		PetalScaleFactor:         0.001,
		ConnectionRadiusFrac:     0.2,
		DroopStartFrac:           0.4,
		PeakHeightOffset:         0.008,
		PetalDroopFactor:         0.3,
		LayerVerticalSpacing:     0.004,
		ConnectionVerticalOffset: -0.05,

		ContourSimplificationTolerance: 0.5,
		AlphaThreshold:                 10,
	}
}

// Validate rejects sizes that cannot produce geometry.
func (p Parameters) Validate() error {
	switch {
	case p.StemHeight <= 0 || p.StemRadius <= 0:
		return fmt.Errorf("%w: stem height and radius must be positive", flower.ErrInvalidParams)
	case p.StemSegments < 3 || p.PistilStigmaRadialSegments < 3 ||
		p.StamenFilamentRadialSegments < 3 || p.StamenAntherRadialSegments < 3:
		return fmt.Errorf("%w: radial segments must be at least 3", flower.ErrInvalidParams)
	case p.StamenCount < 0:
		return fmt.Errorf("%w: stamen count must not be negative", flower.ErrInvalidParams)
	case p.PetalScaleFactor <= 0:
		return fmt.Errorf("%w: petal scale factor must be positive", flower.ErrInvalidParams)
	case p.ConnectionRadiusFrac <= 0 || p.ConnectionRadiusFrac >= p.DroopStartFrac || p.DroopStartFrac >= 1:
		return fmt.Errorf("%w: need 0 < connection radius < droop start < 1", flower.ErrInvalidParams)
	case p.ContourSimplificationTolerance < 0:
		return fmt.Errorf("%w: simplification tolerance must not be negative", flower.ErrInvalidParams)
	}
	return nil
}
