package model3d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func stemMaterial() Material        { return baseMaterial("Stem", 0.2, 0.6, 0.2, 0.1, 0.9) }
func pistilStyleMaterial() Material { return baseMaterial("PistilStyle", 0.2, 0.6, 0.2, 0.1, 0.9) }
func filamentMaterial() Material    { return baseMaterial("StamenFilament", 0.85, 0.85, 0.6, 0.0, 0.8) }

func stigmaMaterial(normal int) Material {
	m := baseMaterial("PistilStigma", 0.2, 0.8, 0.2, 0.1, 0.7)
	m.NormalTexture = normal
	return m
}

func antherMaterial(normal int) Material {
	m := baseMaterial("StamenAnther", 0.8, 0.8, 0.0, 0.0, 0.6)
	m.NormalTexture = normal
	return m
}

func petalMaterial(name string, texture, normal, emissive int) Material {
	m := baseMaterial(name, 1, 1, 1, 0, 0.8)
	m.BaseColorTexture = texture
	m.NormalTexture = normal
	m.AlphaMask = true
	m.AlphaCutoff = 0.5
	m.DoubleSided = true
	m.IOR = 1.4
	m.Transmission = 0.09
	if emissive >= 0 {
		m.EmissiveTexture = emissive
		m.EmissiveStrength = 2.0
	}
	return m
}

// stem is a capped cylinder from the ground to the flower head.
func stem(p Parameters, material int) (*Mesh, error) {
	m := NewMesh("Stem", material)
	profile := []Ring{
		{Center: r3.Vec{}, RadiusU: p.StemRadius * 1.2, RadiusW: p.StemRadius * 1.2},
		{Center: r3.Vec{Y: p.StemHeight * 0.5}, RadiusU: p.StemRadius, RadiusW: p.StemRadius},
		{Center: r3.Vec{Y: p.StemHeight}, RadiusU: p.StemRadius * 0.9, RadiusW: p.StemRadius * 0.9},
	}
	if err := m.AddSegmentedCylinder(profile, p.StemSegments, true, true); err != nil {
		return nil, fmt.Errorf("stem: %w", err)
	}
	m.ComputeNormals()
	return m, nil
}

// pistil returns the style, a slightly bulging column, and the stigma
// that widens then closes at the tip.
func pistil(p Parameters, base r3.Vec, styleMat, stigmaMat int) (style, stigma *Mesh, err error) {
	style = NewMesh("PistilStyle", styleMat)
	widths := []float64{1.2, 1.05, 1.0, 0.9, 0.8}
	profile := make([]Ring, len(widths))
	for i, f := range widths {
		h := p.PistilStyleHeight * float64(i) / float64(len(widths)-1)
		r := p.PistilStyleRadius * f
		profile[i] = Ring{Center: r3.Add(base, r3.Vec{Y: h}), RadiusU: r, RadiusW: r}
	}
	if err := style.AddSegmentedCylinder(profile, p.PistilStigmaRadialSegments, true, false); err != nil {
		return nil, nil, fmt.Errorf("pistil style: %w", err)
	}
	style.ComputeNormals()

	top := profile[len(profile)-1]
	stigma = NewMesh("PistilStigma", stigmaMat)
	r := top.RadiusU
	tip := []Ring{
		top,
		{Center: r3.Add(top.Center, r3.Vec{Y: p.PistilStigmaHeight * 0.5}), RadiusU: r * p.PistilStigmaMaxWidthFactor, RadiusW: r * p.PistilStigmaMaxWidthFactor},
		{Center: r3.Add(top.Center, r3.Vec{Y: p.PistilStigmaHeight}), RadiusU: r * p.PistilStigmaTipNarrowFactor, RadiusW: r * p.PistilStigmaTipNarrowFactor},
	}
	if err := stigma.AddSegmentedCylinder(tip, p.PistilStigmaRadialSegments, false, true); err != nil {
		return nil, nil, fmt.Errorf("pistil stigma: %w", err)
	}
	stigma.ComputeNormals()
	return style, stigma, nil
}

// stamen returns a filament leaning away from the centre along outward
// and the anther capping it.
func stamen(p Parameters, index int, base, outward r3.Vec, filamentMat, antherMat int) (filament, anther *Mesh, err error) {
	h := p.StamenFilamentHeight
	r := p.StamenFilamentRadius
	filament = NewMesh(fmt.Sprintf("StamenFilament_%d", index), filamentMat)
	profile := []Ring{
		{Center: base, RadiusU: r, RadiusW: r},
		{Center: r3.Add(base, r3.Add(r3.Scale(0.1*h, outward), r3.Vec{Y: 0.5 * h})), RadiusU: r * 0.9, RadiusW: r * 0.9},
		{Center: r3.Add(base, r3.Add(r3.Scale(0.25*h, outward), r3.Vec{Y: h})), RadiusU: r * 0.8, RadiusW: r * 0.8},
	}
	if err := filament.AddSegmentedCylinder(profile, p.StamenFilamentRadialSegments, true, false); err != nil {
		return nil, nil, fmt.Errorf("stamen %d filament: %w", index, err)
	}
	filament.ComputeNormals()

	top := profile[len(profile)-1].Center
	ah := p.StamenAntherHeight
	ar := r * 3
	anther = NewMesh(fmt.Sprintf("StamenAnther_%d", index), antherMat)
	// Flattened along the outward direction like a real anther.
	rings := []Ring{
		{Center: top, RadiusU: ar * 0.5, RadiusW: ar * 0.3, UAxis: outward},
		{Center: r3.Add(top, r3.Vec{Y: ah * 0.5}), RadiusU: ar, RadiusW: ar * 0.6, UAxis: outward},
		{Center: r3.Add(top, r3.Vec{Y: ah}), RadiusU: ar * 0.4, RadiusW: ar * 0.25, UAxis: outward},
	}
	if err := anther.AddSegmentedCylinder(rings, p.StamenAntherRadialSegments, true, true); err != nil {
		return nil, nil, fmt.Errorf("stamen %d anther: %w", index, err)
	}
	anther.ComputeNormals()
	return filament, anther, nil
}

// stamenRing places count stamen bases evenly on a circle of radius around centre.
func stamenRing(centre r3.Vec, radius float64, count int) (bases, outwards []r3.Vec) {
	for i := range count {
		a := 2 * math.Pi * float64(i) / float64(count)
		out := r3.Vec{X: math.Cos(a), Z: math.Sin(a)}
		bases = append(bases, r3.Add(centre, r3.Scale(radius, out)))
		outwards = append(outwards, out)
	}
	return bases, outwards
}
