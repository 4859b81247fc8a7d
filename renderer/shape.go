package renderer

import "math"

// Superformula is the petal outline: a Gielis superformula with symmetry
// m = P and equal exponents n = 2 + |bias|, normalized so its maximum is 1.
// With bias 0 the outline is a circle; larger |bias| pinches the petals.
//
//	s(θ) = (|cos(Pθ/4)|^n + |sin(Pθ/4)|^n)^(-1/n) / 2^(1/2 - 1/n)
//
// The petal boundary at angle θ is r(θ) = layerRadius * |o_r| * s(θ),
// where o_r is the network's radius output at the rim.
type Superformula struct {
	p    float64
	n    float64
	norm float64
}

// NewSuperformula builds the shape for exponent p and bias.
func NewSuperformula(p, bias float64) Superformula {
	n := 2 + math.Abs(bias)
	return Superformula{p: p, n: n, norm: math.Pow(2, 0.5-1/n)}
}

// At returns the normalized outline radius at theta, in (0, 1].
func (s Superformula) At(theta float64) float64 {
	t := s.p * theta / 4
	u := math.Pow(math.Abs(math.Cos(t)), s.n) + math.Pow(math.Abs(math.Sin(t)), s.n)
	return math.Pow(u, -1/s.n) / s.norm
}

// AngleChannel is the angular input fed to the network.
func (s Superformula) AngleChannel(theta float64) float64 {
	return math.Sin(s.p * theta)
}
