package neural

import (
	"fmt"
	"math"
)

// Activation identifies a node's transfer function. The set is fixed:
// genomes store activations by name, so adding or reordering members
// changes the meaning of every stored genome.
type Activation uint8

const (
	Identity Activation = iota
	Sigmoid
	Tanh
	Sine
	Gaussian
	Step

	numActivations
)

var activationNames = [numActivations]string{
	Identity: "identity",
	Sigmoid:  "sigmoid",
	Tanh:     "tanh",
	Sine:     "sine",
	Gaussian: "gaussian",
	Step:     "step",
}

// Activations returns every member of the activation set in tag order.
func Activations() []Activation {
	out := make([]Activation, numActivations)
	for i := range out {
		out[i] = Activation(i)
	}
	return out
}

// String returns the tag used in the exchange format.
func (a Activation) String() string {
	if a >= numActivations {
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
	return activationNames[a]
}

// Valid reports whether a is a member of the activation set.
func (a Activation) Valid() bool {
	return a < numActivations
}

// ParseActivation maps an exchange-format tag to its Activation.
func ParseActivation(name string) (Activation, error) {
	for i, n := range activationNames {
		if n == name {
			return Activation(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
}

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case Identity:
		return x
	case Sigmoid:
		return 1.0 / (1.0 + math.Exp(-x))
	case Tanh:
		return math.Tanh(x)
	case Sine:
		return math.Sin(x)
	case Gaussian:
		return math.Exp(-x * x)
	case Step:
		if x > 0 {
			return 1
		}
		return 0
	}
	// Unreachable for validated genomes; Compile rejects unknown tags.
	return math.NaN()
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActivation, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	v, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
