// Package mlp evaluates a small, externally trained feed-forward network
// over a feature vector. The model arrives as data (weights, biases,
// normalization statistics), never as code, and is immutable once loaded.
package mlp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation selects the nonlinearity applied to a layer's weighted sum.
// Model files carry a string tag; it is resolved to one of these exactly
// once at load time.
type Activation int

const (
	ActivationRelu Activation = iota
	ActivationSigmoid
	ActivationTanh
)

// ActivationFromTag resolves a model file's activation tag. Unrecognised
// tags fall back to sigmoid; the second return reports whether the tag
// was known so the loader can warn.
func ActivationFromTag(tag string) (Activation, bool) {
	switch tag {
	case "relu":
		return ActivationRelu, true
	case "sigmoid":
		return ActivationSigmoid, true
	case "tanh":
		return ActivationTanh, true
	}
	return ActivationSigmoid, false
}

func (a Activation) String() string {
	switch a {
	case ActivationRelu:
		return "relu"
	case ActivationTanh:
		return "tanh"
	default:
		return "sigmoid"
	}
}

func (a Activation) apply(x float64) float64 {
	switch a {
	case ActivationRelu:
		return math.Max(0, x)
	case ActivationTanh:
		return math.Tanh(x)
	default:
		return 1 / (1 + math.Exp(-x))
	}
}

// Layer is one dense layer: an InputDim x OutputDim weight matrix, a bias
// per output column, and the activation applied to each column.
type Layer struct {
	InputDim   int
	OutputDim  int
	Weights    *mat.Dense    // InputDim x OutputDim
	Bias       *mat.VecDense // length OutputDim
	Activation Activation
}

// Model is an immutable network description: input dimensionality,
// per-feature normalization statistics, and the ordered layers.
type Model struct {
	DimInput int
	Mean     []float64
	Std      []float64
	Layers   []Layer
}

// Validate checks the model's internal shape consistency: normalization
// arrays match DimInput, each layer's dimensions match its weight and
// bias shapes, consecutive layers chain, and the final layer emits
// exactly one value.
func (m *Model) Validate() error {
	if m.DimInput <= 0 {
		return fmt.Errorf("input dimension %d is not positive", m.DimInput)
	}
	if len(m.Mean) != m.DimInput || len(m.Std) != m.DimInput {
		return fmt.Errorf("normalization stats have %d/%d values, want %d",
			len(m.Mean), len(m.Std), m.DimInput)
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("model has no layers")
	}
	prev := m.DimInput
	for i := range m.Layers {
		l := &m.Layers[i]
		if l.InputDim != prev {
			return fmt.Errorf("layer %d input dim %d does not chain from %d", i, l.InputDim, prev)
		}
		if l.Weights == nil || l.Bias == nil {
			return fmt.Errorf("layer %d is missing weights or bias", i)
		}
		r, c := l.Weights.Dims()
		if r != l.InputDim || c != l.OutputDim {
			return fmt.Errorf("layer %d weight matrix is %dx%d, want %dx%d",
				i, r, c, l.InputDim, l.OutputDim)
		}
		if l.Bias.Len() != l.OutputDim {
			return fmt.Errorf("layer %d bias has %d values, want %d", i, l.Bias.Len(), l.OutputDim)
		}
		prev = l.OutputDim
	}
	if prev != 1 {
		return fmt.Errorf("final layer emits %d values, want exactly 1", prev)
	}
	return nil
}
