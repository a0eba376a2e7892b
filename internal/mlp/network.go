package mlp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Run evaluates the network on one feature vector and returns the scalar
// output. The input length must equal DimInput; callers guarantee Std has
// no zero entries (division by a zero std is a contract violation, not
// guarded here).
func (m *Model) Run(input []float64) (float64, error) {
	if len(input) != m.DimInput {
		return 0, fmt.Errorf("input has %d values, model wants %d", len(input), m.DimInput)
	}

	normalized := make([]float64, m.DimInput)
	for i, v := range input {
		normalized[i] = (v - m.Mean[i]) / m.Std[i]
	}

	// Each layer's output vector becomes the next layer's input.
	vec := mat.NewVecDense(m.DimInput, normalized)
	for i := range m.Layers {
		layer := &m.Layers[i]
		out := mat.NewVecDense(layer.OutputDim, nil)
		out.MulVec(layer.Weights.T(), vec)
		out.AddVec(out, layer.Bias)
		for col := 0; col < layer.OutputDim; col++ {
			out.SetVec(col, layer.Activation.apply(out.AtVec(col)))
		}
		vec = out
	}

	if vec.Len() != 1 {
		return 0, fmt.Errorf("model output has %d values, want exactly 1", vec.Len())
	}
	return vec.AtVec(0), nil
}
