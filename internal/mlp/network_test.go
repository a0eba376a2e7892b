package mlp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func identityModel(dim int, act Activation) *Model {
	std := make([]float64, dim)
	flat := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		std[i] = 1
		flat[i*dim+i] = 1
	}
	return &Model{
		DimInput: dim,
		Mean:     make([]float64, dim),
		Std:      std,
		Layers: []Layer{{
			InputDim:   dim,
			OutputDim:  dim,
			Weights:    mat.NewDense(dim, dim, flat),
			Bias:       mat.NewVecDense(dim, nil),
			Activation: act,
		}},
	}
}

func TestRun_ReluIdentity(t *testing.T) {
	m := identityModel(1, ActivationRelu)
	for _, tt := range []struct{ in, want float64 }{
		{2.5, 2.5},
		{0, 0},
		{-3, 0},
	} {
		got, err := m.Run([]float64{tt.in})
		if err != nil {
			t.Fatalf("Run(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("relu(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRun_NormalizationIdentity(t *testing.T) {
	// With mean 0 and std 1 the normalized input equals the raw input, so
	// an identity relu layer returns the (non-negative) input unchanged.
	m := identityModel(1, ActivationRelu)
	got, err := m.Run([]float64{1.75})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != 1.75 {
		t.Errorf("got %v, want 1.75", got)
	}
}

func TestRun_Normalization(t *testing.T) {
	m := identityModel(1, ActivationRelu)
	m.Mean = []float64{1}
	m.Std = []float64{2}
	got, err := m.Run([]float64{5}) // (5-1)/2 = 2
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != 2 {
		t.Errorf("got %v, want 2", got)
	}
}

func TestRun_LayerOutputFeedsNextLayer(t *testing.T) {
	// Layer 1 is a 2x2 identity relu; layer 2 sums both values through a
	// sigmoid. The result is only correct if layer 1's output actually
	// reaches layer 2.
	m := identityModel(2, ActivationRelu)
	m.Layers = append(m.Layers, Layer{
		InputDim:   2,
		OutputDim:  1,
		Weights:    mat.NewDense(2, 1, []float64{1, 1}),
		Bias:       mat.NewVecDense(1, []float64{0.5}),
		Activation: ActivationSigmoid,
	})

	got, err := m.Run([]float64{1, 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := 1 / (1 + math.Exp(-3.5))
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want sigmoid(3.5) = %v", got, want)
	}
}

func TestRun_Tanh(t *testing.T) {
	m := identityModel(1, ActivationTanh)
	got, err := m.Run([]float64{0.4})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if math.Abs(got-math.Tanh(0.4)) > 1e-12 {
		t.Errorf("got %v, want tanh(0.4)", got)
	}
}

func TestRun_InputLengthMismatch(t *testing.T) {
	m := identityModel(2, ActivationRelu)
	if _, err := m.Run([]float64{1}); err == nil {
		t.Error("expected error for short input")
	}
}

func TestRun_NonScalarOutput(t *testing.T) {
	// An unvalidated model whose final layer emits two values must fail
	// evaluation rather than return a bogus probability.
	m := identityModel(2, ActivationRelu)
	if _, err := m.Run([]float64{1, 2}); err == nil {
		t.Error("expected error for non-scalar output")
	}
}
