package mlp

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

// Wire-format builders mirroring the schema in load.go.

func vectorBytes(vals []float64) []byte {
	var packed []byte
	for _, v := range vals {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	var vec []byte
	vec = protowire.AppendTag(vec, fieldVectorValue, protowire.BytesType)
	vec = protowire.AppendBytes(vec, packed)
	return vec
}

func matrixBytes(rows [][]float64) []byte {
	var m []byte
	for _, row := range rows {
		m = protowire.AppendTag(m, fieldMatrixRow, protowire.BytesType)
		m = protowire.AppendBytes(m, vectorBytes(row))
	}
	return m
}

func layerBytes(in, out int, weights [][]float64, bias []float64, activation string) []byte {
	var l []byte
	l = protowire.AppendTag(l, fieldLayerInputDim, protowire.VarintType)
	l = protowire.AppendVarint(l, uint64(in))
	l = protowire.AppendTag(l, fieldLayerOutputDim, protowire.VarintType)
	l = protowire.AppendVarint(l, uint64(out))
	l = protowire.AppendTag(l, fieldLayerWeight, protowire.BytesType)
	l = protowire.AppendBytes(l, matrixBytes(weights))
	l = protowire.AppendTag(l, fieldLayerBias, protowire.BytesType)
	l = protowire.AppendBytes(l, vectorBytes(bias))
	l = protowire.AppendTag(l, fieldLayerActivation, protowire.BytesType)
	l = protowire.AppendString(l, activation)
	return l
}

func modelBytes(dimInput int, mean, std []float64, layers ...[]byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldModelDimInput, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(dimInput))
	b = protowire.AppendTag(b, fieldModelMean, protowire.BytesType)
	b = protowire.AppendBytes(b, vectorBytes(mean))
	b = protowire.AppendTag(b, fieldModelStd, protowire.BytesType)
	b = protowire.AppendBytes(b, vectorBytes(std))
	for _, l := range layers {
		b = protowire.AppendTag(b, fieldModelLayer, protowire.BytesType)
		b = protowire.AppendBytes(b, l)
	}
	return b
}

func writeModelFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoad(t *testing.T) {
	data := modelBytes(2,
		[]float64{0.5, 1.5},
		[]float64{1, 2},
		layerBytes(2, 3, [][]float64{{1, 2, 3}, {4, 5, 6}}, []float64{0.1, 0.2, 0.3}, "relu"),
		layerBytes(3, 1, [][]float64{{1}, {1}, {1}}, []float64{0}, "sigmoid"),
	)

	m, err := Load(writeModelFile(t, data))
	require.NoError(t, err)
	assert.Equal(t, 2, m.DimInput)
	assert.Equal(t, []float64{0.5, 1.5}, m.Mean)
	assert.Equal(t, []float64{1, 2}, m.Std)
	require.Len(t, m.Layers, 2)

	l0 := m.Layers[0]
	assert.Equal(t, 2, l0.InputDim)
	assert.Equal(t, 3, l0.OutputDim)
	assert.Equal(t, ActivationRelu, l0.Activation)
	assert.Equal(t, 5.0, l0.Weights.At(1, 1))
	assert.Equal(t, 0.2, l0.Bias.AtVec(1))
	assert.Equal(t, ActivationSigmoid, m.Layers[1].Activation)

	// The loaded model evaluates.
	p, err := m.Run([]float64{0.5, 1.5}) // normalizes to [0, 0]
	require.NoError(t, err)
	want := 1 / (1 + math.Exp(-(0.1 + 0.2 + 0.3)))
	assert.InDelta(t, want, p, 1e-12)
}

func TestLoad_UnknownActivationFallsBackToSigmoid(t *testing.T) {
	data := modelBytes(1,
		[]float64{0},
		[]float64{1},
		layerBytes(1, 1, [][]float64{{1}}, []float64{0}, "softsign"),
	)
	m, err := Load(writeModelFile(t, data))
	require.NoError(t, err)
	assert.Equal(t, ActivationSigmoid, m.Layers[0].Activation)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestLoad_TruncatedFile(t *testing.T) {
	data := modelBytes(1,
		[]float64{0},
		[]float64{1},
		layerBytes(1, 1, [][]float64{{1}}, []float64{0}, "relu"),
	)
	_, err := Load(writeModelFile(t, data[:len(data)-3]))
	assert.Error(t, err)
}

func TestLoad_RejectsUnchainedLayers(t *testing.T) {
	data := modelBytes(2,
		[]float64{0, 0},
		[]float64{1, 1},
		layerBytes(2, 2, [][]float64{{1, 0}, {0, 1}}, []float64{0, 0}, "relu"),
		layerBytes(3, 1, [][]float64{{1}, {1}, {1}}, []float64{0}, "sigmoid"),
	)
	_, err := Load(writeModelFile(t, data))
	assert.ErrorContains(t, err, "chain")
}

func TestLoad_RejectsNonScalarFinalLayer(t *testing.T) {
	data := modelBytes(1,
		[]float64{0},
		[]float64{1},
		layerBytes(1, 2, [][]float64{{1, 1}}, []float64{0, 0}, "relu"),
	)
	_, err := Load(writeModelFile(t, data))
	assert.Error(t, err)
}

func TestLoad_RejectsRaggedWeightMatrix(t *testing.T) {
	data := modelBytes(2,
		[]float64{0, 0},
		[]float64{1, 1},
		layerBytes(2, 2, [][]float64{{1, 0, 0}, {0, 1}}, []float64{0, 0}, "relu"),
	)
	_, err := Load(writeModelFile(t, data))
	assert.Error(t, err)
}

func TestParseVector_UnpackedDoubles(t *testing.T) {
	var b []byte
	for _, v := range []float64{1.5, -2.5} {
		b = protowire.AppendTag(b, fieldVectorValue, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	vals, err := parseVector(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.5}, vals)
}
