package mlp

import (
	"fmt"
	"log"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
	"gonum.org/v1/gonum/mat"
)

// Model files are protobuf wire format produced by the training pipeline:
//
//	message ModelFile {
//	  int32 dim_input      = 1;
//	  Vector samples_mean  = 2;
//	  Vector samples_std   = 3;
//	  repeated Layer layer = 4;
//	}
//	message Layer {
//	  int32 input_dim   = 1;
//	  int32 output_dim  = 2;
//	  Matrix weight     = 3;  // input_dim rows of output_dim values
//	  Vector bias       = 4;
//	  string activation = 5;  // "relu", "sigmoid" or "tanh"
//	}
//	message Vector { repeated double value = 1; }
//	message Matrix { repeated Vector row = 1; }
//
// The file is parsed field by field with encoding/protowire so the schema
// stays a data contract rather than generated code.
const (
	fieldModelDimInput = 1
	fieldModelMean     = 2
	fieldModelStd      = 3
	fieldModelLayer    = 4

	fieldLayerInputDim   = 1
	fieldLayerOutputDim  = 2
	fieldLayerWeight     = 3
	fieldLayerBias       = 4
	fieldLayerActivation = 5

	fieldVectorValue = 1
	fieldMatrixRow   = 1
)

// Load reads and validates a model file. On any failure the returned
// model is nil; the caller keeps running without a usable model.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	m, err := parseModel(data)
	if err != nil {
		return nil, fmt.Errorf("parse model file: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return m, nil
}

func parseModel(data []byte) (*Model, error) {
	m := &Model{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == fieldModelDimInput && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			m.DimInput = int(int32(v))
			data = data[n:]
		case num == fieldModelMean && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			vals, err := parseVector(b)
			if err != nil {
				return nil, fmt.Errorf("samples_mean: %w", err)
			}
			m.Mean = vals
			data = data[n:]
		case num == fieldModelStd && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			vals, err := parseVector(b)
			if err != nil {
				return nil, fmt.Errorf("samples_std: %w", err)
			}
			m.Std = vals
			data = data[n:]
		case num == fieldModelLayer && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			layer, err := parseLayer(b)
			if err != nil {
				return nil, fmt.Errorf("layer %d: %w", len(m.Layers), err)
			}
			m.Layers = append(m.Layers, layer)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return m, nil
}

func parseLayer(data []byte) (Layer, error) {
	var (
		inputDim  int
		outputDim int
		rows      [][]float64
		bias      []float64
		actTag    string
		hasTag    bool
	)
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Layer{}, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == fieldLayerInputDim && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			inputDim = int(int32(v))
			data = data[n:]
		case num == fieldLayerOutputDim && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			outputDim = int(int32(v))
			data = data[n:]
		case num == fieldLayerWeight && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			r, err := parseMatrix(b)
			if err != nil {
				return Layer{}, fmt.Errorf("weight: %w", err)
			}
			rows = r
			data = data[n:]
		case num == fieldLayerBias && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			// Bias and activation share the bytes wire type; a bias
			// payload parses as a Vector.
			vals, err := parseVector(b)
			if err != nil {
				return Layer{}, fmt.Errorf("bias: %w", err)
			}
			bias = vals
			data = data[n:]
		case num == fieldLayerActivation && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			actTag = string(b)
			hasTag = true
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Layer{}, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}

	if inputDim <= 0 || outputDim <= 0 {
		return Layer{}, fmt.Errorf("dimensions %dx%d are not positive", inputDim, outputDim)
	}
	if len(rows) != inputDim {
		return Layer{}, fmt.Errorf("weight matrix has %d rows, want %d", len(rows), inputDim)
	}
	flat := make([]float64, 0, inputDim*outputDim)
	for i, row := range rows {
		if len(row) != outputDim {
			return Layer{}, fmt.Errorf("weight row %d has %d values, want %d", i, len(row), outputDim)
		}
		flat = append(flat, row...)
	}
	if len(bias) != outputDim {
		return Layer{}, fmt.Errorf("bias has %d values, want %d", len(bias), outputDim)
	}

	act, known := ActivationFromTag(actTag)
	if hasTag && !known {
		log.Printf("[mlp] unknown activation %q in model file, falling back to sigmoid", actTag)
	}
	return Layer{
		InputDim:   inputDim,
		OutputDim:  outputDim,
		Weights:    mat.NewDense(inputDim, outputDim, flat),
		Bias:       mat.NewVecDense(outputDim, bias),
		Activation: act,
	}, nil
}

func parseMatrix(data []byte) ([][]float64, error) {
	var rows [][]float64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		if num == fieldMatrixRow && typ == protowire.BytesType {
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			row, err := parseVector(b)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", len(rows), err)
			}
			rows = append(rows, row)
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
	}
	return rows, nil
}

// parseVector accepts the doubles both packed (the standard encoding) and
// as individual fixed64 fields.
func parseVector(data []byte) ([]float64, error) {
	var vals []float64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == fieldVectorValue && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			for len(b) > 0 {
				u, n := protowire.ConsumeFixed64(b)
				if n < 0 {
					return nil, protowire.ParseError(n)
				}
				vals = append(vals, math.Float64frombits(u))
				b = b[n:]
			}
			data = data[n:]
		case num == fieldVectorValue && typ == protowire.Fixed64Type:
			u, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			vals = append(vals, math.Float64frombits(u))
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return vals, nil
}
