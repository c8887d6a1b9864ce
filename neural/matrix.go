// Package neural provides the dense float32 matrices simple brains are
// built from: synapse weight matrices and neuron row-vectors. Products go
// through gonum's blas32 so the accumulation order is fixed by one
// implementation.
package neural

import (
	"fmt"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// SynapseMat is a dense Rows×Cols float32 weight matrix connecting one
// neuron layer to the next.
type SynapseMat struct {
	blas32.General
}

// NewSynapseMat returns a zeroed rows×cols matrix.
func NewSynapseMat(rows, cols int) SynapseMat {
	return SynapseMat{blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   make([]float32, rows*cols),
	}}
}

// At returns the element at (r, c).
func (m SynapseMat) At(r, c int) float32 {
	return m.Data[r*m.Stride+c]
}

// Set writes the element at (r, c).
func (m SynapseMat) Set(r, c int, v float32) {
	m.Data[r*m.Stride+c] = v
}

// Clone returns a deep copy.
func (m SynapseMat) Clone() SynapseMat {
	out := NewSynapseMat(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// MarshalJSON emits the matrix as nested row arrays.
func (m SynapseMat) MarshalJSON() ([]byte, error) {
	rows := make([][]float32, m.Rows)
	for r := 0; r < m.Rows; r++ {
		rows[r] = m.Data[r*m.Stride : r*m.Stride+m.Cols]
	}
	return json.Marshal(rows)
}

// UnmarshalJSON restores the matrix from nested row arrays.
func (m *SynapseMat) UnmarshalJSON(data []byte) error {
	var rows [][]float32
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("neural: synapse matrix needs at least one row")
	}
	cols := len(rows[0])
	out := NewSynapseMat(len(rows), cols)
	for r, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("neural: ragged synapse matrix row %d", r)
		}
		copy(out.Data[r*cols:], row)
	}
	*m = out
	return nil
}

// NeuronMat is a 1×N float32 row vector of neuron activations.
type NeuronMat struct {
	blas32.Vector
}

// NewNeuronMat returns an n-wide vector with every activation set to one,
// matching the brain constructor convention (bias columns stay 1 because
// nothing overwrites them).
func NewNeuronMat(n int) NeuronMat {
	v := NeuronMat{blas32.Vector{N: n, Inc: 1, Data: make([]float32, n)}}
	for i := range v.Data {
		v.Data[i] = 1
	}
	return v
}

// Cols returns the vector width.
func (v NeuronMat) Cols() int {
	return v.N
}

// Clone returns a deep copy.
func (v NeuronMat) Clone() NeuronMat {
	out := NeuronMat{blas32.Vector{N: v.N, Inc: 1, Data: make([]float32, v.N)}}
	copy(out.Data, v.Data)
	return out
}

// ReLU clamps negative activations to zero in place.
func (v NeuronMat) ReLU() {
	for i, x := range v.Data {
		if x < 0 {
			v.Data[i] = 0
		}
	}
}

// MarshalJSON emits the vector as a flat array.
func (v NeuronMat) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Data)
}

// UnmarshalJSON restores the vector from a flat array.
func (v *NeuronMat) UnmarshalJSON(data []byte) error {
	var vals []float32
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	*v = NeuronMat{blas32.Vector{N: len(vals), Inc: 1, Data: vals}}
	return nil
}

// MulVec computes in · w into dst, a float32 slice of length w.Cols. dst
// may alias a suffix of a neuron vector (the bias-preserving write).
func MulVec(in NeuronMat, w SynapseMat, dst []float32) {
	y := blas32.Vector{N: w.Cols, Inc: 1, Data: dst}
	blas32.Gemv(blas.Trans, 1, w.General, in.Vector, 0, y)
}
