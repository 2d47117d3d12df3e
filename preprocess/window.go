package preprocess

import (
	"fmt"

	"github.com/quantmill/tcnsignal/types"
)

// WindowGenerator slices a scaled feature matrix into fixed-length
// overlapping sequences for the network.
type WindowGenerator struct {
	seqLen int
	stride int
}

// NewWindowGenerator validates seqLen and stride, both >= 1.
func NewWindowGenerator(seqLen, stride int) (*WindowGenerator, error) {
	if seqLen < 1 {
		return nil, fmt.Errorf("seq_len must be >= 1, got %d", seqLen)
	}
	if stride < 1 {
		return nil, fmt.Errorf("stride must be >= 1, got %d", stride)
	}
	return &WindowGenerator{seqLen: seqLen, stride: stride}, nil
}

// Generate emits one sample per valid window start (0, stride, 2*stride, ...
// while start+seqLen <= rows). Each sample is the window's rows transposed to
// (features, time); the label, when labels are supplied, is the label row at
// the window's last timestep. Windows never pad and never cross the end of
// the data; too-short input yields empty output, not an error.
//
// features is row-major (time, features); labels, if non-nil, must have one
// row per feature row. X has shape (samples, features, seqLen) and y has one
// row per sample.
func (g *WindowGenerator) Generate(features [][]float64, labelRows [][]float64) (x *types.Tensor, y [][]float64, err error) {
	rows := len(features)
	if labelRows != nil && len(labelRows) != rows {
		return nil, nil, fmt.Errorf("labels have %d rows, features have %d", len(labelRows), rows)
	}

	var starts []int
	for start := 0; start+g.seqLen <= rows; start += g.stride {
		starts = append(starts, start)
	}

	numFeatures := 0
	if rows > 0 {
		numFeatures = len(features[0])
	}
	x = types.NewTensor(len(starts), numFeatures, g.seqLen)
	if labelRows != nil {
		y = make([][]float64, len(starts))
	}

	for i, start := range starts {
		for t := 0; t < g.seqLen; t++ {
			row := features[start+t]
			for c := 0; c < numFeatures; c++ {
				x.Set(i, c, t, row[c])
			}
		}
		if labelRows != nil {
			last := labelRows[start+g.seqLen-1]
			y[i] = make([]float64, len(last))
			copy(y[i], last)
		}
	}
	return x, y, nil
}
