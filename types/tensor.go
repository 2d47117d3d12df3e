package types

import "fmt"

// Tensor is a dense rank-3 tensor holding windowed feature data in
// (batch, channels, time) order. The backing slice is laid out so the time
// axis is innermost: element (n, c, t) lives at ((n*C)+c)*T + t.
type Tensor struct {
	Data []float64
	N    int // batch (samples)
	C    int // channels (features)
	T    int // timesteps
}

// NewTensor allocates a zero-filled tensor with the given shape.
func NewTensor(n, c, t int) *Tensor {
	if n < 0 || c < 0 || t < 0 {
		panic(fmt.Sprintf("types: invalid tensor shape (%d, %d, %d)", n, c, t))
	}
	return &Tensor{
		Data: make([]float64, n*c*t),
		N:    n,
		C:    c,
		T:    t,
	}
}

// At returns the element at (n, c, t).
func (x *Tensor) At(n, c, t int) float64 {
	return x.Data[(n*x.C+c)*x.T+t]
}

// Set stores v at (n, c, t).
func (x *Tensor) Set(n, c, t int, v float64) {
	x.Data[(n*x.C+c)*x.T+t] = v
}

// Add accumulates v into the element at (n, c, t).
func (x *Tensor) Add(n, c, t int, v float64) {
	x.Data[(n*x.C+c)*x.T+t] += v
}

// Clone returns a deep copy of the tensor.
func (x *Tensor) Clone() *Tensor {
	out := NewTensor(x.N, x.C, x.T)
	copy(out.Data, x.Data)
	return out
}

// Gather copies the selected samples into a new tensor, preserving the order
// of idx. Used to assemble minibatches.
func (x *Tensor) Gather(idx []int) *Tensor {
	out := NewTensor(len(idx), x.C, x.T)
	sample := x.C * x.T
	for i, n := range idx {
		copy(out.Data[i*sample:(i+1)*sample], x.Data[n*sample:(n+1)*sample])
	}
	return out
}
