package tcn

import (
	"math"
	"math/rand"

	"github.com/quantmill/tcnsignal/types"
)

// conv1d is a dilated causal 1-D convolution. Output timestep t reads inputs
// t, t-d, ..., t-(k-1)d with zeros beyond the left edge, which is the same
// mapping as padding both sides by (k-1)*d and trimming the trailing
// (k-1)*d outputs. Output length always equals input length.
type conv1d struct {
	inCh     int
	outCh    int
	kernel   int
	dilation int

	weight []float64 // (outCh, inCh, kernel) flattened
	bias   []float64
	gradW  []float64
	gradB  []float64

	input *types.Tensor // cached by forward for backward
}

func newConv1d(inCh, outCh, kernel, dilation int, rng *rand.Rand) *conv1d {
	c := &conv1d{
		inCh:     inCh,
		outCh:    outCh,
		kernel:   kernel,
		dilation: dilation,
		weight:   make([]float64, outCh*inCh*kernel),
		bias:     make([]float64, outCh),
		gradW:    make([]float64, outCh*inCh*kernel),
		gradB:    make([]float64, outCh),
	}
	// Uniform(-1/sqrt(fan_in), 1/sqrt(fan_in)) for weights and biases.
	bound := 1.0 / math.Sqrt(float64(inCh*kernel))
	for i := range c.weight {
		c.weight[i] = (rng.Float64()*2 - 1) * bound
	}
	for i := range c.bias {
		c.bias[i] = (rng.Float64()*2 - 1) * bound
	}
	return c
}

func (c *conv1d) wIdx(co, ci, m int) int {
	return (co*c.inCh+ci)*c.kernel + m
}

func (c *conv1d) forward(x *types.Tensor) *types.Tensor {
	c.input = x
	out := types.NewTensor(x.N, c.outCh, x.T)
	for n := 0; n < x.N; n++ {
		for co := 0; co < c.outCh; co++ {
			for t := 0; t < x.T; t++ {
				sum := c.bias[co]
				for ci := 0; ci < c.inCh; ci++ {
					for m := 0; m < c.kernel; m++ {
						idx := t - c.dilation*(c.kernel-1-m)
						if idx >= 0 {
							sum += c.weight[c.wIdx(co, ci, m)] * x.At(n, ci, idx)
						}
					}
				}
				out.Set(n, co, t, sum)
			}
		}
	}
	return out
}

// backward accumulates weight/bias gradients and returns the gradient with
// respect to the cached input.
func (c *conv1d) backward(grad *types.Tensor) *types.Tensor {
	x := c.input
	gx := types.NewTensor(x.N, x.C, x.T)
	for n := 0; n < x.N; n++ {
		for co := 0; co < c.outCh; co++ {
			for t := 0; t < x.T; t++ {
				g := grad.At(n, co, t)
				if g == 0 {
					continue
				}
				c.gradB[co] += g
				for ci := 0; ci < c.inCh; ci++ {
					for m := 0; m < c.kernel; m++ {
						idx := t - c.dilation*(c.kernel-1-m)
						if idx >= 0 {
							w := c.wIdx(co, ci, m)
							c.gradW[w] += g * x.At(n, ci, idx)
							gx.Add(n, ci, idx, g*c.weight[w])
						}
					}
				}
			}
		}
	}
	return gx
}

func (c *conv1d) zeroGrad() {
	for i := range c.gradW {
		c.gradW[i] = 0
	}
	for i := range c.gradB {
		c.gradB[i] = 0
	}
}
