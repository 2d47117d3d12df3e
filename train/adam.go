package train

import (
	"math"

	"github.com/quantmill/tcnsignal/tcn"
)

// adam implements the Adam update rule over the model's parameter tensors.
type adam struct {
	params []tcn.Param
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64

	step int
	m    [][]float64 // first moment, per parameter tensor
	v    [][]float64 // second moment
}

func newAdam(params []tcn.Param, lr float64) *adam {
	a := &adam{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make([][]float64, len(params)),
		v:      make([][]float64, len(params)),
	}
	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}
	return a
}

// Step applies one update from the gradients currently accumulated in the
// parameter tensors.
func (a *adam) Step() {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for i, p := range a.params {
		m := a.m[i]
		v := a.v[i]
		for j, g := range p.Grad {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g
			v[j] = a.beta2*v[j] + (1-a.beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			p.Data[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}
