package tcn

import (
	"math/rand"

	"github.com/quantmill/tcnsignal/types"
)

// temporalBlock is one residual level of the TCN: two causal convolution +
// ReLU + dropout stages, a residual path (identity, or a 1x1 projection when
// the channel count changes), and a final ReLU over the sum.
type temporalBlock struct {
	conv1   *conv1d
	conv2   *conv1d
	down    *conv1d // nil when inCh == outCh
	dropout float64

	// caches for backward
	relu1Out *types.Tensor
	relu2Out *types.Tensor
	mask1    *types.Tensor // nil when dropout was not applied
	mask2    *types.Tensor
	out      *types.Tensor
}

func newTemporalBlock(inCh, outCh, kernel, dilation int, dropout float64, rng *rand.Rand) *temporalBlock {
	b := &temporalBlock{
		conv1:   newConv1d(inCh, outCh, kernel, dilation, rng),
		conv2:   newConv1d(outCh, outCh, kernel, dilation, rng),
		dropout: dropout,
	}
	if inCh != outCh {
		b.down = newConv1d(inCh, outCh, 1, 1, rng)
	}
	return b
}

func (b *temporalBlock) forward(x *types.Tensor, train bool, rng *rand.Rand) *types.Tensor {
	h := reluInPlace(b.conv1.forward(x))
	b.relu1Out = h
	h, b.mask1 = b.applyDropout(h, train, rng)

	h2 := reluInPlace(b.conv2.forward(h))
	b.relu2Out = h2
	h2, b.mask2 = b.applyDropout(h2, train, rng)

	res := x
	if b.down != nil {
		res = b.down.forward(x)
	}

	out := types.NewTensor(h2.N, h2.C, h2.T)
	for i := range out.Data {
		v := h2.Data[i] + res.Data[i]
		if v > 0 {
			out.Data[i] = v
		}
	}
	b.out = out
	return out
}

// applyDropout returns the (possibly) masked tensor and the mask used, nil
// when dropout is inactive. Inverted dropout: surviving units are scaled by
// 1/(1-p) so evaluation needs no rescaling.
func (b *temporalBlock) applyDropout(h *types.Tensor, train bool, rng *rand.Rand) (*types.Tensor, *types.Tensor) {
	if !train || b.dropout <= 0 {
		return h, nil
	}
	scale := 1.0 / (1.0 - b.dropout)
	mask := types.NewTensor(h.N, h.C, h.T)
	out := types.NewTensor(h.N, h.C, h.T)
	for i := range mask.Data {
		if rng.Float64() >= b.dropout {
			mask.Data[i] = scale
			out.Data[i] = h.Data[i] * scale
		}
	}
	return out, mask
}

func (b *temporalBlock) backward(grad *types.Tensor) *types.Tensor {
	// Final ReLU over the residual sum.
	gSum := types.NewTensor(grad.N, grad.C, grad.T)
	for i := range gSum.Data {
		if b.out.Data[i] > 0 {
			gSum.Data[i] = grad.Data[i]
		}
	}

	var gxRes *types.Tensor
	if b.down != nil {
		gxRes = b.down.backward(gSum)
	} else {
		gxRes = gSum
	}

	g := gSum
	if b.mask2 != nil {
		g = mulElems(g, b.mask2)
	}
	g = gateByPositive(g, b.relu2Out)
	g = b.conv2.backward(g)
	if b.mask1 != nil {
		g = mulElems(g, b.mask1)
	}
	g = gateByPositive(g, b.relu1Out)
	gx := b.conv1.backward(g)

	for i := range gx.Data {
		gx.Data[i] += gxRes.Data[i]
	}
	return gx
}

func (b *temporalBlock) zeroGrad() {
	b.conv1.zeroGrad()
	b.conv2.zeroGrad()
	if b.down != nil {
		b.down.zeroGrad()
	}
}

func reluInPlace(x *types.Tensor) *types.Tensor {
	for i, v := range x.Data {
		if v < 0 {
			x.Data[i] = 0
		}
	}
	return x
}

func mulElems(x, mask *types.Tensor) *types.Tensor {
	out := types.NewTensor(x.N, x.C, x.T)
	for i := range out.Data {
		out.Data[i] = x.Data[i] * mask.Data[i]
	}
	return out
}

// gateByPositive zeroes gradient entries where the ReLU output was clamped.
func gateByPositive(g, ref *types.Tensor) *types.Tensor {
	out := types.NewTensor(g.N, g.C, g.T)
	for i := range out.Data {
		if ref.Data[i] > 0 {
			out.Data[i] = g.Data[i]
		}
	}
	return out
}
