package tcn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/quantmill/tcnsignal/types"
)

// Config describes the network architecture. HiddenChannels sets the output
// width of each residual block; block i runs at dilation 2^i.
//
// KernelSize must be at least 2: with a kernel of 1 every convolution is
// pointwise, the receptive field collapses to a single timestep and the
// network never mixes information along the time axis.
type Config struct {
	NumFeatures    int     `json:"num_features"`
	NumTargets     int     `json:"num_targets"`
	HiddenChannels []int   `json:"hidden_channels"`
	KernelSize     int     `json:"kernel_size"`
	Dropout        float64 `json:"dropout"`
	Seed           int64   `json:"seed"`
}

func (cfg Config) validate() error {
	if cfg.NumFeatures < 1 {
		return fmt.Errorf("num_features must be >= 1, got %d", cfg.NumFeatures)
	}
	if cfg.NumTargets < 1 {
		return fmt.Errorf("num_targets must be >= 1, got %d", cfg.NumTargets)
	}
	if len(cfg.HiddenChannels) == 0 {
		return fmt.Errorf("hidden_channels must not be empty")
	}
	for _, ch := range cfg.HiddenChannels {
		if ch < 1 {
			return fmt.Errorf("hidden channel width must be >= 1, got %d", ch)
		}
	}
	if cfg.KernelSize < 2 {
		return fmt.Errorf("kernel_size must be >= 2, got %d", cfg.KernelSize)
	}
	if cfg.Dropout < 0 || cfg.Dropout >= 1 {
		return fmt.Errorf("dropout must be in [0, 1), got %g", cfg.Dropout)
	}
	return nil
}

// Model is a temporal convolutional network: a stack of dilated causal
// residual blocks followed by a linear head over the final block's last
// timestep. The head emits raw per-target logits; thresholding or sigmoid
// activation is the caller's concern.
type Model struct {
	cfg    Config
	blocks []*temporalBlock
	head   *linear
	rng    *rand.Rand

	lastN, lastC, lastT int // shape of the final block output, for backward
}

// New builds a model with randomly initialized weights, deterministic for a
// given Config.Seed.
func New(cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Model{cfg: cfg, rng: rng}
	in := cfg.NumFeatures
	for i, out := range cfg.HiddenChannels {
		dilation := 1 << i
		m.blocks = append(m.blocks, newTemporalBlock(in, out, cfg.KernelSize, dilation, cfg.Dropout, rng))
		in = out
	}
	m.head = newLinear(in, cfg.NumTargets, rng)
	return m, nil
}

// Config returns the architecture the model was built with.
func (m *Model) Config() Config {
	return m.cfg
}

// ReceptiveField returns the number of input timesteps that can influence one
// output timestep: 1 + 2*(k-1)*(2^L - 1) for L blocks of kernel size k.
// Shorter sequences still execute, with partial context at early timesteps.
func (m *Model) ReceptiveField() int {
	levels := len(m.cfg.HiddenChannels)
	return 1 + 2*(m.cfg.KernelSize-1)*((1<<levels)-1)
}

// Forward runs the network. With train=true, dropout is active and all
// intermediate activations are cached so Backward can be called. Input shape
// is (batch, features, time); output is one logit row per sample.
func (m *Model) Forward(x *types.Tensor, train bool) [][]float64 {
	if x.N == 0 {
		return [][]float64{}
	}
	h := x
	for _, b := range m.blocks {
		h = b.forward(h, train, m.rng)
	}
	m.lastN, m.lastC, m.lastT = h.N, h.C, h.T

	last := mat.NewDense(h.N, h.C, nil)
	for n := 0; n < h.N; n++ {
		for c := 0; c < h.C; c++ {
			last.Set(n, c, h.At(n, c, h.T-1))
		}
	}
	return m.head.forward(last)
}

// Predict runs inference with dropout disabled. The input must be shaped
// (batch, features, seq_len) with the feature count the model was built for;
// the output column order matches the label order fixed at training time.
func (m *Model) Predict(x *types.Tensor) ([][]float64, error) {
	if x.C != m.cfg.NumFeatures {
		return nil, fmt.Errorf("input has %d features, model expects %d", x.C, m.cfg.NumFeatures)
	}
	if x.T < 1 {
		return nil, fmt.Errorf("input sequence length must be >= 1")
	}
	return m.Forward(x, false), nil
}

// Backward propagates the loss gradient with respect to the logits through
// the head and every block, accumulating parameter gradients. Must follow a
// Forward call on the same batch.
func (m *Model) Backward(gradLogits [][]float64) {
	gLast := m.head.backward(gradLogits)

	g := types.NewTensor(m.lastN, m.lastC, m.lastT)
	for n := 0; n < m.lastN; n++ {
		for c := 0; c < m.lastC; c++ {
			g.Set(n, c, m.lastT-1, gLast.At(n, c))
		}
	}
	for i := len(m.blocks) - 1; i >= 0; i-- {
		g = m.blocks[i].backward(g)
	}
}

// Param is one parameter tensor and its gradient accumulator. Both slices
// alias model storage, so an optimizer can update weights in place.
type Param struct {
	Data []float64
	Grad []float64
}

// Parameters enumerates every trainable tensor in a stable order.
func (m *Model) Parameters() []Param {
	var params []Param
	add := func(c *conv1d) {
		params = append(params,
			Param{Data: c.weight, Grad: c.gradW},
			Param{Data: c.bias, Grad: c.gradB},
		)
	}
	for _, b := range m.blocks {
		add(b.conv1)
		add(b.conv2)
		if b.down != nil {
			add(b.down)
		}
	}
	w := m.head.weight.RawMatrix()
	gw := m.head.gradW.RawMatrix()
	params = append(params,
		Param{Data: w.Data, Grad: gw.Data},
		Param{Data: m.head.bias, Grad: m.head.gradB},
	)
	return params
}

// ZeroGrad clears all accumulated gradients.
func (m *Model) ZeroGrad() {
	for _, b := range m.blocks {
		b.zeroGrad()
	}
	m.head.zeroGrad()
}

// linear is the output head: logits = x*W^T + b.
type linear struct {
	in  int
	out int

	weight *mat.Dense // out x in
	bias   []float64
	gradW  *mat.Dense
	gradB  []float64

	input *mat.Dense // cached by forward
}

func newLinear(in, out int, rng *rand.Rand) *linear {
	l := &linear{
		in:     in,
		out:    out,
		weight: mat.NewDense(out, in, nil),
		bias:   make([]float64, out),
		gradW:  mat.NewDense(out, in, nil),
		gradB:  make([]float64, out),
	}
	bound := 1.0 / math.Sqrt(float64(in))
	for o := 0; o < out; o++ {
		for i := 0; i < in; i++ {
			l.weight.Set(o, i, (rng.Float64()*2-1)*bound)
		}
		l.bias[o] = (rng.Float64()*2 - 1) * bound
	}
	return l
}

func (l *linear) forward(x *mat.Dense) [][]float64 {
	l.input = x
	batch, _ := x.Dims()

	var prod mat.Dense
	prod.Mul(x, l.weight.T())

	out := make([][]float64, batch)
	for n := 0; n < batch; n++ {
		row := make([]float64, l.out)
		for o := 0; o < l.out; o++ {
			row[o] = prod.At(n, o) + l.bias[o]
		}
		out[n] = row
	}
	return out
}

func (l *linear) backward(grad [][]float64) *mat.Dense {
	batch := len(grad)
	g := mat.NewDense(batch, l.out, nil)
	for n, row := range grad {
		for o, v := range row {
			g.Set(n, o, v)
			l.gradB[o] += v
		}
	}

	var gw mat.Dense
	gw.Mul(g.T(), l.input)
	l.gradW.Add(l.gradW, &gw)

	var gx mat.Dense
	gx.Mul(g, l.weight)
	return &gx
}

func (l *linear) zeroGrad() {
	l.gradW.Zero()
	for i := range l.gradB {
		l.gradB[i] = 0
	}
}
