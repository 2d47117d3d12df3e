package tcn

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/quantmill/tcnsignal/types"
)

func testConfig() Config {
	return Config{
		NumFeatures:    2,
		NumTargets:     2,
		HiddenChannels: []int{4, 4},
		KernelSize:     3,
		Dropout:        0,
		Seed:           7,
	}
}

func randomInput(n, c, t int, seed int64) *types.Tensor {
	rng := rand.New(rand.NewSource(seed))
	x := types.NewTensor(n, c, t)
	for i := range x.Data {
		x.Data[i] = rng.NormFloat64()
	}
	return x
}

func TestModelOutputShape(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	x := randomInput(3, 2, 16, 1)
	out, err := m.Predict(x)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d logit rows, want 3", len(out))
	}
	for n, row := range out {
		if len(row) != 2 {
			t.Fatalf("row %d has %d logits, want 2", n, len(row))
		}
		for o, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("logit[%d][%d] = %v, want finite", n, o, v)
			}
		}
	}

	empty, err := m.Predict(types.NewTensor(0, 2, 16))
	if err != nil {
		t.Fatalf("Predict(empty) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty batch produced %d rows, want 0", len(empty))
	}
}

func TestModelDeterministicBySeed(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	x := randomInput(2, 2, 12, 3)
	outA, _ := a.Predict(x)
	outB, _ := b.Predict(x)
	for n := range outA {
		for o := range outA[n] {
			if outA[n][o] != outB[n][o] {
				t.Errorf("same seed diverged at [%d][%d]: %v vs %v", n, o, outA[n][o], outB[n][o])
			}
		}
	}
}

func TestBlocksAreCausal(t *testing.T) {
	// Perturbing only the final timestep of the input must leave every
	// activation before it unchanged, through the full block stack.
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	x := randomInput(1, 2, 16, 5)
	y := x.Clone()
	for c := 0; c < y.C; c++ {
		y.Set(0, c, y.T-1, y.At(0, c, y.T-1)+10)
	}

	runBlocks := func(in *types.Tensor) *types.Tensor {
		h := in
		for _, b := range m.blocks {
			h = b.forward(h, false, m.rng)
		}
		return h
	}
	hx := runBlocks(x)
	hy := runBlocks(y)

	for c := 0; c < hx.C; c++ {
		for ts := 0; ts < hx.T-1; ts++ {
			if hx.At(0, c, ts) != hy.At(0, c, ts) {
				t.Fatalf("activation (%d, %d) changed by a future input", c, ts)
			}
		}
	}
	changed := false
	for c := 0; c < hx.C; c++ {
		if hx.At(0, c, hx.T-1) != hy.At(0, c, hy.T-1) {
			changed = true
		}
	}
	if !changed {
		t.Error("final timestep did not react to its own input")
	}
}

func TestReceptiveField(t *testing.T) {
	tests := []struct {
		channels []int
		kernel   int
		want     int
	}{
		{[]int{8}, 2, 3},
		{[]int{8, 8}, 2, 7},
		{[]int{8, 8, 8}, 3, 29},
		{[]int{32, 64, 64}, 3, 29},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.HiddenChannels = tt.channels
		cfg.KernelSize = tt.kernel
		m, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.ReceptiveField(); got != tt.want {
			t.Errorf("ReceptiveField(L=%d, k=%d) = %d, want %d", len(tt.channels), tt.kernel, got, tt.want)
		}
	}
}

func TestBackwardMatchesNumericalGradient(t *testing.T) {
	cfg := Config{
		NumFeatures:    2,
		NumTargets:     2,
		HiddenChannels: []int{3},
		KernelSize:     2,
		Dropout:        0,
		Seed:           11,
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	x := randomInput(2, 2, 4, 17)

	// Loss is a fixed weighted sum of the logits, so dL/dlogit is constant
	// and the analytic parameter gradients can be checked by central
	// differences.
	lossWeights := [][]float64{{0.7, -1.3}, {0.4, 0.9}}
	loss := func() float64 {
		out := m.Forward(x, true)
		var l float64
		for n, row := range out {
			for o, v := range row {
				l += lossWeights[n][o] * v
			}
		}
		return l
	}

	m.ZeroGrad()
	m.Forward(x, true)
	m.Backward(lossWeights)

	const eps = 1e-6
	for pi, p := range m.Parameters() {
		for j := range p.Data {
			orig := p.Data[j]
			p.Data[j] = orig + eps
			up := loss()
			p.Data[j] = orig - eps
			down := loss()
			p.Data[j] = orig

			numeric := (up - down) / (2 * eps)
			analytic := p.Grad[j]
			diff := math.Abs(numeric - analytic)
			scale := math.Max(1, math.Max(math.Abs(numeric), math.Abs(analytic)))
			if diff/scale > 1e-5 {
				t.Errorf("param %d[%d]: analytic %v, numeric %v", pi, j, analytic, numeric)
			}
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	x := randomInput(2, 2, 12, 9)
	want, _ := m.Predict(x)

	raw, err := json.Marshal(m.State())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored, err := FromState(&st)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}

	got, _ := restored.Predict(x)
	for n := range want {
		for o := range want[n] {
			if got[n][o] != want[n][o] {
				t.Errorf("restored logit[%d][%d] = %v, want %v", n, o, got[n][o], want[n][o])
			}
		}
	}
}

func TestFromStateRejectsMismatch(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	st := m.State()

	t.Run("Wrong tensor count", func(t *testing.T) {
		bad := &State{Config: st.Config, Weights: st.Weights[:len(st.Weights)-1]}
		if _, err := FromState(bad); err == nil {
			t.Error("FromState() expected error, got nil")
		}
	})
	t.Run("Wrong tensor length", func(t *testing.T) {
		weights := make([][]float64, len(st.Weights))
		copy(weights, st.Weights)
		weights[0] = weights[0][:len(weights[0])-1]
		bad := &State{Config: st.Config, Weights: weights}
		if _, err := FromState(bad); err == nil {
			t.Error("FromState() expected error, got nil")
		}
	})
}

func TestPredictValidatesInput(t *testing.T) {
	m, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Predict(types.NewTensor(1, 5, 8)); err == nil {
		t.Error("Predict() expected feature count error, got nil")
	}
	if _, err := m.Predict(types.NewTensor(1, 2, 0)); err == nil {
		t.Error("Predict() expected sequence length error, got nil")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero features", func(c *Config) { c.NumFeatures = 0 }},
		{"Zero targets", func(c *Config) { c.NumTargets = 0 }},
		{"No hidden channels", func(c *Config) { c.HiddenChannels = nil }},
		{"Zero-width channel", func(c *Config) { c.HiddenChannels = []int{4, 0} }},
		{"Kernel too small", func(c *Config) { c.KernelSize = 1 }},
		{"Dropout out of range", func(c *Config) { c.Dropout = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}
