package tcn

import "fmt"

// State is a serializable snapshot of the architecture and all weights.
// Weight tensors appear in Parameters order.
type State struct {
	Config  Config      `json:"config"`
	Weights [][]float64 `json:"weights"`
}

// State snapshots the model for persistence.
func (m *Model) State() *State {
	params := m.Parameters()
	weights := make([][]float64, len(params))
	for i, p := range params {
		w := make([]float64, len(p.Data))
		copy(w, p.Data)
		weights[i] = w
	}
	return &State{Config: m.cfg, Weights: weights}
}

// FromState rebuilds a model from a snapshot.
func FromState(st *State) (*Model, error) {
	m, err := New(st.Config)
	if err != nil {
		return nil, err
	}
	params := m.Parameters()
	if len(params) != len(st.Weights) {
		return nil, fmt.Errorf("state holds %d weight tensors, architecture has %d", len(st.Weights), len(params))
	}
	for i, p := range params {
		if len(st.Weights[i]) != len(p.Data) {
			return nil, fmt.Errorf("weight tensor %d has %d values, expected %d", i, len(st.Weights[i]), len(p.Data))
		}
		copy(p.Data, st.Weights[i])
	}
	return m, nil
}
