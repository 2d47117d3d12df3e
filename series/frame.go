package series

import (
	"fmt"
	"math"
)

// Frame is an ordered table of float64 columns sharing one strictly
// increasing time index. Row order is time order and is significant.
// Positions where a computation is undefined (rolling warm-up, recursive
// initialization) hold NaN.
type Frame struct {
	index []int64
	names []string
	cols  map[string][]float64
}

// New creates an empty frame over the given time index.
func New(index []int64) *Frame {
	return &Frame{
		index: index,
		cols:  make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Index returns the time index. The returned slice is shared with the frame
// and must not be mutated.
func (f *Frame) Index() []int64 {
	return f.index
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int {
	return len(f.names)
}

// AddColumn appends a named column. The column must match the frame length
// and the name must be unused.
func (f *Frame) AddColumn(name string, values []float64) error {
	if len(values) != len(f.index) {
		return fmt.Errorf("column %q has %d rows, frame has %d", name, len(values), len(f.index))
	}
	if _, ok := f.cols[name]; ok {
		return fmt.Errorf("column %q already exists", name)
	}
	f.names = append(f.names, name)
	f.cols[name] = values
	return nil
}

// Column returns the named column, shared with the frame.
func (f *Frame) Column(name string) ([]float64, bool) {
	col, ok := f.cols[name]
	return col, ok
}

// Missing reports which of the given column names are absent, in the order
// requested.
func (f *Frame) Missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := f.cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Values returns the frame as a row-major matrix with columns in Names order.
func (f *Frame) Values() [][]float64 {
	rows := make([][]float64, len(f.index))
	for i := range rows {
		row := make([]float64, len(f.names))
		for j, name := range f.names {
			row[j] = f.cols[name][i]
		}
		rows[i] = row
	}
	return rows
}

// SameIndex reports whether both frames share an identical time index.
func (f *Frame) SameIndex(other *Frame) bool {
	if len(f.index) != len(other.index) {
		return false
	}
	for i, ts := range f.index {
		if other.index[i] != ts {
			return false
		}
	}
	return true
}

// DropNaN filters all frames jointly, keeping only rows where every value in
// every frame is defined. All frames must share an identical index; the
// returned frames share the filtered index.
func DropNaN(frames ...*Frame) ([]*Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to filter")
	}
	first := frames[0]
	for _, f := range frames[1:] {
		if !first.SameIndex(f) {
			return nil, fmt.Errorf("frames do not share a common index")
		}
	}

	keep := make([]bool, first.Len())
	for i := range keep {
		keep[i] = true
	}
	for _, f := range frames {
		for _, name := range f.names {
			col := f.cols[name]
			for i, v := range col {
				if math.IsNaN(v) {
					keep[i] = false
				}
			}
		}
	}

	var kept int
	for _, k := range keep {
		if k {
			kept++
		}
	}
	index := make([]int64, 0, kept)
	for i, k := range keep {
		if k {
			index = append(index, first.index[i])
		}
	}

	out := make([]*Frame, len(frames))
	for fi, f := range frames {
		nf := New(index)
		for _, name := range f.names {
			src := f.cols[name]
			col := make([]float64, 0, kept)
			for i, k := range keep {
				if k {
					col = append(col, src[i])
				}
			}
			if err := nf.AddColumn(name, col); err != nil {
				return nil, err
			}
		}
		out[fi] = nf
	}
	return out, nil
}
