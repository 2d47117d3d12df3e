package features

import (
	"fmt"

	"github.com/quantmill/tcnsignal/series"
)

// Aggregate joins feature frames column-wise into a single frame. All inputs
// must share an identical time index; this is checked rather than assumed,
// since a misaligned join would silently pair features from different
// timestamps. Column names must be unique across inputs.
func Aggregate(frames []*series.Frame) (*series.Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no input frames to aggregate")
	}

	first := frames[0]
	for i, f := range frames[1:] {
		if !first.SameIndex(f) {
			return nil, fmt.Errorf("input frame %d does not share the common index", i+1)
		}
	}

	out := series.New(first.Index())
	for _, f := range frames {
		for _, name := range f.Names() {
			col, _ := f.Column(name)
			if err := out.AddColumn(name, col); err != nil {
				return nil, fmt.Errorf("aggregate: %w", err)
			}
		}
	}
	return out, nil
}
