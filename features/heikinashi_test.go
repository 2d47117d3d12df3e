package features

import (
	"math"
	"strings"
	"testing"

	"github.com/quantmill/tcnsignal/series"
)

func ohlcFrame(t *testing.T, open, high, low, closes []float64) *series.Frame {
	t.Helper()
	index := make([]int64, len(open))
	for i := range index {
		index[i] = int64(i + 1)
	}
	f := series.New(index)
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{series.ColOpen, open},
		{series.ColHigh, high},
		{series.ColLow, low},
		{series.ColClose, closes},
	} {
		if err := f.AddColumn(col.name, col.values); err != nil {
			t.Fatalf("AddColumn(%s) error = %v", col.name, err)
		}
	}
	return f
}

func TestHeikinAshi(t *testing.T) {
	f := ohlcFrame(t,
		[]float64{10, 11, 12},
		[]float64{12, 13, 14},
		[]float64{9, 10, 11},
		[]float64{11, 12, 13},
	)

	ha, err := HeikinAshi(f)
	if err != nil {
		t.Fatalf("HeikinAshi() error = %v", err)
	}

	tests := []struct {
		column string
		want   []float64
	}{
		{ColHAClose, []float64{10.5, 11.5, 12.5}},
		{ColHAOpen, []float64{10.5, 10.5, 11.0}},
		{ColHAHigh, []float64{12, 13, 14}},
		{ColHALow, []float64{9, 10, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, ok := ha.Column(tt.column)
			if !ok {
				t.Fatalf("column %s missing", tt.column)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("%s[%d] = %v, want %v", tt.column, i, got[i], tt.want[i])
				}
			}
		})
	}

	if !ha.SameIndex(f) {
		t.Error("output index differs from input index")
	}
}

func TestHeikinAshiCloseIsRowLocal(t *testing.T) {
	// ha_close at each step depends only on that step's raw bar.
	f := ohlcFrame(t,
		[]float64{1, 100, 3},
		[]float64{2, 200, 4},
		[]float64{0.5, 50, 2},
		[]float64{1.5, 150, 3},
	)
	ha, err := HeikinAshi(f)
	if err != nil {
		t.Fatalf("HeikinAshi() error = %v", err)
	}
	haClose, _ := ha.Column(ColHAClose)
	want := []float64{(1 + 2 + 0.5 + 1.5) / 4, (100 + 200 + 50 + 150) / 4, (3 + 4 + 2 + 3) / 4}
	for i := range want {
		if math.Abs(haClose[i]-want[i]) > 1e-12 {
			t.Errorf("ha_close[%d] = %v, want %v", i, haClose[i], want[i])
		}
	}
}

func TestHeikinAshiMissingColumns(t *testing.T) {
	f := series.New([]int64{1, 2})
	if err := f.AddColumn(series.ColOpen, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddColumn(series.ColClose, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}

	_, err := HeikinAshi(f)
	if err == nil {
		t.Fatal("HeikinAshi() expected error for missing columns, got nil")
	}
	for _, want := range []string{series.ColHigh, series.ColLow} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name missing column %q", err, want)
		}
	}
}
