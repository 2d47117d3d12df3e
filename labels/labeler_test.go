package labels

import (
	"testing"

	"github.com/quantmill/tcnsignal/series"
)

func closeFrame(t *testing.T, closes []float64) *series.Frame {
	t.Helper()
	index := make([]int64, len(closes))
	for i := range index {
		index[i] = int64(i + 1)
	}
	f := series.New(index)
	if err := f.AddColumn(series.ColClose, closes); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestEntryExit(t *testing.T) {
	f := closeFrame(t, []float64{100, 101, 103, 99, 98})

	out, err := EntryExit(f, 2, 0.02, 0.02)
	if err != nil {
		t.Fatalf("EntryExit() error = %v", err)
	}

	entry, _ := out.Column(ColEntry)
	exit, _ := out.Column(ColExit)

	// i=0 sees [101, 103]: max return 0.03 triggers entry, min 0.01 does not
	// trigger exit. i=2 sees [99, 98]: both returns are below -0.02, so exit
	// fires and entry does not. i=3's only forward return (-0.0101) clears
	// neither threshold. i=4 has no forward data.
	wantEntry := []float64{1, 0, 0, 0, 0}
	wantExit := []float64{0, 0, 1, 0, 0}
	for i := range wantEntry {
		if entry[i] != wantEntry[i] {
			t.Errorf("entry[%d] = %v, want %v", i, entry[i], wantEntry[i])
		}
		if exit[i] != wantExit[i] {
			t.Errorf("exit[%d] = %v, want %v", i, exit[i], wantExit[i])
		}
	}
	if !out.SameIndex(f) {
		t.Error("label index differs from close index")
	}
}

func TestEntryExitSimultaneous(t *testing.T) {
	// A spike up then crash within one horizon lights both labels on the
	// same row; the two heads are independent classifiers.
	f := closeFrame(t, []float64{100, 110, 80, 80})

	out, err := EntryExit(f, 2, 0.05, 0.05)
	if err != nil {
		t.Fatalf("EntryExit() error = %v", err)
	}
	entry, _ := out.Column(ColEntry)
	exit, _ := out.Column(ColExit)
	if entry[0] != 1 || exit[0] != 1 {
		t.Errorf("labels at 0 = (%v, %v), want (1, 1)", entry[0], exit[0])
	}
}

func TestEntryExitHorizonBoundary(t *testing.T) {
	// The forward window must stop at the horizon: the jump at index 3 is
	// outside i=0's 2-step window.
	f := closeFrame(t, []float64{100, 100.1, 100.1, 200, 200})

	out, err := EntryExit(f, 2, 0.02, 0.02)
	if err != nil {
		t.Fatalf("EntryExit() error = %v", err)
	}
	entry, _ := out.Column(ColEntry)
	if entry[0] != 0 {
		t.Errorf("entry[0] = %v, want 0: the move at step 3 is beyond the horizon", entry[0])
	}
	if entry[1] != 1 {
		t.Errorf("entry[1] = %v, want 1: step 3 is inside i=1's window", entry[1])
	}
}

func TestEntryExitLastRowsAreZero(t *testing.T) {
	f := closeFrame(t, []float64{100, 200, 50})

	out, err := EntryExit(f, 5, 0.01, 0.01)
	if err != nil {
		t.Fatalf("EntryExit() error = %v", err)
	}
	entry, _ := out.Column(ColEntry)
	exit, _ := out.Column(ColExit)
	if entry[2] != 0 || exit[2] != 0 {
		t.Errorf("labels at final row = (%v, %v), want (0, 0)", entry[2], exit[2])
	}
}

func TestEntryExitValidation(t *testing.T) {
	f := closeFrame(t, []float64{1, 2, 3})

	tests := []struct {
		name      string
		horizon   int
		entryThr  float64
		exitThr   float64
	}{
		{"Zero horizon", 0, 0.01, 0.01},
		{"Zero entry threshold", 2, 0, 0.01},
		{"Negative exit threshold", 2, 0.01, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EntryExit(f, tt.horizon, tt.entryThr, tt.exitThr); err == nil {
				t.Error("EntryExit() expected error, got nil")
			}
		})
	}

	t.Run("Missing close", func(t *testing.T) {
		empty := series.New([]int64{1})
		if _, err := EntryExit(empty, 2, 0.01, 0.01); err == nil {
			t.Error("EntryExit() expected error for missing close, got nil")
		}
	})
}
