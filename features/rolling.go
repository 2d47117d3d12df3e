package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/quantmill/tcnsignal/series"
)

// rollingSlope computes, at every step, the OLS slope of the w most recent
// values (oldest first) against elapsed-step indices x = 0..w-1. The first
// w-1 steps are NaN, as is any window containing an undefined value.
func rollingSlope(values []float64, w int) []float64 {
	n := len(values)
	out := nanSlice(n)

	xMean := float64(w-1) / 2.0
	// Sum of (x - xMean)^2 for x = 0..w-1 in closed form.
	denom := float64(w) * float64(w*w-1) / 12.0

	for i := w - 1; i < n; i++ {
		window := values[i-w+1 : i+1]
		if hasNaN(window) {
			continue
		}
		yMean := stat.Mean(window, nil)
		var num float64
		for j, y := range window {
			num += (float64(j) - xMean) * (y - yMean)
		}
		if denom == 0 {
			// Unreachable for w >= 2 with integer steps, guarded anyway.
			out[i] = 0
			continue
		}
		out[i] = num / denom
	}
	return out
}

// angleFromSlope converts slopes to angles in degrees.
func angleFromSlope(slope []float64) []float64 {
	out := make([]float64, len(slope))
	for i, s := range slope {
		out[i] = math.Atan(s) * 180.0 / math.Pi
	}
	return out
}

// diff is the first backward difference; position 0 is NaN.
func diff(values []float64) []float64 {
	out := nanSlice(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// trendColumns appends slope/angle/accel columns for one source series, one
// triple per window, named <prefix>_slope_w<w> and so on.
func trendColumns(dst *series.Frame, values []float64, prefix string, windows []int) error {
	for _, w := range windows {
		if w < 2 {
			return fmt.Errorf("rolling window must be >= 2, got %d", w)
		}
		slope := rollingSlope(values, w)
		if err := dst.AddColumn(fmt.Sprintf("%s_slope_w%d", prefix, w), slope); err != nil {
			return err
		}
		if err := dst.AddColumn(fmt.Sprintf("%s_angle_w%d", prefix, w), angleFromSlope(slope)); err != nil {
			return err
		}
		if err := dst.AddColumn(fmt.Sprintf("%s_accel_w%d", prefix, w), diff(slope)); err != nil {
			return err
		}
	}
	return nil
}

// HAMetrics computes slope, angle and acceleration of the Heikin-Ashi close
// for each window.
func HAMetrics(ha *series.Frame, windows []int) (*series.Frame, error) {
	haClose, ok := ha.Column(ColHAClose)
	if !ok {
		return nil, fmt.Errorf("missing %q column", ColHAClose)
	}
	out := series.New(ha.Index())
	if err := trendColumns(out, haClose, "ha", windows); err != nil {
		return nil, err
	}
	return out, nil
}

// CloseMetrics computes slope, angle and acceleration of the raw close for
// each window.
func CloseMetrics(ohlcv *series.Frame, windows []int) (*series.Frame, error) {
	closes, ok := ohlcv.Column(series.ColClose)
	if !ok {
		return nil, fmt.Errorf("missing %q column", series.ColClose)
	}
	out := series.New(ohlcv.Index())
	if err := trendColumns(out, closes, "close", windows); err != nil {
		return nil, err
	}
	return out, nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
