package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/quantmill/tcnsignal/series"
)

// pctChange computes the fractional change over the given number of steps.
// The first periods values are NaN.
func pctChange(values []float64, periods int) []float64 {
	out := nanSlice(len(values))
	for i := periods; i < len(values); i++ {
		out[i] = (values[i] - values[i-periods]) / values[i-periods]
	}
	return out
}

// rollingMean computes the mean of the w most recent values at every step.
func rollingMean(values []float64, w int) []float64 {
	out := nanSlice(len(values))
	for i := w - 1; i < len(values); i++ {
		window := values[i-w+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = stat.Mean(window, nil)
	}
	return out
}

// rollingStd computes the sample standard deviation (N-1) of the w most
// recent values at every step.
func rollingStd(values []float64, w int) []float64 {
	out := nanSlice(len(values))
	for i := w - 1; i < len(values); i++ {
		window := values[i-w+1 : i+1]
		if hasNaN(window) {
			continue
		}
		out[i] = stat.StdDev(window, nil)
	}
	return out
}

// rateOfChange is the percent change over w steps.
func rateOfChange(closes []float64, w int) []float64 {
	return pctChange(closes, w)
}

// rollingVolatility is the rolling sample standard deviation of one-step
// percent changes. The one-step return at position 0 is undefined, so the
// first w values are NaN.
func rollingVolatility(closes []float64, w int) []float64 {
	return rollingStd(pctChange(closes, 1), w)
}

// upFraction is the fraction of up-closes over the window. The first close
// counts as not-up, matching the treatment of an undefined first difference.
func upFraction(closes []float64, w int) []float64 {
	up := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i] > closes[i-1] {
			up[i] = 1
		}
	}
	return rollingMean(up, w)
}

// momentum is the w-step difference.
func momentum(closes []float64, w int) []float64 {
	out := nanSlice(len(closes))
	for i := w; i < len(closes); i++ {
		out[i] = closes[i] - closes[i-w]
	}
	return out
}

// rollingZScore standardizes each value against its own trailing window.
// A zero rolling standard deviation yields NaN rather than a division by
// zero.
func rollingZScore(closes []float64, w int) []float64 {
	mean := rollingMean(closes, w)
	std := rollingStd(closes, w)
	out := nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			continue
		}
		out[i] = (closes[i] - mean[i]) / std[i]
	}
	return out
}

// IndicatorMetrics computes the five statistical indicator series (rate of
// change, rolling volatility, up-fraction, momentum, z-score) on the raw
// close for each window.
func IndicatorMetrics(ohlcv *series.Frame, windows []int) (*series.Frame, error) {
	closes, ok := ohlcv.Column(series.ColClose)
	if !ok {
		return nil, fmt.Errorf("missing %q column", series.ColClose)
	}

	out := series.New(ohlcv.Index())
	for _, w := range windows {
		if w < 2 {
			return nil, fmt.Errorf("indicator window must be >= 2, got %d", w)
		}
		cols := []struct {
			name   string
			values []float64
		}{
			{fmt.Sprintf("roc_w%d", w), rateOfChange(closes, w)},
			{fmt.Sprintf("vol_w%d", w), rollingVolatility(closes, w)},
			{fmt.Sprintf("psi_w%d", w), upFraction(closes, w)},
			{fmt.Sprintf("mom_w%d", w), momentum(closes, w)},
			{fmt.Sprintf("zscore_w%d", w), rollingZScore(closes, w)},
		}
		for _, c := range cols {
			if err := out.AddColumn(c.name, c.values); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
