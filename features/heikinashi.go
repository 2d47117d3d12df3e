package features

import (
	"fmt"
	"math"

	"github.com/quantmill/tcnsignal/series"
)

// Heikin-Ashi column names.
const (
	ColHAOpen  = "ha_open"
	ColHAHigh  = "ha_high"
	ColHALow   = "ha_low"
	ColHAClose = "ha_close"
)

// HeikinAshi computes smoothed Heikin-Ashi OHLC candles from raw OHLC.
//
// ha_close is the row mean of the four raw prices and depends only on its own
// row. ha_open is a strictly sequential recurrence: step i requires step i-1,
// so it is computed with an explicit forward loop and cannot be reordered
// across the time axis. ha_high/ha_low are the elementwise extrema of the raw
// high/low and the derived open/close.
func HeikinAshi(ohlcv *series.Frame) (*series.Frame, error) {
	if missing := ohlcv.Missing(series.ColOpen, series.ColHigh, series.ColLow, series.ColClose); len(missing) > 0 {
		return nil, fmt.Errorf("missing OHLC columns: %v", missing)
	}

	open, _ := ohlcv.Column(series.ColOpen)
	high, _ := ohlcv.Column(series.ColHigh)
	low, _ := ohlcv.Column(series.ColLow)
	closes, _ := ohlcv.Column(series.ColClose)

	n := ohlcv.Len()
	haClose := make([]float64, n)
	for i := 0; i < n; i++ {
		haClose[i] = (open[i] + high[i] + low[i] + closes[i]) / 4.0
	}

	haOpen := make([]float64, n)
	if n > 0 {
		haOpen[0] = (open[0] + closes[0]) / 2.0
		for i := 1; i < n; i++ {
			haOpen[i] = (haOpen[i-1] + haClose[i-1]) / 2.0
		}
	}

	haHigh := make([]float64, n)
	haLow := make([]float64, n)
	for i := 0; i < n; i++ {
		haHigh[i] = math.Max(high[i], math.Max(haOpen[i], haClose[i]))
		haLow[i] = math.Min(low[i], math.Min(haOpen[i], haClose[i]))
	}

	ha := series.New(ohlcv.Index())
	if err := ha.AddColumn(ColHAOpen, haOpen); err != nil {
		return nil, err
	}
	if err := ha.AddColumn(ColHAHigh, haHigh); err != nil {
		return nil, err
	}
	if err := ha.AddColumn(ColHALow, haLow); err != nil {
		return nil, err
	}
	if err := ha.AddColumn(ColHAClose, haClose); err != nil {
		return nil, err
	}
	return ha, nil
}
