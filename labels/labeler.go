package labels

import (
	"fmt"

	"github.com/quantmill/tcnsignal/series"
)

// Label column names, in the order the model's targets are trained.
const (
	ColEntry = "entry"
	ColExit  = "exit"
)

// EntryExit generates forward-looking binary entry/exit labels from the raw
// close series.
//
// For each step i the forward window holds up to horizon subsequent prices,
// strictly after i and never past the end of the series. entry=1 when the
// maximum forward return reaches entryThreshold, exit=1 when the minimum
// forward return reaches -exitThreshold; both may fire on the same row. A
// step with no forward prices labels 0/0. The scan only reads prices strictly
// between i and the horizon bound, so the label depends on nothing below its
// own anchor row.
func EntryExit(ohlcv *series.Frame, horizon int, entryThreshold, exitThreshold float64) (*series.Frame, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be >= 1, got %d", horizon)
	}
	if entryThreshold <= 0 || exitThreshold <= 0 {
		return nil, fmt.Errorf("entry/exit thresholds must be > 0, got %g and %g", entryThreshold, exitThreshold)
	}
	closes, ok := ohlcv.Column(series.ColClose)
	if !ok {
		return nil, fmt.Errorf("missing %q column", series.ColClose)
	}

	n := len(closes)
	entry := make([]float64, n)
	exit := make([]float64, n)
	for i := 0; i < n; i++ {
		end := i + horizon + 1
		if end > n {
			end = n
		}
		if end-i <= 1 {
			continue // no forward data, label stays 0/0
		}
		base := closes[i]
		forwardMax := closes[i+1]/base - 1.0
		forwardMin := forwardMax
		for j := i + 2; j < end; j++ {
			r := closes[j]/base - 1.0
			if r > forwardMax {
				forwardMax = r
			}
			if r < forwardMin {
				forwardMin = r
			}
		}
		if forwardMax >= entryThreshold {
			entry[i] = 1
		}
		if forwardMin <= -exitThreshold {
			exit[i] = 1
		}
	}

	out := series.New(ohlcv.Index())
	if err := out.AddColumn(ColEntry, entry); err != nil {
		return nil, err
	}
	if err := out.AddColumn(ColExit, exit); err != nil {
		return nil, err
	}
	return out, nil
}
