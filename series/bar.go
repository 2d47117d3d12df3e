package series

// Canonical OHLCV column names shared across the pipeline.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// Bar is a single OHLCV observation. High/low are assumed (not enforced) to
// bound open and close.
type Bar struct {
	Time   int64 // unix seconds
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FrameFromBars assembles a time-ordered OHLCV frame from raw bars.
func FrameFromBars(bars []Bar) *Frame {
	n := len(bars)
	index := make([]int64, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		index[i] = b.Time
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}

	f := New(index)
	// AddColumn cannot fail here: lengths match and names are unique.
	_ = f.AddColumn(ColOpen, open)
	_ = f.AddColumn(ColHigh, high)
	_ = f.AddColumn(ColLow, low)
	_ = f.AddColumn(ColClose, closes)
	_ = f.AddColumn(ColVolume, volume)
	return f
}
