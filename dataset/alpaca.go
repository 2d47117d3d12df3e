package dataset

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/quantmill/tcnsignal/series"
)

// AlpacaSource fetches historical OHLCV bars from the Alpaca market data
// API.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource creates a source using the given API credentials.
func NewAlpacaSource(apiKey, apiSecret string) *AlpacaSource {
	return &AlpacaSource{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

// Bars fetches bars for one symbol over [start, end], oldest first.
func (s *AlpacaSource) Bars(symbol string, timeframe marketdata.TimeFrame, start, end time.Time) ([]series.Bar, error) {
	bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: timeframe,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch bars for %s: %w", symbol, err)
	}

	out := make([]series.Bar, len(bars))
	for i, bar := range bars {
		out[i] = series.Bar{
			Time:   bar.Timestamp.Unix(),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		}
	}
	return out, nil
}

// ParseTimeFrame maps a config string to an Alpaca timeframe.
func ParseTimeFrame(s string) (marketdata.TimeFrame, error) {
	switch s {
	case "1Min":
		return marketdata.OneMin, nil
	case "1H", "1Hour":
		return marketdata.OneHour, nil
	case "1D", "1Day":
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported timeframe %q (use 1Min, 1Hour or 1Day)", s)
	}
}
