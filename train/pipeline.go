package train

import (
	"fmt"

	"github.com/quantmill/tcnsignal/features"
	"github.com/quantmill/tcnsignal/labels"
	"github.com/quantmill/tcnsignal/series"
)

// BuildFeaturesAndLabels runs the full feature/label construction pipeline:
// Heikin-Ashi transform, rolling trend metrics on both the HA close and the
// raw close, statistical indicators, column-wise aggregation (including the
// raw HA OHLC columns), forward entry/exit labels, and a joint drop of every
// row holding an undefined value. The returned frames share one index.
func BuildFeaturesAndLabels(ohlcv *series.Frame, cfg *Config) (*series.Frame, *series.Frame, error) {
	ha, err := features.HeikinAshi(ohlcv)
	if err != nil {
		return nil, nil, fmt.Errorf("heikin-ashi: %w", err)
	}
	haMetrics, err := features.HAMetrics(ha, cfg.HAWindows)
	if err != nil {
		return nil, nil, fmt.Errorf("ha metrics: %w", err)
	}
	closeMetrics, err := features.CloseMetrics(ohlcv, cfg.HAWindows)
	if err != nil {
		return nil, nil, fmt.Errorf("close metrics: %w", err)
	}
	indicators, err := features.IndicatorMetrics(ohlcv, cfg.IndicatorWindows)
	if err != nil {
		return nil, nil, fmt.Errorf("indicators: %w", err)
	}

	feats, err := features.Aggregate([]*series.Frame{haMetrics, closeMetrics, indicators, ha})
	if err != nil {
		return nil, nil, err
	}

	labelFrame, err := labels.EntryExit(ohlcv, cfg.LabelHorizon, cfg.EntryThreshold, cfg.ExitThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}

	// Every intermediate table must share the input's time index; check the
	// join point instead of assuming it.
	if !feats.SameIndex(labelFrame) {
		return nil, nil, fmt.Errorf("feature and label indices diverged")
	}

	filtered, err := series.DropNaN(feats, labelFrame)
	if err != nil {
		return nil, nil, err
	}
	return filtered[0], filtered[1], nil
}
