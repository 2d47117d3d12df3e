package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/quantmill/tcnsignal/series"
)

// ErrNotFitted is returned when Transform or Params is called before Fit.
var ErrNotFitted = errors.New("scaler is not fitted")

// RowRange is a contiguous half-open row interval [Start, End).
type RowRange struct {
	Start int
	End   int
}

// Scaler standardizes features with per-column mean and standard deviation
// fitted on a training row range only. The fitted parameters are immutable
// and are reused verbatim on every later row, including rows outside the
// training range; refitting on new data would shift the feature distribution
// the model was trained against.
//
// Standard deviation is the sample (N-1) estimator.
type Scaler struct {
	mean    []float64
	std     []float64
	columns []string
	fitted  bool
}

// NewScaler returns an unfitted scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// NewScalerFromParams reconstructs a fitted scaler from persisted parameters.
func NewScalerFromParams(mean, std []float64, columns []string) (*Scaler, error) {
	if len(mean) != len(columns) || len(std) != len(columns) {
		return nil, fmt.Errorf("parameter lengths disagree: %d means, %d stds, %d columns",
			len(mean), len(std), len(columns))
	}
	return &Scaler{mean: mean, std: std, columns: columns, fitted: true}, nil
}

// Fit computes per-column mean and standard deviation over the given row
// range. Columns with a standard deviation of exactly zero are assigned a
// standard deviation of one, so constant columns scale to zero instead of
// dividing by zero. The column order is recorded for Transform.
func (s *Scaler) Fit(features *series.Frame, r RowRange) error {
	if r.Start < 0 || r.End > features.Len() || r.Start >= r.End {
		return fmt.Errorf("invalid training range [%d, %d) for %d rows", r.Start, r.End, features.Len())
	}

	names := features.Names()
	mean := make([]float64, len(names))
	std := make([]float64, len(names))
	for j, name := range names {
		col, _ := features.Column(name)
		train := col[r.Start:r.End]
		mean[j] = stat.Mean(train, nil)
		std[j] = stat.StdDev(train, nil)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	s.mean = mean
	s.std = std
	s.columns = names
	s.fitted = true
	return nil
}

// Transform applies (x - mean) / std to every row of features, preserving
// the index and the column order recorded at fit time.
func (s *Scaler) Transform(features *series.Frame) (*series.Frame, error) {
	if !s.fitted {
		return nil, ErrNotFitted
	}
	if missing := features.Missing(s.columns...); len(missing) > 0 {
		return nil, fmt.Errorf("features are missing fitted columns: %v", missing)
	}

	out := series.New(features.Index())
	for j, name := range s.columns {
		col, _ := features.Column(name)
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - s.mean[j]) / s.std[j]
		}
		if err := out.AddColumn(name, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransform fits on the training range and transforms the full frame.
func (s *Scaler) FitTransform(features *series.Frame, r RowRange) (*series.Frame, error) {
	if err := s.Fit(features, r); err != nil {
		return nil, err
	}
	return s.Transform(features)
}

// Params returns the fitted mean, standard deviation and column order. These
// must be persisted alongside model weights: inference-time inputs have to be
// scaled with the parameters of the original training range.
func (s *Scaler) Params() (mean, std []float64, columns []string, err error) {
	if !s.fitted {
		return nil, nil, nil, ErrNotFitted
	}
	return s.mean, s.std, s.columns, nil
}
