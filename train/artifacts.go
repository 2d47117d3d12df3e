package train

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmill/tcnsignal/preprocess"
	"github.com/quantmill/tcnsignal/tcn"
)

const (
	modelFile  = "model.json"
	scalerFile = "scaler.json"
)

// scalerParams is the persisted form of the fitted scaler.
type scalerParams struct {
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
	Columns []string  `json:"columns"`
}

// SaveArtifacts writes the model weights and the fitted scaler parameters to
// dir. Both files are required at inference time: logits are defined only for
// inputs scaled with the original training-range parameters.
func SaveArtifacts(dir string, res *Result) error {
	mean, std, columns, err := res.Scaler.Params()
	if err != nil {
		return fmt.Errorf("scaler params: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, modelFile), res.Model.State()); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, scalerFile), scalerParams{Mean: mean, Std: std, Columns: columns})
}

// LoadArtifacts restores a trained model and its scaler from dir.
func LoadArtifacts(dir string) (*tcn.Model, *preprocess.Scaler, error) {
	var st tcn.State
	if err := readJSON(filepath.Join(dir, modelFile), &st); err != nil {
		return nil, nil, err
	}
	model, err := tcn.FromState(&st)
	if err != nil {
		return nil, nil, fmt.Errorf("restore model: %w", err)
	}

	var sp scalerParams
	if err := readJSON(filepath.Join(dir, scalerFile), &sp); err != nil {
		return nil, nil, err
	}
	scaler, err := preprocess.NewScalerFromParams(sp.Mean, sp.Std, sp.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("restore scaler: %w", err)
	}
	return model, scaler, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
