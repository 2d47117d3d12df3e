package train

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/quantmill/tcnsignal/preprocess"
	"github.com/quantmill/tcnsignal/series"
	"github.com/quantmill/tcnsignal/tcn"
	"github.com/quantmill/tcnsignal/types"
)

// Result bundles the trained model with the fitted scaler and the per-epoch
// loss history. The scaler must travel with the model: inference inputs are
// only meaningful after scaling with the original training-range parameters.
type Result struct {
	Model     *tcn.Model
	Scaler    *preprocess.Scaler
	TrainLoss []float64
	ValidLoss []float64
}

// Train runs the whole pipeline on raw OHLCV bars: feature/label
// construction, train-prefix scaling, sequence windowing, and a fixed-epoch
// Adam loop minimizing binary cross-entropy on the entry/exit logits.
func Train(ohlcv *series.Frame, cfg *Config, log zerolog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	feats, labelFrame, err := BuildFeaturesAndLabels(ohlcv, cfg)
	if err != nil {
		return nil, err
	}
	n := feats.Len()
	trainN := int(float64(n) * cfg.TrainFrac)
	if trainN < 2 {
		return nil, fmt.Errorf("training range has %d rows after warm-up filtering, need at least 2", trainN)
	}

	scaler := preprocess.NewScaler()
	scaled, err := scaler.FitTransform(feats, preprocess.RowRange{Start: 0, End: trainN})
	if err != nil {
		return nil, err
	}

	windower, err := preprocess.NewWindowGenerator(cfg.SeqLen, cfg.Stride)
	if err != nil {
		return nil, err
	}
	x, y, err := windower.Generate(scaled.Values(), labelFrame.Values())
	if err != nil {
		return nil, err
	}
	if x.N == 0 {
		return nil, fmt.Errorf("no windows: %d usable rows with seq_len %d", n, cfg.SeqLen)
	}

	// A window trains only if it ends inside the scaler's training range;
	// everything after is validation.
	trainCount := 0
	for i := 0; i < x.N; i++ {
		if i*cfg.Stride+cfg.SeqLen <= trainN {
			trainCount++
		}
	}
	if trainCount == 0 {
		return nil, fmt.Errorf("no training windows: train range %d rows, seq_len %d", trainN, cfg.SeqLen)
	}

	model, err := tcn.New(tcn.Config{
		NumFeatures:    x.C,
		NumTargets:     labelFrame.NumColumns(),
		HiddenChannels: cfg.HiddenChannels,
		KernelSize:     cfg.KernelSize,
		Dropout:        cfg.Dropout,
		Seed:           cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	if rf := model.ReceptiveField(); cfg.SeqLen < rf {
		log.Warn().
			Int("seq_len", cfg.SeqLen).
			Int("receptive_field", rf).
			Msg("sequence shorter than receptive field, early timesteps see partial context")
	}
	log.Info().
		Int("rows", n).
		Int("features", x.C).
		Int("train_windows", trainCount).
		Int("valid_windows", x.N-trainCount).
		Msg("dataset assembled")

	opt := newAdam(model.Parameters(), cfg.LearningRate)
	rng := rand.New(rand.NewSource(cfg.Seed))

	res := &Result{Model: model, Scaler: scaler}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		perm := rng.Perm(trainCount)
		var trainTotal float64
		for off := 0; off < trainCount; off += cfg.BatchSize {
			end := off + cfg.BatchSize
			if end > trainCount {
				end = trainCount
			}
			idx := perm[off:end]
			xb := x.Gather(idx)
			yb := gatherRows(y, idx)

			logits := model.Forward(xb, true)
			loss, grad := bceWithLogits(logits, yb)
			model.ZeroGrad()
			model.Backward(grad)
			opt.Step()
			trainTotal += loss * float64(len(idx))
		}
		trainLoss := trainTotal / float64(trainCount)
		res.TrainLoss = append(res.TrainLoss, trainLoss)

		validLoss := evaluate(model, x, y, trainCount, cfg.BatchSize)
		res.ValidLoss = append(res.ValidLoss, validLoss)

		event := log.Info().
			Int("epoch", epoch).
			Int("epochs", cfg.Epochs).
			Float64("train_loss", trainLoss)
		if !math.IsNaN(validLoss) {
			event = event.Float64("valid_loss", validLoss)
		}
		event.Msg("epoch complete")
	}
	return res, nil
}

// evaluate computes the mean validation loss over windows [from, x.N) with
// dropout disabled. Returns NaN when there are no validation windows, so an
// absent validation set cannot be mistaken for a zero loss.
func evaluate(model *tcn.Model, x *types.Tensor, y [][]float64, from, batchSize int) float64 {
	if from >= x.N {
		return math.NaN()
	}
	var total float64
	for off := from; off < x.N; off += batchSize {
		end := off + batchSize
		if end > x.N {
			end = x.N
		}
		idx := make([]int, end-off)
		for i := range idx {
			idx[i] = off + i
		}
		logits := model.Forward(x.Gather(idx), false)
		loss, _ := bceWithLogits(logits, gatherRows(y, idx))
		total += loss * float64(len(idx))
	}
	return total / float64(x.N-from)
}

func gatherRows(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, n := range idx {
		out[i] = rows[n]
	}
	return out
}
