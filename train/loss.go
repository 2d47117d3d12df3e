package train

import "math"

// bceWithLogits computes the mean binary cross-entropy over raw logits and
// 0/1 targets, along with the gradient with respect to the logits. Uses the
// numerically stable form max(z,0) - z*y + log(1+exp(-|z|)).
func bceWithLogits(logits, targets [][]float64) (float64, [][]float64) {
	var total float64
	var count int
	grad := make([][]float64, len(logits))
	for n, row := range logits {
		grad[n] = make([]float64, len(row))
		count += len(row)
	}
	if count == 0 {
		return 0, grad
	}

	scale := 1.0 / float64(count)
	for n, row := range logits {
		for o, z := range row {
			y := targets[n][o]
			loss := math.Log1p(math.Exp(-math.Abs(z))) - z*y
			if z > 0 {
				loss += z
			}
			total += loss
			grad[n][o] = (sigmoid(z) - y) * scale
		}
	}
	return total * scale, grad
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
