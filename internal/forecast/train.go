package forecast

import (
	"context"
	"fmt"
	"math/rand"

	"stocksense/internal/logger"
)

// Train fits a fresh model on a close-price series with sliding
// lookback windows and mean squared error. It returns
// ErrInsufficientData when the series cannot produce a single
// window-target pair.
func Train(ctx context.Context, cfg Config, closes []float64) (*Model, error) {
	L := cfg.Lookback
	if len(closes) < L+1 {
		return nil, fmt.Errorf("forecast: need %d closes, have %d: %w", L+1, len(closes), ErrInsufficientData)
	}

	m := NewModel(cfg)
	m.Scaler.Fit(closes)
	scaled := m.Scaler.Transform(closes)

	windows, targets := makeWindows(scaled, L)
	opt := newAdam(m.params(), cfg.LearningRate)
	rng := rand.New(rand.NewSource(cfg.Seed))

	timer := logger.StartOperation(ctx, "forecast.train",
		"samples", len(windows), "lookback", L, "epochs", cfg.Epochs)

	order := make([]int, len(windows))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			for _, idx := range batch {
				pred, fc := m.forward(windows[idx])
				diff := pred - targets[idx]
				epochLoss += diff * diff
				// d(MSE)/dPred averaged over the batch.
				m.backward(2*diff/float64(len(batch)), fc)
			}
			opt.Step()
		}

		logger.Debug(ctx, "Epoch finished",
			"epoch", epoch+1, "mse", epochLoss/float64(len(windows)))
	}

	timer.End()
	return m, nil
}

// makeWindows slices the scaled series into lookback windows paired
// with the value that follows each window.
func makeWindows(scaled []float64, lookback int) ([][]float64, []float64) {
	n := len(scaled) - lookback
	windows := make([][]float64, n)
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		windows[i] = scaled[i : i+lookback]
		targets[i] = scaled[i+lookback]
	}
	return windows, targets
}
