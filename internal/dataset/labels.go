// Package dataset derives supervised labels and feature vectors from an
// indicator series. Labels and features stay index-aligned to the bar
// sequence they were derived from.
package dataset

import (
	"math"

	"stocksense/internal/types"
)

const volWindow = 30

// LabelConfig controls forward-return labelling.
type LabelConfig struct {
	// Horizon is the number of bars forward used for the future return.
	Horizon int
	// VolFactor scales the local volatility into the decision threshold.
	VolFactor float64
}

func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Horizon: 5, VolFactor: 0.5}
}

// Labels assigns BUY/HOLD/SELL to each bar by comparing the forward
// return over cfg.Horizon bars against a volatility-scaled threshold
// (30-bar sample stdev of daily returns times cfg.VolFactor). Ties go to
// HOLD. The first volWindow bars have no threshold and the last Horizon
// bars have no future close; both get LabelNone and must stay out of
// training.
func Labels(rows []types.IndicatorRow, cfg LabelConfig) []types.Label {
	labels := make([]types.Label, len(rows))
	for i := range labels {
		labels[i] = types.LabelNone
	}
	if len(rows) == 0 || cfg.Horizon <= 0 {
		return labels
	}

	rets := dailyReturns(rows)
	for i := range rows {
		if i < volWindow || i+cfg.Horizon >= len(rows) {
			continue
		}
		vol := sampleStdDev(rets[i+1-volWindow : i+1])
		if math.IsNaN(vol) {
			continue
		}
		thr := vol * cfg.VolFactor

		entry := rows[i].Close
		if entry == 0 {
			continue
		}
		future := (rows[i+cfg.Horizon].Close - entry) / entry
		switch {
		case future > thr:
			labels[i] = types.LabelBuy
		case future < -thr:
			labels[i] = types.LabelSell
		default:
			labels[i] = types.LabelHold
		}
	}
	return labels
}

// dailyReturns[i] is the fractional close change from bar i-1 to bar i;
// index 0 is NaN.
func dailyReturns(rows []types.IndicatorRow) []float64 {
	rets := make([]float64, len(rows))
	rets[0] = math.NaN()
	for i := 1; i < len(rows); i++ {
		prev := rows[i-1].Close
		if prev == 0 {
			rets[i] = math.NaN()
			continue
		}
		rets[i] = rows[i].Close/prev - 1.0
	}
	return rets
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		if math.IsNaN(x) {
			return math.NaN()
		}
		sum += x
	}
	m := sum / float64(len(xs))
	s := 0.0
	for _, x := range xs {
		d := x - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(xs)-1))
}
