package dataset

import (
	"math"

	"stocksense/internal/types"
)

const (
	neutralRSI = 50.0
)

// FeatureNames returns the column order produced by Features.
func FeatureNames(withSentiment bool) []string {
	names := []string{
		"sma_cross", "ema_cross", "rsi", "macd",
		"bollinger_position", "roc5", "roc10",
	}
	if withSentiment {
		names = append(names, "sentiment")
	}
	return names
}

// Features builds one fully defined vector per indicator row. Undefined
// RSI fills with 50, everything else undefined fills with 0. The
// sentiment scalar, when enabled, is attached uniformly to every row:
// it is one aggregate per analysis run, not a per-day series.
func Features(rows []types.IndicatorRow, sentiment float64, withSentiment bool) []types.FeatureVector {
	out := make([]types.FeatureVector, len(rows))
	for i, r := range rows {
		v := make(types.FeatureVector, 0, 8)
		v = append(v, crossFeature(r.SMA50, r.SMA200))
		v = append(v, crossFeature(r.EMA50, r.EMA200))
		v = append(v, fill(r.RSI, neutralRSI))
		v = append(v, fill(r.MACD, 0))
		v = append(v, bollingerPosition(r))
		v = append(v, fill(r.ROC5, 0))
		v = append(v, fill(r.ROC10, 0))
		if withSentiment {
			v = append(v, sentiment)
		}
		out[i] = v
	}
	return out
}

// crossFeature is 1 when the fast average is above the slow one, else 0.
func crossFeature(fast, slow float64) float64 {
	if !math.IsNaN(fast) && !math.IsNaN(slow) && fast > slow {
		return 1
	}
	return 0
}

// bollingerPosition locates the close within the band, 0 at the lower
// band and 1 at the upper. A zero-width band (constant price) is treated
// as undefined and fills with 0.
func bollingerPosition(r types.IndicatorRow) float64 {
	width := r.BBUpper - r.BBLower
	if math.IsNaN(width) || width == 0 {
		return 0
	}
	return (r.Close - r.BBLower) / width
}

func fill(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return v
}
