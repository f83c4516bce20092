package dataset

import (
	"math"
	"testing"
	"time"

	"stocksense/internal/ta"
	"stocksense/internal/types"
)

func indicatorRows(t *testing.T, closes []float64) []types.IndicatorRow {
	t.Helper()
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	rows, err := ta.Compute(bars)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestLabelsNeverAssignedForTrailingHorizon(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + 2*math.Sin(float64(i)/4)
	}
	cfg := DefaultLabelConfig()
	labels := Labels(indicatorRows(t, closes), cfg)

	if len(labels) != len(closes) {
		t.Fatalf("labels not index-aligned: %d vs %d", len(labels), len(closes))
	}
	for i := len(labels) - cfg.Horizon; i < len(labels); i++ {
		if labels[i] != types.LabelNone {
			t.Errorf("label assigned at bar %d inside the horizon tail: %q", i, labels[i])
		}
	}
	for i := 0; i < 30; i++ {
		if labels[i] != types.LabelNone {
			t.Errorf("label assigned at bar %d before volatility window: %q", i, labels[i])
		}
	}
}

func TestLabelsConstantPriceIsHold(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100
	}
	cfg := DefaultLabelConfig()
	labels := Labels(indicatorRows(t, closes), cfg)
	// Zero volatility means a zero threshold; a zero future return ties
	// with it on both sides and must resolve to HOLD.
	for i := 30; i < len(labels)-cfg.Horizon; i++ {
		if labels[i] != types.LabelHold {
			t.Fatalf("label[%d] = %q, want HOLD on flat series", i, labels[i])
		}
	}
}

func TestLabelsDriftAssignsBuyAndSell(t *testing.T) {
	// Flat for the volatility window, then a step up and later a step
	// down, so both thresholds get crossed.
	closes := make([]float64, 120)
	for i := range closes {
		switch {
		case i < 60:
			closes[i] = 100 + 0.1*math.Sin(float64(i))
		case i < 90:
			closes[i] = 120
		default:
			closes[i] = 80
		}
	}
	labels := Labels(indicatorRows(t, closes), DefaultLabelConfig())

	var sawBuy, sawSell bool
	for _, l := range labels {
		switch l {
		case types.LabelBuy:
			sawBuy = true
		case types.LabelSell:
			sawSell = true
		}
	}
	if !sawBuy || !sawSell {
		t.Errorf("expected both BUY and SELL labels, got buy=%v sell=%v", sawBuy, sawSell)
	}
}

func TestFeaturesFullyDefined(t *testing.T) {
	// Short series: most indicator columns are still NaN and must fill.
	rows := indicatorRows(t, []float64{100, 101, 99, 102, 100})
	feats := Features(rows, 0.25, true)
	if len(feats) != len(rows) {
		t.Fatalf("features not index-aligned")
	}
	names := FeatureNames(true)
	for i, f := range feats {
		if len(f) != len(names) {
			t.Fatalf("row %d has %d features, want %d", i, len(f), len(names))
		}
		for j, v := range f {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("feature %s undefined at row %d", names[j], i)
			}
		}
	}
	// Undefined RSI fills with the neutral 50.
	if feats[0][2] != 50 {
		t.Errorf("rsi fill = %v, want 50", feats[0][2])
	}
	// Sentiment is attached uniformly.
	for i, f := range feats {
		if f[7] != 0.25 {
			t.Errorf("sentiment at row %d = %v, want 0.25", i, f[7])
		}
	}
}

func TestFeaturesConstantPriceBollingerFill(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	feats := Features(indicatorRows(t, closes), 0, false)
	// Band width is zero on a constant series: position fills with 0.
	last := feats[len(feats)-1]
	if last[4] != 0 {
		t.Errorf("bollinger_position = %v, want 0 for degenerate band", last[4])
	}
	if len(last) != len(FeatureNames(false)) {
		t.Errorf("sentiment column present without sentiment")
	}
}

func TestFeatureCrossFlags(t *testing.T) {
	rows := []types.IndicatorRow{{
		PriceBar: types.PriceBar{Close: 100},
		SMA50:    110, SMA200: 100,
		EMA50: 90, EMA200: 100,
		RSI: 40, MACD: 0.5, BBUpper: 110, BBLower: 90,
		ROC5: 0.01, ROC10: 0.02,
	}}
	f := Features(rows, 0, false)[0]
	if f[0] != 1 {
		t.Errorf("sma_cross = %v, want 1", f[0])
	}
	if f[1] != 0 {
		t.Errorf("ema_cross = %v, want 0", f[1])
	}
	if math.Abs(f[4]-0.5) > 1e-9 {
		t.Errorf("bollinger_position = %v, want 0.5", f[4])
	}
}
