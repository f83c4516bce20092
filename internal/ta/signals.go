package ta

import (
	"fmt"
	"math"

	"stocksense/internal/types"
)

// Categorical signal values emitted by Interpret.
const (
	SignalBullish    = "Bullish"
	SignalBearish    = "Bearish"
	SignalOversold   = "Oversold"
	SignalOverbought = "Overbought"
	SignalNeutral    = "Neutral"
	SignalNearUpper  = "Near Upper"
	SignalNearLower  = "Near Lower"
	SignalUp         = "Up"
	SignalDown       = "Down"
)

// Interpret maps the most recent indicator row to categorical signals.
// Every rule is evaluated independently; there is no precedence between
// them. All required columns must be defined, which in practice needs
// around 200 bars of history; the caller guarantees that.
func Interpret(row types.IndicatorRow) (types.SignalSet, error) {
	required := []struct {
		name string
		v    float64
	}{
		{"SMA50", row.SMA50}, {"SMA200", row.SMA200},
		{"EMA50", row.EMA50}, {"EMA200", row.EMA200},
		{"RSI", row.RSI}, {"MACD", row.MACD},
		{"BB_upper", row.BBUpper}, {"BB_lower", row.BBLower},
		{"ROC5", row.ROC5},
	}
	for _, f := range required {
		if math.IsNaN(f.v) {
			return nil, fmt.Errorf("ta: %s undefined on latest bar, need more history", f.name)
		}
	}

	sig := types.SignalSet{}

	if row.SMA50 > row.SMA200 {
		sig["SMA"] = SignalBullish
	} else {
		sig["SMA"] = SignalBearish
	}
	if row.EMA50 > row.EMA200 {
		sig["EMA"] = SignalBullish
	} else {
		sig["EMA"] = SignalBearish
	}

	switch {
	case row.RSI < 30:
		sig["RSI"] = SignalOversold
	case row.RSI > 70:
		sig["RSI"] = SignalOverbought
	default:
		sig["RSI"] = SignalNeutral
	}

	if row.MACD > 0 {
		sig["MACD"] = SignalBullish
	} else {
		sig["MACD"] = SignalBearish
	}

	switch {
	case row.Close <= row.BBLower:
		sig["Bollinger"] = SignalNearLower
	case row.Close >= row.BBUpper:
		sig["Bollinger"] = SignalNearUpper
	default:
		sig["Bollinger"] = SignalNeutral
	}

	// Zero counts as Down.
	if row.ROC5 > 0 {
		sig["ROC5"] = SignalUp
	} else {
		sig["ROC5"] = SignalDown
	}

	return sig, nil
}
