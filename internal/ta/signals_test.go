package ta

import (
	"math"
	"testing"

	"stocksense/internal/types"
)

func definedRow() types.IndicatorRow {
	return types.IndicatorRow{
		PriceBar: types.PriceBar{Close: 105},
		SMA50:    110, SMA200: 100,
		EMA50: 108, EMA200: 102,
		RSI: 55, MACD: 1.5,
		BBUpper: 120, BBLower: 90,
		ROC5: 0.02, ROC10: 0.04,
	}
}

func TestInterpretBullishRow(t *testing.T) {
	sig, err := Interpret(definedRow())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"SMA":       SignalBullish,
		"EMA":       SignalBullish,
		"RSI":       SignalNeutral,
		"MACD":      SignalBullish,
		"Bollinger": SignalNeutral,
		"ROC5":      SignalUp,
	}
	for k, v := range want {
		if sig[k] != v {
			t.Errorf("%s = %q, want %q", k, sig[k], v)
		}
	}
}

func TestInterpretThresholds(t *testing.T) {
	row := definedRow()
	row.RSI = 25
	row.MACD = -0.5
	row.SMA50, row.SMA200 = 95, 100
	row.ROC5 = 0 // zero counts as Down
	row.Close = 90
	sig, err := Interpret(row)
	if err != nil {
		t.Fatal(err)
	}
	if sig["RSI"] != SignalOversold {
		t.Errorf("RSI = %q, want Oversold", sig["RSI"])
	}
	if sig["MACD"] != SignalBearish {
		t.Errorf("MACD = %q, want Bearish", sig["MACD"])
	}
	if sig["SMA"] != SignalBearish {
		t.Errorf("SMA = %q, want Bearish", sig["SMA"])
	}
	if sig["ROC5"] != SignalDown {
		t.Errorf("ROC5 = %q, want Down", sig["ROC5"])
	}
	if sig["Bollinger"] != SignalNearLower {
		t.Errorf("Bollinger = %q, want Near Lower", sig["Bollinger"])
	}
}

func TestInterpretOverbought(t *testing.T) {
	row := definedRow()
	row.RSI = 75
	row.Close = 125
	sig, err := Interpret(row)
	if err != nil {
		t.Fatal(err)
	}
	if sig["RSI"] != SignalOverbought {
		t.Errorf("RSI = %q, want Overbought", sig["RSI"])
	}
	if sig["Bollinger"] != SignalNearUpper {
		t.Errorf("Bollinger = %q, want Near Upper", sig["Bollinger"])
	}
}

func TestInterpretUndefinedField(t *testing.T) {
	row := definedRow()
	row.RSI = math.NaN()
	if _, err := Interpret(row); err == nil {
		t.Fatal("expected error for undefined RSI")
	}
}
