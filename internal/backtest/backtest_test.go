package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"stocksense/internal/types"
)

func bars(closes ...float64) []types.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = types.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func holds(n int) []types.Label {
	out := make([]types.Label, n)
	for i := range out {
		out[i] = types.LabelHold
	}
	return out
}

func TestRunValidation(t *testing.T) {
	if _, err := Run(nil, nil, 1); err == nil {
		t.Error("empty bars accepted")
	}
	if _, err := Run(bars(1, 2), holds(3), 1); err == nil {
		t.Error("length mismatch accepted")
	}
	if _, err := Run(bars(1, 2), holds(2), 0); err == nil {
		t.Error("zero capital accepted")
	}
}

func TestAllHoldStaysInCash(t *testing.T) {
	series := bars(100, 110, 90, 120)
	res, err := Run(series, holds(len(series)), DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range res.Values {
		if v != DefaultStartCapital {
			t.Errorf("value[%d] = %v, want %v", i, v, DefaultStartCapital)
		}
	}
	if res.Stats.Trades != 0 || len(res.Trades) != 0 {
		t.Errorf("trades = %d, want 0", res.Stats.Trades)
	}
	if !math.IsNaN(res.Stats.SharpeRatio) {
		t.Errorf("flat curve sharpe = %v, want NaN", res.Stats.SharpeRatio)
	}
	if res.Stats.MaxDrawdown != 0 {
		t.Errorf("flat curve drawdown = %v, want 0", res.Stats.MaxDrawdown)
	}
}

func TestRoundTripTrade(t *testing.T) {
	series := bars(100, 100, 120, 120)
	labels := []types.Label{types.LabelBuy, types.LabelHold, types.LabelSell, types.LabelHold}

	res, err := Run(series, labels, DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Stats.FinalValue; math.Abs(got-1.2) > 1e-9 {
		t.Errorf("final value = %v, want 1.2", got)
	}
	if len(res.Trades) != 2 || res.Trades[0].Side != "BUY" || res.Trades[1].Side != "SELL" {
		t.Fatalf("trades = %+v, want BUY then SELL", res.Trades)
	}
	if len(res.TradeReturns) != 1 || math.Abs(res.TradeReturns[0]-0.2) > 1e-9 {
		t.Errorf("trade returns = %v, want [0.2]", res.TradeReturns)
	}
	if res.Stats.WinRate != 1 {
		t.Errorf("win rate = %v, want 1", res.Stats.WinRate)
	}
	if math.Abs(res.Stats.AvgTradeReturn-0.2) > 1e-9 || math.Abs(res.Stats.MedianTrade-0.2) > 1e-9 {
		t.Errorf("avg/median trade = %v/%v, want 0.2", res.Stats.AvgTradeReturn, res.Stats.MedianTrade)
	}
	if res.Stats.AnnualReturn <= 0 {
		t.Errorf("annualized return = %v, want positive", res.Stats.AnnualReturn)
	}
	if res.Stats.AnnualVolatility <= 0 {
		t.Errorf("annualized volatility = %v, want positive", res.Stats.AnnualVolatility)
	}
}

func TestRedundantSignalsIgnored(t *testing.T) {
	series := bars(100, 110, 120, 130)
	labels := []types.Label{types.LabelBuy, types.LabelBuy, types.LabelSell, types.LabelSell}

	res, err := Run(series, labels, DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	// Second BUY and second SELL hit an already-matching state.
	if len(res.Trades) != 2 {
		t.Fatalf("trades = %+v, want exactly one round trip", res.Trades)
	}
	if math.Abs(res.Stats.FinalValue-1.2) > 1e-9 {
		t.Errorf("final value = %v, want 1.2", res.Stats.FinalValue)
	}
}

func TestOpenPositionMarkedToMarket(t *testing.T) {
	series := bars(100, 110, 121)
	labels := []types.Label{types.LabelBuy, types.LabelHold, types.LabelHold}

	res, err := Run(series, labels, DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Stats.FinalValue-1.21) > 1e-9 {
		t.Errorf("final value = %v, want 1.21", res.Stats.FinalValue)
	}
	if len(res.TradeReturns) != 1 || math.Abs(res.TradeReturns[0]-0.21) > 1e-9 {
		t.Errorf("unrealized trade return = %v, want [0.21]", res.TradeReturns)
	}
	years := 2.0 / 365.25
	want := math.Pow(1.21, 1/years) - 1
	if math.Abs(res.Stats.BuyHoldReturn-want) > math.Abs(want)*1e-9 {
		t.Errorf("buy and hold = %v, want %v annualized", res.Stats.BuyHoldReturn, want)
	}
}

func TestAnnualizedStatsUseCalendarSpan(t *testing.T) {
	closes := make([]float64, 505)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.001, float64(i)) * (1 + 0.01*math.Sin(float64(i)))
	}
	series := bars(closes...)
	labels := holds(len(series))
	labels[0] = types.LabelBuy

	res, err := Run(series, labels, DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}

	years := series[len(series)-1].Date.Sub(series[0].Date).Hours() / 24 / 365.25
	if math.Abs(res.Stats.Years-years) > 1e-12 {
		t.Fatalf("years = %v, want %v", res.Stats.Years, years)
	}
	wantAnnual := math.Pow(1+res.Stats.TotalReturn, 1/years) - 1
	if math.Abs(res.Stats.AnnualReturn-wantAnnual) > 1e-9 {
		t.Errorf("annual return = %v, want %v", res.Stats.AnnualReturn, wantAnnual)
	}
	// Always long from the first bar, so the strategy matches buy and
	// hold and both are annualized over the same span.
	if math.Abs(res.Stats.BuyHoldReturn-wantAnnual) > 1e-9 {
		t.Errorf("buy and hold = %v, want %v", res.Stats.BuyHoldReturn, wantAnnual)
	}
	wantSharpe := res.Stats.AnnualReturn / res.Stats.AnnualVolatility
	if math.Abs(res.Stats.SharpeRatio-wantSharpe) > math.Abs(wantSharpe)*1e-12 {
		t.Errorf("sharpe = %v, want annual return over annual volatility %v", res.Stats.SharpeRatio, wantSharpe)
	}
}

func TestMaxDrawdown(t *testing.T) {
	series := bars(100, 120, 60, 90)
	labels := []types.Label{types.LabelBuy, types.LabelHold, types.LabelHold, types.LabelHold}

	res, err := Run(series, labels, DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Stats.MaxDrawdown-(-0.5)) > 1e-9 {
		t.Errorf("max drawdown = %v, want -0.5", res.Stats.MaxDrawdown)
	}
}

func TestSummaryMentionsKeyStats(t *testing.T) {
	series := bars(100, 110)
	res, err := Run(series, holds(2), DefaultStartCapital)
	if err != nil {
		t.Fatal(err)
	}
	text := res.Summary()
	for _, want := range []string{"Period", "Total return", "Annual return", "Annual volatility", "Sharpe ratio", "Max drawdown", "n/a"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
