package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"stocksense/internal/types"
)

const (
	tradingDaysPerYear  = 252
	calendarDaysPerYear = 365.25
)

// DefaultStartCapital is the normalized starting portfolio value.
const DefaultStartCapital = 1.0

// Stats are the headline numbers of one backtest run. Annualized
// figures use the calendar span between the first and last bar.
// MaxDrawdown is the minimum of (value - peak) / peak, so it is zero
// or negative.
type Stats struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	Years            float64   `json:"years"`
	StartCapital     float64   `json:"start_capital"`
	FinalValue       float64   `json:"final_value"`
	TotalReturn      float64   `json:"total_return"`
	AnnualReturn     float64   `json:"annual_return"`
	AnnualVolatility float64   `json:"annual_volatility"`
	BuyHoldReturn    float64   `json:"buy_hold_return"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	Trades           int       `json:"trades"`
	WinRate          float64   `json:"win_rate"`
	AvgTradeReturn   float64   `json:"avg_trade_return"`
	MedianTrade      float64   `json:"median_trade_return"`
}

// Result carries the full equity curve alongside the summary stats.
type Result struct {
	Values       []float64           `json:"values"`
	Trades       []types.TradeRecord `json:"trades"`
	TradeReturns []float64           `json:"trade_returns"`
	Stats        Stats               `json:"stats"`
}

// Run replays the label sequence over the price series with a long-only
// state machine: BUY enters a full position at the close, SELL exits at
// the close, everything else holds the current state. The position left
// open at the end is marked to the final close and its unrealized
// return counts toward the trade statistics.
func Run(bars []types.PriceBar, labels []types.Label, startCapital float64) (*Result, error) {
	if len(bars) == 0 {
		return nil, errors.New("backtest: no price data")
	}
	if len(bars) != len(labels) {
		return nil, fmt.Errorf("backtest: %d bars but %d labels", len(bars), len(labels))
	}
	if startCapital <= 0 {
		return nil, fmt.Errorf("backtest: start capital %v must be positive", startCapital)
	}

	res := &Result{Values: make([]float64, len(bars))}
	capital := startCapital
	shares := 0.0
	entryPrice := 0.0

	for i, bar := range bars {
		price := bar.Close
		switch {
		case labels[i] == types.LabelBuy && shares == 0:
			shares = capital / price
			capital = 0
			entryPrice = price
			res.Trades = append(res.Trades, types.TradeRecord{Date: bar.Date, Side: "BUY", Price: price})
		case labels[i] == types.LabelSell && shares > 0:
			capital = shares * price
			shares = 0
			res.Trades = append(res.Trades, types.TradeRecord{Date: bar.Date, Side: "SELL", Price: price})
			res.TradeReturns = append(res.TradeReturns, price/entryPrice-1)
		}
		res.Values[i] = capital + shares*price
	}

	// Mark the open position to the last close.
	if shares > 0 {
		res.TradeReturns = append(res.TradeReturns, bars[len(bars)-1].Close/entryPrice-1)
	}

	first, last := bars[0], bars[len(bars)-1]
	years := last.Date.Sub(first.Date).Hours() / 24 / calendarDaysPerYear
	final := res.Values[len(res.Values)-1]
	total := final/startCapital - 1
	vol := annualVolatility(res.Values)
	res.Stats = Stats{
		Start:            first.Date,
		End:              last.Date,
		Years:            years,
		StartCapital:     startCapital,
		FinalValue:       final,
		TotalReturn:      total,
		AnnualReturn:     annualize(1+total, years),
		AnnualVolatility: vol,
		BuyHoldReturn:    annualize(last.Close/first.Close, years),
		SharpeRatio:      sharpe(annualize(1+total, years), vol),
		MaxDrawdown:      maxDrawdown(res.Values),
		Trades:           len(res.TradeReturns),
		WinRate:          winRate(res.TradeReturns),
		AvgTradeReturn:   meanOf(res.TradeReturns),
		MedianTrade:      medianOf(res.TradeReturns),
	}
	return res, nil
}

// annualize converts a growth factor over a calendar span to a
// compound annual rate, growth^(1/years) - 1.
func annualize(growth, years float64) float64 {
	if years <= 0 || growth <= 0 {
		return math.NaN()
	}
	return math.Pow(growth, 1/years) - 1
}

// annualVolatility is the sample standard deviation of daily portfolio
// returns scaled by sqrt(252).
func annualVolatility(values []float64) float64 {
	returns := dailyReturns(values)
	if len(returns) < 2 {
		return math.NaN()
	}
	m := meanOf(returns)
	var ss float64
	for _, r := range returns {
		d := r - m
		ss += d * d
	}
	return math.Sqrt(ss/float64(len(returns)-1)) * math.Sqrt(tradingDaysPerYear)
}

// sharpe is the annualized return over the annualized volatility, with
// a zero risk-free rate. Zero volatility yields NaN.
func sharpe(annualReturn, annualVol float64) float64 {
	if annualVol == 0 {
		return math.NaN()
	}
	return annualReturn / annualVol
}

// maxDrawdown is the minimum of (value - peak) / peak over the equity
// curve, zero for a curve that never falls below its running maximum.
func maxDrawdown(values []float64) float64 {
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

func winRate(tradeReturns []float64) float64 {
	if len(tradeReturns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range tradeReturns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(tradeReturns))
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func medianOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// Summary renders the stats as a human-readable block.
func (r *Result) Summary() string {
	var b strings.Builder
	s := r.Stats
	fmt.Fprintf(&b, "Period:            %s to %s (%.2f years)\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"), s.Years)
	fmt.Fprintf(&b, "Start capital:     %.4f\n", s.StartCapital)
	fmt.Fprintf(&b, "Final value:       %.4f\n", s.FinalValue)
	fmt.Fprintf(&b, "Total return:      %.2f%%\n", s.TotalReturn*100)
	fmt.Fprintf(&b, "Annual return:     %s\n", percentOrNA(s.AnnualReturn))
	fmt.Fprintf(&b, "Annual volatility: %s\n", percentOrNA(s.AnnualVolatility))
	if math.IsNaN(s.SharpeRatio) {
		fmt.Fprintf(&b, "Sharpe ratio:      n/a\n")
	} else {
		fmt.Fprintf(&b, "Sharpe ratio:      %.2f\n", s.SharpeRatio)
	}
	fmt.Fprintf(&b, "Max drawdown:      %.2f%%\n", s.MaxDrawdown*100)
	fmt.Fprintf(&b, "Buy & hold:        %s annualized\n", percentOrNA(s.BuyHoldReturn))
	fmt.Fprintf(&b, "Trades:            %d\n", s.Trades)
	fmt.Fprintf(&b, "Win rate:          %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(&b, "Avg trade:         %.2f%%\n", s.AvgTradeReturn*100)
	fmt.Fprintf(&b, "Median trade:      %.2f%%\n", s.MedianTrade*100)
	return b.String()
}

func percentOrNA(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
