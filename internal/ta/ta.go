package ta

import (
	"errors"
	"math"

	"stocksense/internal/types"
)

// Window lengths for the derived columns. Rows that have not accumulated
// a full window hold math.NaN(), except the simple moving averages which
// fall back to whatever history is available.
const (
	smaFastWindow = 50
	smaSlowWindow = 200
	emaFastSpan   = 50
	emaSlowSpan   = 200
	rsiPeriod     = 14
	macdFastSpan  = 12
	macdSlowSpan  = 26
	macdSigSpan   = 9
	bbWindow      = 20
	bbStdDev      = 2.0
	rocFast       = 5
	rocSlow       = 10
)

// macdWarmup is the number of leading bars on which the histogram is
// undefined: the slow EMA plus the signal EMA each need a full window.
const macdWarmup = macdSlowSpan + macdSigSpan - 2

var ErrEmptySeries = errors.New("ta: empty price series")

// Compute derives the full indicator column set over a price series.
// The result has the same length and date order as the input. Pure
// function: identical input yields identical output.
func Compute(bars []types.PriceBar) ([]types.IndicatorRow, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma50 := rollingMeanMin1(closes, smaFastWindow)
	sma200 := rollingMeanMin1(closes, smaSlowWindow)
	ema50 := ema(closes, emaFastSpan)
	ema200 := ema(closes, emaSlowSpan)
	rsi := rsiSeries(closes, rsiPeriod)
	macd := macdHistogram(closes)
	bbUp, bbLow := bollinger(closes, bbWindow, bbStdDev)
	roc5 := roc(closes, rocFast)
	roc10 := roc(closes, rocSlow)

	rows := make([]types.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = types.IndicatorRow{
			PriceBar: b,
			SMA50:    sma50[i],
			SMA200:   sma200[i],
			EMA50:    ema50[i],
			EMA200:   ema200[i],
			RSI:      rsi[i],
			MACD:     macd[i],
			BBUpper:  bbUp[i],
			BBLower:  bbLow[i],
			ROC5:     roc5[i],
			ROC10:    roc10[i],
		}
	}
	return rows, nil
}

// rollingMeanMin1 averages over the trailing window, shrinking to the
// available history on the early bars so the column is defined from bar 0.
func rollingMeanMin1(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	for i, x := range xs {
		sum += x
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= xs[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// ema computes an exponential moving average with smoothing 2/(span+1),
// seeded with the first value.
func ema(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsiSeries computes the Relative Strength Index with gains and losses
// exponentially smoothed at decay 1/period. Undefined for the first
// `period` bars and whenever the smoothed loss is exactly zero; a zero
// loss never reaches the division.
func rsiSeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	out[0] = math.NaN()
	if len(closes) == 1 {
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		if i < period || avgLoss == 0 {
			out[i] = math.NaN()
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// macdHistogram returns EMA(12)-EMA(26) minus its own 9-period EMA.
func macdHistogram(closes []float64) []float64 {
	fast := ema(closes, macdFastSpan)
	slow := ema(closes, macdSlowSpan)
	line := make([]float64, len(closes))
	for i := range line {
		line[i] = fast[i] - slow[i]
	}
	signal := ema(line, macdSigSpan)
	out := make([]float64, len(closes))
	for i := range out {
		if i < macdWarmup {
			out[i] = math.NaN()
			continue
		}
		out[i] = line[i] - signal[i]
	}
	return out
}

// bollinger returns the upper and lower bands: 20-period SMA plus/minus
// k sample standard deviations. Both bands are undefined for the first
// window-1 bars.
func bollinger(closes []float64, window int, k float64) (upper, lower []float64) {
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		if i+1 < window {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		seg := closes[i+1-window : i+1]
		m := mean(seg)
		sd := sampleStdDev(seg, m)
		upper[i] = m + k*sd
		lower[i] = m - k*sd
	}
	return upper, lower
}

// roc is the fractional change of close over n bars, undefined for the
// first n bars.
func roc(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i < n || closes[i-n] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = closes[i]/closes[i-n] - 1.0
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	s := 0.0
	for _, x := range xs {
		d := x - m
		s += d * d
	}
	return math.Sqrt(s / float64(len(xs)-1))
}
