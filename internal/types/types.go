package types

import "time"

// PriceBar is one daily OHLCV bar. Series are ordered ascending by date
// with no duplicate dates.
type PriceBar struct {
	Date                           time.Time
	Open, High, Low, Close, Volume float64
}

// IndicatorRow is a PriceBar plus derived indicator columns. Columns that
// have not accumulated enough history hold math.NaN().
type IndicatorRow struct {
	PriceBar
	SMA50, SMA200 float64
	EMA50, EMA200 float64
	RSI           float64
	MACD          float64 // convergence/divergence histogram, not the raw line
	BBUpper       float64
	BBLower       float64
	ROC5, ROC10   float64
}

// SignalSet maps an indicator name to its categorical reading,
// e.g. "SMA" -> "Bullish", "RSI" -> "Oversold".
type SignalSet map[string]string

// NewsItem is one article returned by a news provider.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Label is a categorical trading signal attached to a bar.
type Label string

const (
	LabelBuy  Label = "BUY"
	LabelHold Label = "HOLD"
	LabelSell Label = "SELL"
	// LabelNone marks bars where no label can be derived (insufficient
	// volatility history or no future data). Such rows are excluded
	// from training.
	LabelNone Label = ""
)

// FeatureVector is one fully defined classifier input row. Order matches
// dataset.FeatureNames.
type FeatureVector []float64

// TradeRecord is one executed side of a simulated round trip.
type TradeRecord struct {
	Date  time.Time `json:"date"`
	Side  Label     `json:"side"`
	Price float64   `json:"price"`
}
