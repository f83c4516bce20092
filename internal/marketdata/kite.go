package marketdata

import (
	"context"
	"fmt"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"stocksense/internal/logger"
	"stocksense/internal/types"
)

// KiteParams configures the Kite Connect data provider.
type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

// Kite fetches daily candles from the Zerodha Kite Connect historical
// data API.
type Kite struct {
	p      KiteParams
	kc     *kiteconnect.Client
	mapper *instrumentMapper
}

var _ Provider = (*Kite)(nil)

// NewKite builds a provider with an authenticated Kite Connect client.
func NewKite(p KiteParams) *Kite {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Kite{p: p, kc: kc, mapper: newInstrumentMapper()}
}

// History fetches daily bars for the symbol over the period.
func (k *Kite) History(ctx context.Context, symbol string, period Period) ([]types.PriceBar, error) {
	to := time.Now()
	from, err := period.Start(to)
	if err != nil {
		return nil, err
	}

	token, err := k.resolveToken(ctx, symbol)
	if err != nil {
		return nil, err
	}

	timer := logger.StartOperation(ctx, "marketdata.kite.history",
		"symbol", symbol, "period", string(period))
	data, err := k.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("marketdata: historical data for %s: %w", symbol, err)
	}
	timer.End("bars", len(data))

	if len(data) == 0 {
		return nil, fmt.Errorf("marketdata: %s over %s: %w", symbol, period, ErrNoData)
	}

	bars := make([]types.PriceBar, len(data))
	for i, d := range data {
		bars[i] = types.PriceBar{
			Date:   d.Date.Time,
			Open:   d.Open,
			High:   d.High,
			Low:    d.Low,
			Close:  d.Close,
			Volume: float64(d.Volume),
		}
	}
	return bars, nil
}

// resolveToken maps a trading symbol to its instrument token, loading
// the exchange instrument dump on first use.
func (k *Kite) resolveToken(ctx context.Context, symbol string) (int, error) {
	if token, ok := k.mapper.getToken(symbol); ok {
		return token, nil
	}
	if !k.mapper.isLoaded() {
		instruments, err := k.kc.GetInstrumentsByExchange(k.p.Exchange)
		if err != nil {
			return 0, fmt.Errorf("marketdata: instrument dump for %s: %w", k.p.Exchange, err)
		}
		for _, inst := range instruments {
			k.mapper.addMapping(inst.Tradingsymbol, inst.InstrumentToken)
		}
		k.mapper.markLoaded()
		logger.Debug(ctx, "Instrument dump loaded", "exchange", k.p.Exchange, "count", len(instruments))
	}
	token, ok := k.mapper.getToken(symbol)
	if !ok {
		return 0, fmt.Errorf("marketdata: unknown symbol %q on %s", symbol, k.p.Exchange)
	}
	return token, nil
}
