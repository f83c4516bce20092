package marketdata

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"stocksense/internal/types"
)

// Static generates a deterministic synthetic daily series per symbol.
// It stands in for the live API in tests and dry runs, the same symbol
// and period always produce the same bars.
type Static struct{}

var _ Provider = (*Static)(nil)

// NewStatic builds the synthetic provider.
func NewStatic() *Static { return &Static{} }

// History produces a seeded random walk with mild upward drift.
func (s *Static) History(ctx context.Context, symbol string, period Period) ([]types.PriceBar, error) {
	now := time.Date(time.Now().Year(), time.Now().Month(), time.Now().Day(), 0, 0, 0, 0, time.UTC)
	from, err := period.Start(now)
	if err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	price := 500 + rng.Float64()*1500
	var bars []types.PriceBar
	for day := from; !day.After(now); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		change := price * (rng.NormFloat64()*0.015 + 0.0003)
		open := price
		price += change
		high := open
		if price > high {
			high = price
		}
		high += rng.Float64() * price * 0.005
		low := open
		if price < low {
			low = price
		}
		low -= rng.Float64() * price * 0.005

		bars = append(bars, types.PriceBar{
			Date:   day,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 10000 + rng.Float64()*90000,
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}
