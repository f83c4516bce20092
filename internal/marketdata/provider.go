package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stocksense/internal/types"
)

// ErrNoData is returned when a provider has no bars for the requested
// symbol and period.
var ErrNoData = errors.New("marketdata: no data available")

// Period is a lookback window expressed the way data vendors do, e.g.
// "5y", "6mo", "90d".
type Period string

// Standard lookback windows used by the recommendation pipeline.
const (
	Period5Y Period = "5y"
	Period2Y Period = "2y"
	Period1Y Period = "1y"
)

// Start resolves the period to its starting date relative to ref.
func (p Period) Start(ref time.Time) (time.Time, error) {
	s := strings.ToLower(string(p))
	switch {
	case strings.HasSuffix(s, "y"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "y"))
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("marketdata: invalid period %q", p)
		}
		return ref.AddDate(-n, 0, 0), nil
	case strings.HasSuffix(s, "mo"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "mo"))
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("marketdata: invalid period %q", p)
		}
		return ref.AddDate(0, -n, 0), nil
	case strings.HasSuffix(s, "d"):
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("marketdata: invalid period %q", p)
		}
		return ref.AddDate(0, 0, -n), nil
	}
	return time.Time{}, fmt.Errorf("marketdata: invalid period %q", p)
}

// Provider serves daily OHLCV history for a symbol.
type Provider interface {
	History(ctx context.Context, symbol string, period Period) ([]types.PriceBar, error)
}
