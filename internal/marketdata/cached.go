package marketdata

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"stocksense/internal/logger"
	"stocksense/internal/trace"
	"stocksense/internal/types"
)

// Cached wraps a Provider with an in-memory TTL cache so repeated
// lookups within one session do not hit the upstream API.
type Cached struct {
	next  Provider
	cache *gocache.Cache
}

var _ Provider = (*Cached)(nil)

// NewCached decorates next with a cache holding entries for ttl.
func NewCached(next Provider, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) History(ctx context.Context, symbol string, period Period) ([]types.PriceBar, error) {
	key := symbol + "|" + string(period)
	if v, ok := c.cache.Get(key); ok {
		logger.Debug(ctx, "Price history cache hit", "symbol", symbol, "period", string(period))
		return v.([]types.PriceBar), nil
	}

	ctx, span := trace.StartSpan(ctx, "marketdata.History")
	defer span.End()

	bars, err := c.next.History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, bars, gocache.DefaultExpiration)
	return bars, nil
}
