package news

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"stocksense/internal/logger"
	"stocksense/internal/trace"
	"stocksense/internal/types"
)

// Cached wraps a Provider with an in-memory TTL cache keyed on query
// and limit.
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

func (c *Cached) Fetch(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	key := fmt.Sprintf("%s|%d", query, limit)
	if v, ok := c.cache.Get(key); ok {
		logger.Debug(ctx, "News cache hit", "query", query)
		return v.([]types.NewsItem), nil
	}

	ctx, span := trace.StartSpan(ctx, "news.Fetch")
	defer span.End()

	items, err := c.next.Fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, items, gocache.DefaultExpiration)
	return items, nil
}
