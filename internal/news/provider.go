package news

import (
	"context"

	"stocksense/internal/types"
)

// Provider fetches recent headlines matching a search query.
type Provider interface {
	Fetch(ctx context.Context, query string, limit int) ([]types.NewsItem, error)
}
