package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"stocksense/internal/logger"
	"stocksense/internal/types"
)

const googleNewsRSS = "https://news.google.com/rss/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en"

// Feed pulls headlines from the Google News RSS search endpoint.
type Feed struct {
	parser *gofeed.Parser
}

var _ Provider = (*Feed)(nil)

// NewFeed builds the RSS provider.
func NewFeed() *Feed {
	return &Feed{parser: gofeed.NewParser()}
}

// Fetch returns up to limit headlines matching the query, newest first.
func (f *Feed) Fetch(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	feedURL := fmt.Sprintf(googleNewsRSS, url.QueryEscape(query))

	timer := logger.StartOperation(ctx, "news.feed.fetch", "query", query)
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		timer.EndWithError(err)
		return nil, fmt.Errorf("news: fetch feed: %w", err)
	}
	timer.End("items", len(feed.Items))

	items := make([]types.NewsItem, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		items = append(items, itemToNews(entry))
	}
	return items, nil
}

// itemToNews converts an RSS entry. Google News puts the publisher name
// and the article link inside the description HTML, so that is parsed
// when the plain fields are missing.
func itemToNews(entry *gofeed.Item) types.NewsItem {
	item := types.NewsItem{
		Title: strings.TrimSpace(entry.Title),
		URL:   entry.Link,
	}
	if entry.PublishedParsed != nil {
		item.PublishedAt = entry.PublishedParsed.UTC()
	} else {
		item.PublishedAt = time.Time{}
	}

	source, link := parseDescription(entry.Description)
	item.Source = source
	if item.URL == "" {
		item.URL = link
	}

	// Google News suffixes titles with " - Publisher".
	if item.Source != "" {
		item.Title = strings.TrimSuffix(item.Title, " - "+item.Source)
	}
	return item
}

// parseDescription extracts the publisher name and article link from
// the description HTML fragment.
func parseDescription(description string) (source, link string) {
	if description == "" {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return "", ""
	}
	source = strings.TrimSpace(doc.Find("font").First().Text())
	link, _ = doc.Find("a").First().Attr("href")
	return source, link
}
