package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stocksense/internal/logger"
	"stocksense/internal/types"
)

// Scraper pulls headlines directly from financial news sites. It backs
// up the RSS provider when the feed endpoint is unavailable.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

var _ Provider = (*Scraper)(nil)

// Source defines one site to scrape.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // contains {query}
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors are the CSS selectors for pulling headline data.
type Selectors struct {
	Container string
	Title     string
	URL       string
}

// NewScraper creates a scraper over the default Indian financial news
// sites.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "MoneyControl",
			BaseURL:    "https://www.moneycontrol.com",
			SearchPath: "/news/tags/{query}.html",
			Selectors: Selectors{
				Container: "li.clearfix",
				Title:     "h2 a, h3 a",
				URL:       "h2 a, h3 a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "EconomicTimes",
			BaseURL:    "https://economictimes.indiatimes.com",
			SearchPath: "/topic/{query}",
			Selectors: Selectors{
				Container: "div.story-box",
				Title:     "a",
				URL:       "a",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "BusinessStandard",
			BaseURL:    "https://www.business-standard.com",
			SearchPath: "/search?q={query}",
			Selectors: Selectors{
				Container: "div.listing-txt",
				Title:     "a.Hdng",
				URL:       "a.Hdng",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Fetch scrapes every source and merges the headlines, splitting the
// limit evenly across sources.
func (s *Scraper) Fetch(ctx context.Context, query string, limit int) ([]types.NewsItem, error) {
	perSource := limit / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	var all []types.NewsItem
	for _, source := range s.sources {
		items, err := s.scrapeSource(ctx, source, query, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "query", query)
			continue
		}
		all = append(all, items...)

		time.Sleep(source.RateLimit)
	}

	logger.Info(ctx, "Scraping completed", "query", query, "items", len(all))
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, query string, limit int) ([]types.NewsItem, error) {
	var items []types.NewsItem

	c := colly.NewCollector(
		colly.AllowedDomains(hostname(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.Container, func(e *colly.HTMLElement) {
		if len(items) >= limit {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}
		link := e.ChildAttr(source.Selectors.URL, "href")
		if link == "" {
			return
		}
		if !strings.HasPrefix(link, "http") {
			link = source.BaseURL + link
		}

		items = append(items, types.NewsItem{
			Title:  title,
			URL:    link,
			Source: source.Name,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{query}", url.PathEscape(strings.ToLower(query)))
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("news: visit %s: %w", searchURL, err)
	}
	c.Wait()

	return items, nil
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
