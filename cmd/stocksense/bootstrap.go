package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"stocksense/internal/analysis"
	"stocksense/internal/logger"
	"stocksense/internal/marketdata"
	"stocksense/internal/news"
	"stocksense/internal/runlog"
	"stocksense/internal/sentiment"
	"stocksense/internal/store"
	"stocksense/internal/trace"
)

// bootstrap loads the environment and configuration and wires the
// providers into an analysis service. The returned shutdown function
// flushes the tracer.
func bootstrap(ctx context.Context, configPath string) (*analysis.Service, func(), error) {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return nil, nil, err
	}
	if err := trace.Init(); err != nil {
		logger.Warn(ctx, "Tracer initialization failed", "error", err)
	}

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	runlog.SetDir(cfg.RunLog.Dir)
	if err := runlog.CompressOlder(cfg.RunLog.RetentionDays); err != nil {
		logger.Warn(ctx, "Run log compression failed", "error", err)
	}

	ttl := time.Duration(cfg.CacheMinutes) * time.Minute
	prices := marketdata.NewCached(priceProvider(cfg), ttl)
	headlines := news.NewCached(newsProvider(cfg), ttl)

	svc := analysis.New(cfg, prices, headlines, sentiment.NewLexicon())
	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
		_ = logger.Shutdown(shutdownCtx)
	}
	return svc, shutdown, nil
}

func priceProvider(cfg *store.Config) marketdata.Provider {
	if cfg.DataSource == "KITE" {
		return marketdata.NewKite(marketdata.KiteParams{
			APIKey:      os.Getenv("KITE_API_KEY"),
			AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
			Exchange:    cfg.Exchange,
		})
	}
	return marketdata.NewStatic()
}

func newsProvider(cfg *store.Config) news.Provider {
	timeout := time.Duration(cfg.News.TimeoutSeconds) * time.Second
	if cfg.News.Source == "SCRAPER" {
		return news.NewScraper(timeout)
	}
	return news.NewFeed()
}
