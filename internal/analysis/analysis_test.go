package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"stocksense/internal/classifier"
	"stocksense/internal/forecast"
	"stocksense/internal/marketdata"
	"stocksense/internal/sentiment"
	"stocksense/internal/store"
	"stocksense/internal/types"
)

type failingPrices struct{}

func (failingPrices) History(context.Context, string, marketdata.Period) ([]types.PriceBar, error) {
	return nil, marketdata.ErrNoData
}

type stubNews struct {
	items []types.NewsItem
	err   error
}

func (s *stubNews) Fetch(context.Context, string, int) ([]types.NewsItem, error) {
	return s.items, s.err
}

func testService(t *testing.T, prices marketdata.Provider, newsProvider *stubNews) *Service {
	t.Helper()
	t.Setenv("STOCKSENSE_LOG_DIR", t.TempDir())

	cfg := &store.Config{
		DataSource: "STATIC",
		Periods:    []string{"2y", "1y"},
	}
	cfg.Labels.Horizon = 5
	cfg.Labels.VolFactor = 0.5
	cfg.News.MaxItems = 10
	cfg.Forecast = forecast.Config{
		Lookback:     10,
		HiddenSize:   4,
		Epochs:       2,
		BatchSize:    16,
		LearningRate: 0.01,
		Seed:         1,
	}
	cfg.Classifier = classifier.Config{Trees: 10, TestFraction: 0.2, Seed: 1}

	if newsProvider == nil {
		return New(cfg, prices, nil, nil)
	}
	return New(cfg, prices, newsProvider, sentiment.NewLexicon())
}

func TestRecommendNoData(t *testing.T) {
	svc := testService(t, failingPrices{}, nil)

	rec := svc.Recommend(context.Background(), "RELIANCE")
	if rec.Action != types.LabelHold {
		t.Errorf("action = %q, want HOLD", rec.Action)
	}
	if rec.Confidence != 50.0 {
		t.Errorf("confidence = %v, want 50.0", rec.Confidence)
	}
	if rec.Detail != "No data available" {
		t.Errorf("detail = %q", rec.Detail)
	}
}

func TestRecommendEndToEnd(t *testing.T) {
	newsProvider := &stubNews{items: []types.NewsItem{
		{Title: "Shares surge on strong profit growth"},
		{Title: "Analysts see further gains ahead"},
	}}
	svc := testService(t, marketdata.NewStatic(), newsProvider)

	rec := svc.Recommend(context.Background(), "RELIANCE")
	if rec.Action != types.LabelBuy && rec.Action != types.LabelHold && rec.Action != types.LabelSell {
		t.Fatalf("action = %q", rec.Action)
	}
	if rec.Confidence < 0 || rec.Confidence > 100 {
		t.Errorf("confidence = %v out of [0,100]", rec.Confidence)
	}
	if len(rec.Detail) > 50 {
		t.Errorf("detail %q longer than 50 chars", rec.Detail)
	}
	if rec.LastClose <= 0 || rec.ForecastClose == 0 {
		t.Errorf("prices not populated: last=%v forecast=%v", rec.LastClose, rec.ForecastClose)
	}
	if rec.Sentiment <= 0 {
		t.Errorf("sentiment = %v, want positive for bullish headlines", rec.Sentiment)
	}
	if len(rec.Signals) == 0 {
		t.Error("signals missing")
	}
	if len(rec.Importances) == 0 {
		t.Error("importances missing")
	}

	var total float64
	for _, v := range rec.Importances {
		total += v
	}
	if total < 0.99 || total > 1.01 {
		t.Errorf("importances sum = %v, want 1", total)
	}
}

func TestRecommendDegradesOnFailedNews(t *testing.T) {
	svc := testService(t, marketdata.NewStatic(), &stubNews{err: errors.New("feed down")})

	rec := svc.Recommend(context.Background(), "TCS")
	if rec.Sentiment != 0 {
		t.Errorf("sentiment = %v, want 0 when news fails", rec.Sentiment)
	}
	// The pipeline itself still completes.
	if rec.Detail == "No data available" {
		t.Errorf("news failure degraded whole pipeline: %q", rec.Detail)
	}
}

func TestRecommendNeverPanicsOnDegenerateSeries(t *testing.T) {
	svc := testService(t, constantPrices{}, nil)

	rec := svc.Recommend(context.Background(), "FLAT")
	if rec.Action != types.LabelHold || rec.Confidence != 50.0 {
		t.Errorf("degenerate series gave %q/%v, want HOLD/50", rec.Action, rec.Confidence)
	}
	if rec.Detail == "" || len(rec.Detail) > 50 {
		t.Errorf("detail = %q", rec.Detail)
	}
}

type constantPrices struct{}

func (constantPrices) History(ctx context.Context, symbol string, period marketdata.Period) ([]types.PriceBar, error) {
	bars, err := marketdata.NewStatic().History(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	for i := range bars {
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = 100, 100, 100, 100
	}
	return bars, nil
}

func TestBacktestPropagatesNoData(t *testing.T) {
	svc := testService(t, failingPrices{}, nil)

	if _, err := svc.Backtest(context.Background(), "RELIANCE"); !errors.Is(err, marketdata.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestBacktestEndToEnd(t *testing.T) {
	svc := testService(t, marketdata.NewStatic(), nil)

	result, err := svc.Backtest(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatal(err)
	}
	if result.Run == nil || len(result.Run.Values) == 0 {
		t.Fatal("equity curve missing")
	}
	if result.Report.Accuracy < 0 || result.Report.Accuracy > 1 {
		t.Errorf("accuracy = %v", result.Report.Accuracy)
	}
	if len(result.Report.PerClass) == 0 {
		t.Error("per-class metrics missing")
	}
	if result.Run.Summary() == "" {
		t.Error("summary empty")
	}
}

func TestBacktestRecommendationReusesModels(t *testing.T) {
	svc := testService(t, marketdata.NewStatic(), nil)

	rec := svc.Recommend(context.Background(), "RELIANCE")
	if rec.art == nil {
		t.Fatal("successful recommendation carries no artifacts")
	}

	result, err := svc.BacktestRecommendation(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if result.Period != rec.Period {
		t.Errorf("period = %q, want %q", result.Period, rec.Period)
	}
	if len(result.Run.Values) == 0 {
		t.Fatal("equity curve missing")
	}

	// A degraded recommendation has no artifacts and falls back to a
	// fresh run, propagating its errors.
	held := testService(t, constantPrices{}, nil).Recommend(context.Background(), "FLAT")
	svcFail := testService(t, failingPrices{}, nil)
	if _, err := svcFail.BacktestRecommendation(context.Background(), held); !errors.Is(err, marketdata.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if _, err := svc.BacktestRecommendation(context.Background(), nil); !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("nil recommendation err = %v, want ErrNoSymbol", err)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("₹", maxDetailLength+10)
	got := truncate(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxDetailLength {
		t.Errorf("rune count = %d, want %d", n, maxDetailLength)
	}
	if short := "plain ascii"; truncate(short) != short {
		t.Errorf("short detail modified: %q", truncate(short))
	}
}

func TestBuildNewsQuery(t *testing.T) {
	if got := BuildNewsQuery("RELIANCE"); got != `"Reliance Industries" OR "RELIANCE"` {
		t.Errorf("query = %s", got)
	}
	if got := BuildNewsQuery("UNKNOWN"); got != `"UNKNOWN" stock` {
		t.Errorf("fallback query = %s", got)
	}
}
