package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stocksense/internal/backtest"
	"stocksense/internal/classifier"
	"stocksense/internal/dataset"
	"stocksense/internal/forecast"
	"stocksense/internal/logger"
	"stocksense/internal/marketdata"
	"stocksense/internal/news"
	"stocksense/internal/runlog"
	"stocksense/internal/sentiment"
	"stocksense/internal/store"
	"stocksense/internal/ta"
	"stocksense/internal/types"
)

const (
	holdConfidence  = 50.0
	maxDetailLength = 50
)

// ErrNoSymbol is returned by callers that validate input before running
// the pipeline.
var ErrNoSymbol = errors.New("analysis: symbol required")

// Service ties the data providers and models into the recommendation
// and backtest pipelines.
type Service struct {
	cfg    *store.Config
	prices marketdata.Provider
	news   news.Provider
	clf    sentiment.Classifier
}

// New builds a service over the given providers. The news provider and
// sentiment classifier may be nil, in which case sentiment is neutral.
func New(cfg *store.Config, prices marketdata.Provider, newsProvider news.Provider, clf sentiment.Classifier) *Service {
	return &Service{cfg: cfg, prices: prices, news: newsProvider, clf: clf}
}

// artifacts holds everything one pipeline run derives from the raw
// bars, so a backtest can reuse a recommendation's work.
type artifacts struct {
	bars      []types.PriceBar
	period    marketdata.Period
	rows      []types.IndicatorRow
	items     []types.NewsItem
	sentiment float64
	labels    []types.Label
	features  []types.FeatureVector
	forest    *classifier.Forest
	split     *classifier.Split
	model     *forecast.Model
}

// Recommendation is the user-facing output of one pipeline run.
type Recommendation struct {
	Symbol        string             `json:"symbol"`
	Action        types.Label        `json:"action"`
	Confidence    float64            `json:"confidence"`
	Detail        string             `json:"detail"`
	Period        marketdata.Period  `json:"period,omitempty"`
	LastClose     float64            `json:"last_close,omitempty"`
	ForecastClose float64            `json:"forecast_close,omitempty"`
	Sentiment     float64            `json:"sentiment"`
	Signals       types.SignalSet    `json:"signals,omitempty"`
	NewsItems     []types.NewsItem   `json:"news_items,omitempty"`
	Importances   map[string]float64 `json:"importances,omitempty"`
	GeneratedAt   time.Time          `json:"generated_at"`

	art *artifacts
}

// Recommend runs the whole pipeline for one symbol. It never fails:
// any error along the way degrades to a HOLD with the cause in Detail.
func (s *Service) Recommend(ctx context.Context, symbol string) *Recommendation {
	timer := logger.StartOperation(ctx, "analysis.recommend", "symbol", symbol)
	rec := s.recommend(timer.GetContext(), symbol)
	timer.End("action", string(rec.Action), "confidence", rec.Confidence)

	logger.Recommendation(ctx, symbol, string(rec.Action), rec.Confidence, rec.Detail)
	if err := runlog.Append(runlog.RecommendationEntry{
		Symbol:        symbol,
		Action:        string(rec.Action),
		Confidence:    rec.Confidence,
		Detail:        rec.Detail,
		ForecastClose: rec.ForecastClose,
		Sentiment:     rec.Sentiment,
		Signals:       rec.Signals,
	}); err != nil {
		logger.Warn(ctx, "Failed to persist recommendation", "error", err)
	}
	return rec
}

func (s *Service) recommend(ctx context.Context, symbol string) *Recommendation {
	art, err := s.buildArtifacts(ctx, symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return hold(symbol, "No data available")
		}
		return hold(symbol, err.Error())
	}

	last := art.rows[len(art.rows)-1]
	signals, err := ta.Interpret(last)
	if err != nil {
		return hold(symbol, err.Error())
	}

	closes := make([]float64, len(art.bars))
	for i, bar := range art.bars {
		closes[i] = bar.Close
	}
	model, err := forecast.Train(ctx, s.cfg.Forecast, closes)
	if err != nil {
		return hold(symbol, err.Error())
	}
	predicted, err := model.Predict(closes)
	if err != nil {
		return hold(symbol, err.Error())
	}
	art.model = model

	current := art.features[len(art.features)-1]
	action := art.forest.Predict(current)
	confidence := 0.0
	for _, p := range art.forest.PredictProba(current) {
		if conf := p * 100; conf > confidence {
			confidence = conf
		}
	}

	importances := make(map[string]float64)
	values := art.forest.FeatureImportances()
	for i, name := range dataset.FeatureNames(true) {
		importances[name] = values[i]
	}

	return &Recommendation{
		Symbol:        symbol,
		Action:        action,
		Confidence:    confidence,
		Detail:        truncate(fmt.Sprintf("forecast %.2f vs close %.2f", predicted, last.Close)),
		Period:        art.period,
		LastClose:     last.Close,
		ForecastClose: predicted,
		Sentiment:     art.sentiment,
		Signals:       signals,
		NewsItems:     art.items,
		Importances:   importances,
		GeneratedAt:   time.Now().UTC(),
		art:           art,
	}
}

// buildArtifacts runs the shared front half of both pipelines: history
// fetch with period fallback, indicators, sentiment, labels, features
// and the trained classifier.
func (s *Service) buildArtifacts(ctx context.Context, symbol string) (*artifacts, error) {
	bars, period, err := s.fetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}

	rows, err := ta.Compute(bars)
	if err != nil {
		return nil, err
	}

	items, score := s.sentimentScore(ctx, symbol)

	labelCfg := dataset.LabelConfig{Horizon: s.cfg.Labels.Horizon, VolFactor: s.cfg.Labels.VolFactor}
	labels := dataset.Labels(rows, labelCfg)
	features := dataset.Features(rows, score, true)

	var trainX []types.FeatureVector
	var trainY []types.Label
	for i, label := range labels {
		if label != types.LabelNone {
			trainX = append(trainX, features[i])
			trainY = append(trainY, label)
		}
	}

	forest, split, err := classifier.TrainBalanced(s.cfg.Classifier, trainX, trainY)
	if err != nil {
		return nil, err
	}

	return &artifacts{
		bars:      bars,
		period:    period,
		rows:      rows,
		items:     items,
		sentiment: score,
		labels:    labels,
		features:  features,
		forest:    forest,
		split:     split,
	}, nil
}

// BacktestResult pairs the simulated equity curve with the held-out
// classification quality.
type BacktestResult struct {
	Symbol string            `json:"symbol"`
	Period marketdata.Period `json:"period"`
	Run    *backtest.Result  `json:"run"`
	Report classifier.Report `json:"report"`
}

// Backtest trains the classifier on the symbol's history, replays its
// predictions over the full series and scores the held-out split.
// Unlike Recommend it propagates errors.
func (s *Service) Backtest(ctx context.Context, symbol string) (*BacktestResult, error) {
	art, err := s.buildArtifacts(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return s.backtestFrom(ctx, symbol, art)
}

// BacktestRecommendation backtests using the models already trained for
// a recommendation, skipping the fetch and training work. A degraded
// recommendation carries no artifacts and falls back to a fresh run.
func (s *Service) BacktestRecommendation(ctx context.Context, rec *Recommendation) (*BacktestResult, error) {
	if rec == nil || rec.Symbol == "" {
		return nil, ErrNoSymbol
	}
	if rec.art == nil {
		return s.Backtest(ctx, rec.Symbol)
	}
	return s.backtestFrom(ctx, rec.Symbol, rec.art)
}

func (s *Service) backtestFrom(ctx context.Context, symbol string, art *artifacts) (*BacktestResult, error) {
	heldOut := make([]types.Label, len(art.split.XTest))
	for i, fv := range art.split.XTest {
		heldOut[i] = art.forest.Predict(fv)
	}
	report := classifier.Evaluate(art.split.YTest, heldOut)

	predicted := make([]types.Label, len(art.bars))
	for i := range art.bars {
		predicted[i] = art.forest.Predict(art.features[i])
	}
	run, err := backtest.Run(art.bars, predicted, backtest.DefaultStartCapital)
	if err != nil {
		return nil, err
	}

	logger.Backtest(ctx, symbol, run.Stats.TotalReturn, run.Stats.SharpeRatio, run.Stats.Trades,
		"accuracy", report.Accuracy)
	if err := runlog.AppendBacktest(runlog.BacktestEntry{
		Symbol:      symbol,
		TotalReturn: run.Stats.TotalReturn,
		BuyHold:     run.Stats.BuyHoldReturn,
		Sharpe:      run.Stats.SharpeRatio,
		MaxDrawdown: run.Stats.MaxDrawdown,
		Trades:      run.Stats.Trades,
		Accuracy:    report.Accuracy,
	}); err != nil {
		logger.Warn(ctx, "Failed to persist backtest", "error", err)
	}

	return &BacktestResult{Symbol: symbol, Period: art.period, Run: run, Report: report}, nil
}

// fetchHistory tries each configured period in order until a provider
// call yields data.
func (s *Service) fetchHistory(ctx context.Context, symbol string) ([]types.PriceBar, marketdata.Period, error) {
	var lastErr error
	for _, p := range s.cfg.Periods {
		period := marketdata.Period(p)
		bars, err := s.prices.History(ctx, symbol, period)
		if err == nil && len(bars) > 0 {
			return bars, period, nil
		}
		if err != nil {
			lastErr = err
			logger.Warn(ctx, "Period fetch failed, trying shorter window",
				"symbol", symbol, "period", p, "error", err)
		}
	}
	if lastErr == nil {
		lastErr = marketdata.ErrNoData
	}
	return nil, "", fmt.Errorf("analysis: history for %s: %w", symbol, lastErr)
}

// sentimentScore fetches headlines and aggregates their sentiment. Any
// failure degrades to a neutral score.
func (s *Service) sentimentScore(ctx context.Context, symbol string) ([]types.NewsItem, float64) {
	if s.news == nil || s.clf == nil {
		return nil, 0
	}
	items, err := s.news.Fetch(ctx, BuildNewsQuery(symbol), s.cfg.News.MaxItems)
	if err != nil {
		logger.Warn(ctx, "News fetch failed, using neutral sentiment", "symbol", symbol, "error", err)
		return nil, 0
	}
	return items, sentiment.Score(ctx, items, s.clf)
}

func hold(symbol, detail string) *Recommendation {
	return &Recommendation{
		Symbol:      symbol,
		Action:      types.LabelHold,
		Confidence:  holdConfidence,
		Detail:      truncate(detail),
		GeneratedAt: time.Now().UTC(),
	}
}

func truncate(detail string) string {
	runes := []rune(detail)
	if len(runes) > maxDetailLength {
		return string(runes[:maxDetailLength])
	}
	return detail
}
