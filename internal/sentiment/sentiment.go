// Package sentiment reduces a batch of news headlines to one scalar
// score in [-1, 1]. The text classifier is an auxiliary collaborator:
// when it is missing or failing the score degrades to neutral instead
// of surfacing an error.
package sentiment

import (
	"context"

	"stocksense/internal/logger"
	"stocksense/internal/types"
)

// Polarity of a classified text.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

// Classifier scores a short text. Confidence is in [0, 1].
type Classifier interface {
	Classify(ctx context.Context, text string) (Polarity, float64, error)
}

// Score averages signed per-title scores: +confidence for positive,
// -confidence for negative, 0 otherwise. Empty input or a nil
// classifier yields 0.0, and any per-item failure contributes 0.0 for
// that item.
func Score(ctx context.Context, items []types.NewsItem, clf Classifier) float64 {
	if len(items) == 0 || clf == nil {
		return 0.0
	}

	sum := 0.0
	for _, item := range items {
		polarity, confidence, err := clf.Classify(ctx, item.Title)
		if err != nil {
			logger.Warn(ctx, "Sentiment classification failed, counting item as neutral",
				"title", item.Title, "error", err)
			continue
		}
		switch polarity {
		case Positive:
			sum += confidence
		case Negative:
			sum -= confidence
		}
	}
	return sum / float64(len(items))
}
