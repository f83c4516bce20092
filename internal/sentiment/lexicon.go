package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// Lexicon is a word-list polarity classifier for financial headlines.
// It is the default local stand-in for a remote model-backed classifier
// and satisfies the same Classifier contract.
type Lexicon struct {
	positive map[string]bool
	negative map[string]bool
}

func NewLexicon() *Lexicon {
	return &Lexicon{
		positive: wordSet(
			"gain", "gains", "surge", "surges", "rally", "rallies", "record",
			"beat", "beats", "upgrade", "upgraded", "strong", "growth", "profit",
			"profits", "jump", "jumps", "rise", "rises", "high", "outperform",
			"bullish", "buy", "expansion", "dividend", "winner", "soar", "soars",
			"recovery", "boost", "boosts", "positive", "momentum",
		),
		negative: wordSet(
			"loss", "losses", "fall", "falls", "drop", "drops", "decline",
			"declines", "downgrade", "downgraded", "weak", "miss", "misses",
			"plunge", "plunges", "slump", "slumps", "low", "underperform",
			"bearish", "sell", "fraud", "probe", "penalty", "lawsuit", "crash",
			"crashes", "negative", "cut", "cuts", "warning", "default", "debt",
		),
	}
}

// Classify tokenizes the text and scores it by the balance of positive
// and negative lexicon hits. Confidence is the hit margin over the hit
// total, so an all-positive headline scores 1.0 and a balanced one 0.
func (l *Lexicon) Classify(_ context.Context, text string) (Polarity, float64, error) {
	pos, neg := 0, 0
	for _, word := range tokenize(text) {
		if l.positive[word] {
			pos++
		}
		if l.negative[word] {
			neg++
		}
	}

	total := pos + neg
	if total == 0 || pos == neg {
		return Neutral, 0, nil
	}
	margin := float64(pos-neg) / float64(total)
	if margin > 0 {
		return Positive, margin, nil
	}
	return Negative, -margin, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
