package classifier

import (
	"errors"
	"math/rand"
	"sort"

	"stocksense/internal/types"
)

// ErrDegenerateLabels is returned when the training labels do not
// cover every class the pipeline can recommend.
var ErrDegenerateLabels = errors.New("classifier: degenerate label distribution")

// Config controls forest construction.
type Config struct {
	Trees        int     `yaml:"trees"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`
}

// DefaultConfig matches the recommendation pipeline settings.
func DefaultConfig() Config {
	return Config{Trees: 500, TestFraction: 0.2, Seed: 42}
}

// Forest is a bagged ensemble of decision trees with majority voting.
type Forest struct {
	trees   []*decisionTree
	classes []types.Label
	numFeat int
}

// Train fits a forest on the given samples. Each tree sees a bootstrap
// resample of the data.
func Train(cfg Config, x []types.FeatureVector, y []types.Label) (*Forest, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errors.New("classifier: empty or mismatched training data")
	}
	classes := distinctLabels(y)
	if len(classes) < 2 {
		return nil, ErrDegenerateLabels
	}

	classIndex := make(map[types.Label]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = classIndex[label]
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	f := &Forest{classes: classes, numFeat: len(x[0])}
	n := len(x)
	for i := 0; i < cfg.Trees; i++ {
		idx := make([]int, n)
		for j := range idx {
			idx[j] = rng.Intn(n)
		}
		f.trees = append(f.trees, growTree(x, encoded, idx, len(classes), rng))
	}
	return f, nil
}

// TrainBalanced downsamples every class to the minority count, splits
// the balanced pool into stratified train and test portions and fits
// the forest on the train portion. The split is returned so callers can
// score held-out accuracy. All three of BUY, HOLD and SELL must be
// present, otherwise the forest could never emit the missing class.
func TrainBalanced(cfg Config, x []types.FeatureVector, y []types.Label) (*Forest, *Split, error) {
	present := make(map[types.Label]bool, 3)
	for _, label := range y {
		present[label] = true
	}
	if !present[types.LabelBuy] || !present[types.LabelHold] || !present[types.LabelSell] {
		return nil, nil, ErrDegenerateLabels
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	bx, by := BalanceDownsample(x, y, rng)
	split := StratifiedSplit(bx, by, cfg.TestFraction, rng)

	f, err := Train(cfg, split.XTrain, split.YTrain)
	if err != nil {
		return nil, nil, err
	}
	return f, split, nil
}

// Predict returns the majority-vote label.
func (f *Forest) Predict(fv types.FeatureVector) types.Label {
	votes := f.votes(fv)
	best := 0
	for i, v := range votes {
		if v > votes[best] {
			best = i
		}
	}
	return f.classes[best]
}

// PredictProba returns the vote fraction per class.
func (f *Forest) PredictProba(fv types.FeatureVector) map[types.Label]float64 {
	votes := f.votes(fv)
	proba := make(map[types.Label]float64, len(f.classes))
	for i, c := range f.classes {
		proba[c] = float64(votes[i]) / float64(len(f.trees))
	}
	return proba
}

func (f *Forest) votes(fv types.FeatureVector) []int {
	votes := make([]int, len(f.classes))
	for _, t := range f.trees {
		votes[t.predict(fv)]++
	}
	return votes
}

// FeatureImportances averages the impurity decrease each feature
// contributed across the forest, normalized to sum to one.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, f.numFeat)
	for _, t := range f.trees {
		for i, imp := range t.importance {
			out[i] += imp
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

// Classes returns the label set the forest was trained on.
func (f *Forest) Classes() []types.Label {
	return f.classes
}

func distinctLabels(y []types.Label) []types.Label {
	seen := make(map[types.Label]bool)
	var out []types.Label
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
