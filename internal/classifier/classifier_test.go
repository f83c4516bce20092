package classifier

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"stocksense/internal/types"
)

// separableSamples builds two clearly distinct clusters so a forest
// should classify them near perfectly.
func separableSamples(n int) ([]types.FeatureVector, []types.Label) {
	rng := rand.New(rand.NewSource(3))
	var x []types.FeatureVector
	var y []types.Label
	for i := 0; i < n; i++ {
		x = append(x, types.FeatureVector{rng.Float64() * 0.4, rng.Float64()})
		y = append(y, types.LabelSell)
		x = append(x, types.FeatureVector{0.6 + rng.Float64()*0.4, rng.Float64()})
		y = append(y, types.LabelBuy)
	}
	return x, y
}

// threeClassSamples adds a middle HOLD cluster so balanced training
// sees every class the pipeline can recommend.
func threeClassSamples(n int) ([]types.FeatureVector, []types.Label) {
	rng := rand.New(rand.NewSource(7))
	var x []types.FeatureVector
	var y []types.Label
	for i := 0; i < n; i++ {
		x = append(x, types.FeatureVector{rng.Float64() * 0.25, rng.Float64()})
		y = append(y, types.LabelSell)
		x = append(x, types.FeatureVector{0.4 + rng.Float64()*0.2, rng.Float64()})
		y = append(y, types.LabelHold)
		x = append(x, types.FeatureVector{0.75 + rng.Float64()*0.25, rng.Float64()})
		y = append(y, types.LabelBuy)
	}
	return x, y
}

func testConfig() Config {
	return Config{Trees: 25, TestFraction: 0.2, Seed: 11}
}

func TestTrainDegenerateLabels(t *testing.T) {
	x := []types.FeatureVector{{1}, {2}, {3}}
	y := []types.Label{types.LabelHold, types.LabelHold, types.LabelHold}
	if _, err := Train(testConfig(), x, y); !errors.Is(err, ErrDegenerateLabels) {
		t.Fatalf("err = %v, want ErrDegenerateLabels", err)
	}
	if _, _, err := TrainBalanced(testConfig(), x, y); !errors.Is(err, ErrDegenerateLabels) {
		t.Fatalf("balanced err = %v, want ErrDegenerateLabels", err)
	}
}

func TestTrainBalancedRequiresAllClasses(t *testing.T) {
	// Plenty of BUY and HOLD but not a single SELL. A forest trained on
	// this could never recommend the missing class.
	var x []types.FeatureVector
	var y []types.Label
	for i := 0; i < 50; i++ {
		x = append(x, types.FeatureVector{float64(i)}, types.FeatureVector{float64(i) + 100})
		y = append(y, types.LabelBuy, types.LabelHold)
	}
	if _, _, err := TrainBalanced(testConfig(), x, y); !errors.Is(err, ErrDegenerateLabels) {
		t.Fatalf("err = %v, want ErrDegenerateLabels for missing SELL class", err)
	}
}

func TestForestSeparatesClusters(t *testing.T) {
	x, y := separableSamples(40)
	f, err := Train(testConfig(), x, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	if got := f.Predict(types.FeatureVector{0.1, 0.5}); got != types.LabelSell {
		t.Errorf("low cluster predicted %q, want SELL", got)
	}
	if got := f.Predict(types.FeatureVector{0.9, 0.5}); got != types.LabelBuy {
		t.Errorf("high cluster predicted %q, want BUY", got)
	}
}

func TestPredictProbaSumsToOne(t *testing.T) {
	x, y := separableSamples(30)
	f, err := Train(testConfig(), x, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	proba := f.PredictProba(types.FeatureVector{0.5, 0.5})
	var sum float64
	for _, p := range proba {
		if p < 0 || p > 1 {
			t.Errorf("probability %v out of [0,1]", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
}

func TestBalanceDownsample(t *testing.T) {
	var x []types.FeatureVector
	var y []types.Label
	for i := 0; i < 100; i++ {
		x = append(x, types.FeatureVector{float64(i)})
		y = append(y, types.LabelHold)
	}
	x = append(x, types.FeatureVector{200}, types.FeatureVector{201})
	y = append(y, types.LabelBuy, types.LabelSell)

	rng := rand.New(rand.NewSource(5))
	bx, by := BalanceDownsample(x, y, rng)

	if len(bx) != 3 || len(by) != 3 {
		t.Fatalf("balanced size = %d, want 3 (one per class)", len(bx))
	}
	counts := map[types.Label]int{}
	for _, label := range by {
		counts[label]++
	}
	for _, label := range []types.Label{types.LabelBuy, types.LabelHold, types.LabelSell} {
		if counts[label] != 1 {
			t.Errorf("class %q count = %d, want 1", label, counts[label])
		}
	}
}

func TestStratifiedSplitKeepsClassesInTrain(t *testing.T) {
	x, y := separableSamples(25)
	rng := rand.New(rand.NewSource(9))
	split := StratifiedSplit(x, y, 0.2, rng)

	if len(split.XTrain)+len(split.XTest) != len(x) {
		t.Fatalf("split loses samples: %d + %d != %d", len(split.XTrain), len(split.XTest), len(x))
	}
	trainClasses := distinctLabels(split.YTrain)
	if len(trainClasses) != 2 {
		t.Errorf("train classes = %v, want both", trainClasses)
	}
	// 20% of 25 per class.
	counts := map[types.Label]int{}
	for _, label := range split.YTest {
		counts[label]++
	}
	for label, c := range counts {
		if c != 5 {
			t.Errorf("test count for %q = %d, want 5", label, c)
		}
	}
}

func TestTrainBalancedDeterministic(t *testing.T) {
	x, y := threeClassSamples(30)
	sample := types.FeatureVector{0.3, 0.7}

	f1, _, err := TrainBalanced(testConfig(), x, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	f2, _, err := TrainBalanced(testConfig(), x, y)
	if err != nil {
		t.Fatalf("retrain: %v", err)
	}
	p1 := f1.PredictProba(sample)
	p2 := f2.PredictProba(sample)
	for label, p := range p1 {
		if p2[label] != p {
			t.Errorf("class %q proba differs across identical runs: %v vs %v", label, p, p2[label])
		}
	}
}

func TestFeatureImportancesNormalized(t *testing.T) {
	x, y := separableSamples(30)
	f, err := Train(testConfig(), x, y)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	imps := f.FeatureImportances()
	if len(imps) != 2 {
		t.Fatalf("importances length = %d, want 2", len(imps))
	}
	var sum float64
	for _, v := range imps {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances sum = %v, want 1", sum)
	}
	// The first feature carries all the signal.
	if imps[0] <= imps[1] {
		t.Errorf("importances = %v, want feature 0 dominant", imps)
	}
}

func TestEvaluateReport(t *testing.T) {
	yTrue := []types.Label{types.LabelBuy, types.LabelBuy, types.LabelSell, types.LabelSell}
	yPred := []types.Label{types.LabelBuy, types.LabelSell, types.LabelSell, types.LabelSell}

	report := Evaluate(yTrue, yPred)
	if report.Accuracy != 0.75 {
		t.Errorf("accuracy = %v, want 0.75", report.Accuracy)
	}
	buy := report.PerClass[types.LabelBuy]
	if buy.Precision != 1 || buy.Recall != 0.5 || buy.Support != 2 {
		t.Errorf("BUY metrics = %+v", buy)
	}
	sell := report.PerClass[types.LabelSell]
	if math.Abs(sell.Precision-2.0/3.0) > 1e-9 || sell.Recall != 1 {
		t.Errorf("SELL metrics = %+v", sell)
	}
	if report.String() == "" {
		t.Error("report string empty")
	}
}
