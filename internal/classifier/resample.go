package classifier

import (
	"math/rand"

	"stocksense/internal/types"
)

// Split holds a stratified train/test partition.
type Split struct {
	XTrain []types.FeatureVector
	YTrain []types.Label
	XTest  []types.FeatureVector
	YTest  []types.Label
}

// BalanceDownsample resamples every class with replacement down to the
// size of the smallest one.
func BalanceDownsample(x []types.FeatureVector, y []types.Label, rng *rand.Rand) ([]types.FeatureVector, []types.Label) {
	byClass := groupByLabel(y)

	minority := -1
	for _, idx := range byClass {
		if minority < 0 || len(idx) < minority {
			minority = len(idx)
		}
	}

	var outX []types.FeatureVector
	var outY []types.Label
	for _, label := range distinctLabels(y) {
		idx := byClass[label]
		for k := 0; k < minority; k++ {
			i := idx[rng.Intn(len(idx))]
			outX = append(outX, x[i])
			outY = append(outY, y[i])
		}
	}
	return outX, outY
}

// StratifiedSplit partitions samples so each class keeps roughly the
// same train/test proportion.
func StratifiedSplit(x []types.FeatureVector, y []types.Label, testFraction float64, rng *rand.Rand) *Split {
	split := &Split{}
	byClass := groupByLabel(y)

	for _, label := range distinctLabels(y) {
		idx := append([]int(nil), byClass[label]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx)) * testFraction)
		// Keep at least one sample per class on the training side.
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		for k, i := range idx {
			if k < nTest {
				split.XTest = append(split.XTest, x[i])
				split.YTest = append(split.YTest, y[i])
			} else {
				split.XTrain = append(split.XTrain, x[i])
				split.YTrain = append(split.YTrain, y[i])
			}
		}
	}
	return split
}

func groupByLabel(y []types.Label) map[types.Label][]int {
	byClass := make(map[types.Label][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	return byClass
}
