package classifier

import (
	"math"
	"math/rand"
	"sort"

	"stocksense/internal/types"
)

// treeNode is one node of a decision tree. Leaves carry a class index,
// internal nodes a feature threshold split.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode

	leaf  bool
	class int
}

// decisionTree is a CART-style classifier over dense feature vectors.
type decisionTree struct {
	root       *treeNode
	importance []float64 // summed impurity decrease per feature
}

// growTree builds a tree on the given sample indices. Splits consider a
// random subset of sqrt(d) features, which is what makes the forest's
// trees decorrelated.
func growTree(x []types.FeatureVector, y []int, idx []int, numClasses int, rng *rand.Rand) *decisionTree {
	d := len(x[0])
	t := &decisionTree{importance: make([]float64, d)}
	t.root = t.grow(x, y, idx, numClasses, rng)
	return t
}

func (t *decisionTree) grow(x []types.FeatureVector, y []int, idx []int, numClasses int, rng *rand.Rand) *treeNode {
	counts := classCounts(y, idx, numClasses)
	if len(idx) < 2 || pure(counts) {
		return &treeNode{leaf: true, class: argmax(counts)}
	}

	feature, threshold, gain := t.bestSplit(x, y, idx, numClasses, rng)
	if gain <= 0 {
		return &treeNode{leaf: true, class: argmax(counts)}
	}
	t.importance[feature] += gain * float64(len(idx))

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(x, y, leftIdx, numClasses, rng),
		right:     t.grow(x, y, rightIdx, numClasses, rng),
	}
}

// bestSplit searches a random feature subset for the threshold with the
// largest gini impurity decrease.
func (t *decisionTree) bestSplit(x []types.FeatureVector, y []int, idx []int, numClasses int, rng *rand.Rand) (int, float64, float64) {
	d := len(x[0])
	subset := featureSubset(d, rng)

	parent := gini(classCounts(y, idx, numClasses), len(idx))
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	for _, f := range subset {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, x[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			leftCounts := make([]int, numClasses)
			rightCounts := make([]int, numClasses)
			nl, nr := 0, 0
			for _, i := range idx {
				if x[i][f] <= threshold {
					leftCounts[y[i]]++
					nl++
				} else {
					rightCounts[y[i]]++
					nr++
				}
			}

			n := float64(len(idx))
			gain := parent -
				float64(nl)/n*gini(leftCounts, nl) -
				float64(nr)/n*gini(rightCounts, nr)
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, threshold, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func (t *decisionTree) predict(fv types.FeatureVector) int {
	node := t.root
	for !node.leaf {
		if fv[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.class
}

// featureSubset picks sqrt(d) distinct feature indices.
func featureSubset(d int, rng *rand.Rand) []int {
	k := int(math.Sqrt(float64(d)))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(d)
	return perm[:k]
}

func classCounts(y []int, idx []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func pure(counts []int) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
