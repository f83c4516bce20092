package forecast

import (
	"math"
	"math/rand"
)

// tensor is a flat parameter block with an accumulated gradient of the
// same shape. All network weights are stored this way so the optimizer
// can treat them uniformly.
type tensor struct {
	data []float64
	grad []float64
}

func newTensor(n int) *tensor {
	return &tensor{
		data: make([]float64, n),
		grad: make([]float64, n),
	}
}

// newRandomTensor initializes weights uniformly in [-scale, scale).
func newRandomTensor(n int, scale float64, rng *rand.Rand) *tensor {
	t := newTensor(n)
	for i := range t.data {
		t.data[i] = (rng.Float64()*2 - 1) * scale
	}
	return t
}

func (t *tensor) zeroGrad() {
	for i := range t.grad {
		t.grad[i] = 0
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
