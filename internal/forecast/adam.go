package forecast

import "math"

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// adam applies the Adam update rule to a fixed set of parameter tensors.
type adam struct {
	params []*tensor
	lr     float64
	m      [][]float64
	v      [][]float64
	step   int
}

func newAdam(params []*tensor, lr float64) *adam {
	opt := &adam{params: params, lr: lr}
	opt.m = make([][]float64, len(params))
	opt.v = make([][]float64, len(params))
	for i, p := range params {
		opt.m[i] = make([]float64, len(p.data))
		opt.v[i] = make([]float64, len(p.data))
	}
	return opt
}

// Step consumes the accumulated gradients, updates every parameter and
// resets the gradients to zero.
func (a *adam) Step() {
	a.step++
	c1 := 1 - math.Pow(adamBeta1, float64(a.step))
	c2 := 1 - math.Pow(adamBeta2, float64(a.step))
	for i, p := range a.params {
		for j, g := range p.grad {
			a.m[i][j] = adamBeta1*a.m[i][j] + (1-adamBeta1)*g
			a.v[i][j] = adamBeta2*a.v[i][j] + (1-adamBeta2)*g*g
			mHat := a.m[i][j] / c1
			vHat := a.v[i][j] / c2
			p.data[j] -= a.lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
		}
		p.zeroGrad()
	}
}
