package forecast

import (
	"math"
	"math/rand"
)

// lstmLayer is a single LSTM layer operating on one sequence at a time.
// Gates are stored in blocks of hiddenSize in the order input, forget,
// cell and output.
type lstmLayer struct {
	inputSize  int
	hiddenSize int

	wx *tensor // 4H x inputSize
	wh *tensor // 4H x hiddenSize
	b  *tensor // 4H
}

// lstmCache holds everything the backward pass needs for one sequence.
type lstmCache struct {
	xs    [][]float64 // T x inputSize
	hs    [][]float64 // T+1 x H, hs[0] is the zero initial state
	cs    [][]float64 // T+1 x H
	gates [][]float64 // T x 4H, post activation
	tanhC [][]float64 // T x H
}

func newLSTMLayer(inputSize, hiddenSize int, rng *rand.Rand) *lstmLayer {
	scale := 1 / math.Sqrt(float64(hiddenSize))
	return &lstmLayer{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		wx:         newRandomTensor(4*hiddenSize*inputSize, scale, rng),
		wh:         newRandomTensor(4*hiddenSize*hiddenSize, scale, rng),
		b:          newTensor(4 * hiddenSize),
	}
}

// Forward runs the layer over a sequence and returns the hidden state at
// every timestep.
func (l *lstmLayer) Forward(seq [][]float64) ([][]float64, *lstmCache) {
	T := len(seq)
	H := l.hiddenSize
	cache := &lstmCache{
		xs:    seq,
		hs:    make([][]float64, T+1),
		cs:    make([][]float64, T+1),
		gates: make([][]float64, T),
		tanhC: make([][]float64, T),
	}
	cache.hs[0] = make([]float64, H)
	cache.cs[0] = make([]float64, H)

	outs := make([][]float64, T)
	for t := 0; t < T; t++ {
		x := seq[t]
		hPrev := cache.hs[t]
		cPrev := cache.cs[t]

		z := make([]float64, 4*H)
		for row := 0; row < 4*H; row++ {
			sum := l.b.data[row]
			for k := 0; k < l.inputSize; k++ {
				sum += l.wx.data[row*l.inputSize+k] * x[k]
			}
			for k := 0; k < H; k++ {
				sum += l.wh.data[row*H+k] * hPrev[k]
			}
			z[row] = sum
		}

		gates := make([]float64, 4*H)
		h := make([]float64, H)
		c := make([]float64, H)
		tc := make([]float64, H)
		for j := 0; j < H; j++ {
			in := sigmoid(z[j])
			fg := sigmoid(z[H+j])
			cn := math.Tanh(z[2*H+j])
			ot := sigmoid(z[3*H+j])
			gates[j] = in
			gates[H+j] = fg
			gates[2*H+j] = cn
			gates[3*H+j] = ot

			c[j] = fg*cPrev[j] + in*cn
			tc[j] = math.Tanh(c[j])
			h[j] = ot * tc[j]
		}

		cache.hs[t+1] = h
		cache.cs[t+1] = c
		cache.gates[t] = gates
		cache.tanhC[t] = tc
		outs[t] = h
	}
	return outs, cache
}

// Backward propagates gradients for every timestep output back through
// the layer, accumulating parameter gradients and returning the
// gradients with respect to the inputs.
func (l *lstmLayer) Backward(douts [][]float64, cache *lstmCache) [][]float64 {
	T := len(cache.xs)
	H := l.hiddenSize

	dxs := make([][]float64, T)
	dhNext := make([]float64, H)
	dcNext := make([]float64, H)

	for t := T - 1; t >= 0; t-- {
		gates := cache.gates[t]
		tc := cache.tanhC[t]
		cPrev := cache.cs[t]
		hPrev := cache.hs[t]
		x := cache.xs[t]

		dz := make([]float64, 4*H)
		dc := make([]float64, H)
		for j := 0; j < H; j++ {
			dh := douts[t][j] + dhNext[j]
			in := gates[j]
			fg := gates[H+j]
			cn := gates[2*H+j]
			ot := gates[3*H+j]

			do := dh * tc[j]
			dc[j] = dcNext[j] + dh*ot*(1-tc[j]*tc[j])

			di := dc[j] * cn
			df := dc[j] * cPrev[j]
			dcn := dc[j] * in

			dz[j] = di * in * (1 - in)
			dz[H+j] = df * fg * (1 - fg)
			dz[2*H+j] = dcn * (1 - cn*cn)
			dz[3*H+j] = do * ot * (1 - ot)
		}

		dx := make([]float64, l.inputSize)
		dhPrev := make([]float64, H)
		for row := 0; row < 4*H; row++ {
			g := dz[row]
			if g == 0 {
				continue
			}
			l.b.grad[row] += g
			for k := 0; k < l.inputSize; k++ {
				l.wx.grad[row*l.inputSize+k] += g * x[k]
				dx[k] += l.wx.data[row*l.inputSize+k] * g
			}
			for k := 0; k < H; k++ {
				l.wh.grad[row*H+k] += g * hPrev[k]
				dhPrev[k] += l.wh.data[row*H+k] * g
			}
		}

		dxs[t] = dx
		dhNext = dhPrev
		for j := 0; j < H; j++ {
			dcNext[j] = dc[j] * gates[H+j]
		}
	}
	return dxs
}

func (l *lstmLayer) params() []*tensor {
	return []*tensor{l.wx, l.wh, l.b}
}
