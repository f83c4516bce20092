package forecast

import (
	"math"
	"math/rand"
)

// Attention scores each encoder output against the final hidden state
// using an additive tanh energy and blends the outputs into a single
// context vector. It is independent of the LSTM layers and can be
// reused over any sequence of hidden states.
type Attention struct {
	hiddenSize int

	w *tensor // H x 2H, applied to [final; out_t]
	b *tensor // H
	v *tensor // H
}

// attnCache holds the forward activations needed by Backward.
type attnCache struct {
	outs     [][]float64
	final    []float64
	energies [][]float64
	weights  []float64
}

func newAttention(hiddenSize int, rng *rand.Rand) *Attention {
	scale := 1 / math.Sqrt(float64(hiddenSize))
	return &Attention{
		hiddenSize: hiddenSize,
		w:          newRandomTensor(hiddenSize*2*hiddenSize, scale, rng),
		b:          newTensor(hiddenSize),
		v:          newRandomTensor(hiddenSize, scale, rng),
	}
}

// Forward returns the context vector and the normalized attention
// weights, one per timestep. The weights sum to one.
func (a *Attention) Forward(outs [][]float64, final []float64) ([]float64, []float64, *attnCache) {
	T := len(outs)
	H := a.hiddenSize

	energies := make([][]float64, T)
	scores := make([]float64, T)
	for t := 0; t < T; t++ {
		energy := make([]float64, H)
		for row := 0; row < H; row++ {
			sum := a.b.data[row]
			for k := 0; k < H; k++ {
				sum += a.w.data[row*2*H+k] * final[k]
				sum += a.w.data[row*2*H+H+k] * outs[t][k]
			}
			energy[row] = math.Tanh(sum)
			scores[t] += a.v.data[row] * energy[row]
		}
		energies[t] = energy
	}

	weights := softmax(scores)
	context := make([]float64, H)
	for t := 0; t < T; t++ {
		for k := 0; k < H; k++ {
			context[k] += weights[t] * outs[t][k]
		}
	}

	cache := &attnCache{outs: outs, final: final, energies: energies, weights: weights}
	return context, weights, cache
}

// Backward propagates the gradient of the context vector back to the
// encoder outputs and the final hidden state, accumulating parameter
// gradients along the way.
func (a *Attention) Backward(dcontext []float64, cache *attnCache) (douts [][]float64, dfinal []float64) {
	T := len(cache.outs)
	H := a.hiddenSize

	douts = make([][]float64, T)
	for t := range douts {
		douts[t] = make([]float64, H)
	}
	dfinal = make([]float64, H)

	// Context depends on the weights and directly on the outputs.
	dweights := make([]float64, T)
	for t := 0; t < T; t++ {
		for k := 0; k < H; k++ {
			dweights[t] += dcontext[k] * cache.outs[t][k]
			douts[t][k] += cache.weights[t] * dcontext[k]
		}
	}

	// Softmax backward.
	var weighted float64
	for t := 0; t < T; t++ {
		weighted += cache.weights[t] * dweights[t]
	}
	for t := 0; t < T; t++ {
		dscore := cache.weights[t] * (dweights[t] - weighted)
		if dscore == 0 {
			continue
		}
		for row := 0; row < H; row++ {
			energy := cache.energies[t][row]
			a.v.grad[row] += dscore * energy
			dpre := dscore * a.v.data[row] * (1 - energy*energy)
			a.b.grad[row] += dpre
			for k := 0; k < H; k++ {
				a.w.grad[row*2*H+k] += dpre * cache.final[k]
				a.w.grad[row*2*H+H+k] += dpre * cache.outs[t][k]
				dfinal[k] += a.w.data[row*2*H+k] * dpre
				douts[t][k] += a.w.data[row*2*H+H+k] * dpre
			}
		}
	}
	return douts, dfinal
}

func (a *Attention) params() []*tensor {
	return []*tensor{a.w, a.b, a.v}
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
