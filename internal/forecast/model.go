package forecast

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInsufficientData is returned when a series is too short to build a
// single training window.
var ErrInsufficientData = errors.New("forecast: insufficient data for lookback window")

// Config controls the network shape and the training loop.
type Config struct {
	Lookback     int     `yaml:"lookback"`
	HiddenSize   int     `yaml:"hidden_size"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
}

// DefaultConfig mirrors the settings the recommendation pipeline uses.
func DefaultConfig() Config {
	return Config{
		Lookback:     90,
		HiddenSize:   128,
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
		Seed:         42,
	}
}

// Model is a next-day close forecaster: two stacked LSTM layers, an
// attention blend over the second layer's outputs and a single linear
// output unit. Prices are min-max scaled before entering the network
// and predictions are mapped back to price space.
type Model struct {
	cfg Config

	layer1 *lstmLayer
	layer2 *lstmLayer
	attn   *Attention
	fcW    *tensor
	fcB    *tensor

	Scaler MinMaxScaler
}

// NewModel builds an untrained model with randomly initialized weights.
func NewModel(cfg Config) *Model {
	rng := rand.New(rand.NewSource(cfg.Seed))
	H := cfg.HiddenSize
	return &Model{
		cfg:    cfg,
		layer1: newLSTMLayer(1, H, rng),
		layer2: newLSTMLayer(H, H, rng),
		attn:   newAttention(H, rng),
		fcW:    newRandomTensor(H, 0.1, rng),
		fcB:    newTensor(1),
	}
}

func (m *Model) params() []*tensor {
	params := m.layer1.params()
	params = append(params, m.layer2.params()...)
	params = append(params, m.attn.params()...)
	params = append(params, m.fcW, m.fcB)
	return params
}

// forwardCache ties together the per-layer caches of one sample.
type forwardCache struct {
	cache1  *lstmCache
	outs2   [][]float64
	cache2  *lstmCache
	context []float64
	attn    *attnCache
}

// forward runs one scaled window through the network.
func (m *Model) forward(window []float64) (float64, *forwardCache) {
	seq := make([][]float64, len(window))
	for t, v := range window {
		seq[t] = []float64{v}
	}
	outs1, cache1 := m.layer1.Forward(seq)
	outs2, cache2 := m.layer2.Forward(outs1)
	final := outs2[len(outs2)-1]
	context, _, attnCache := m.attn.Forward(outs2, final)

	pred := m.fcB.data[0]
	for k, c := range context {
		pred += m.fcW.data[k] * c
	}
	return pred, &forwardCache{
		cache1:  cache1,
		outs2:   outs2,
		cache2:  cache2,
		context: context,
		attn:    attnCache,
	}
}

// backward accumulates gradients for one sample given dLoss/dPred.
func (m *Model) backward(dpred float64, fc *forwardCache) {
	H := m.cfg.HiddenSize
	m.fcB.grad[0] += dpred
	dcontext := make([]float64, H)
	for k := 0; k < H; k++ {
		m.fcW.grad[k] += dpred * fc.context[k]
		dcontext[k] = dpred * m.fcW.data[k]
	}

	douts2, dfinal := m.attn.Backward(dcontext, fc.attn)
	last := len(douts2) - 1
	for k := 0; k < H; k++ {
		douts2[last][k] += dfinal[k]
	}

	douts1 := m.layer2.Backward(douts2, fc.cache2)
	m.layer1.Backward(douts1, fc.cache1)
}

// Predict forecasts the close one step past the end of the series.
func (m *Model) Predict(closes []float64) (float64, error) {
	L := m.cfg.Lookback
	if len(closes) < L {
		return 0, fmt.Errorf("forecast: need %d closes, have %d: %w", L, len(closes), ErrInsufficientData)
	}
	window := m.Scaler.Transform(closes[len(closes)-L:])
	pred, _ := m.forward(window)
	return m.Scaler.Inverse(pred), nil
}

// AttentionWeights exposes the attention distribution for the most
// recent window, mostly for inspection and debugging.
func (m *Model) AttentionWeights(closes []float64) ([]float64, error) {
	L := m.cfg.Lookback
	if len(closes) < L {
		return nil, fmt.Errorf("forecast: need %d closes, have %d: %w", L, len(closes), ErrInsufficientData)
	}
	window := m.Scaler.Transform(closes[len(closes)-L:])
	seq := make([][]float64, len(window))
	for t, v := range window {
		seq[t] = []float64{v}
	}
	outs1, _ := m.layer1.Forward(seq)
	outs2, _ := m.layer2.Forward(outs1)
	_, weights, _ := m.attn.Forward(outs2, outs2[len(outs2)-1])
	return weights, nil
}
