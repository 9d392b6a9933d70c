/*
Package dense implements the fully connected logP regressor:
a stack of dense layers over gonum matrices trained with Adam on MSE loss
*/
package dense

import (
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
	"math"
	"math/rand"
)

const (
	ReLU   = "relu"
	Linear = "linear"
)

// DefaultHidden is the hidden topology of the logP regressor
var DefaultHidden = []int{512, 256}

/*
Layer is a dense layer y = act(x·W + B), W is in×out
*/
type Layer struct {
	W          *mat.Dense
	B          []float64
	Activation string
}

/*
Inputs returns the layer input width
*/
func (l *Layer) Inputs() int {
	r, _ := l.W.Dims()
	return r
}

/*
Units returns the layer output width
*/
func (l *Layer) Units() int {
	_, c := l.W.Dims()
	return c
}

/*
Network is a feed-forward stack of dense layers with a single linear output
*/
type Network struct {
	Layers []*Layer
	Seed   int64
}

/*
New builds the fixed input -> 512 -> 256 -> 1 topology
*/
func New(input int, seed int64) *Network {
	return Build(input, DefaultHidden, seed)
}

/*
Build creates a network with ReLU hidden layers of given sizes and one linear output unit.
Weights are Glorot-uniform from a generator seeded with seed, biases are zero.
*/
func Build(input int, hidden []int, seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	net := &Network{Seed: seed}
	in := input
	for i, units := range append(append([]int{}, hidden...), 1) {
		act := ReLU
		if i == len(hidden) {
			act = Linear
		}
		limit := math.Sqrt(6 / float64(in+units))
		w := make([]float64, in*units)
		for j := range w {
			w[j] = (rng.Float64()*2 - 1) * limit
		}
		net.Layers = append(net.Layers, &Layer{
			W:          mat.NewDense(in, units, w),
			B:          make([]float64, units),
			Activation: act,
		})
		in = units
	}
	return net
}

/*
Width returns count of input features
*/
func (n *Network) Width() int {
	return n.Layers[0].Inputs()
}

/*
Topology returns widths of all layers starting from the input
*/
func (n *Network) Topology() []int {
	r := []int{n.Width()}
	for _, l := range n.Layers {
		r = append(r, l.Units())
	}
	return r
}

func activate(m *mat.Dense, act string) {
	if act != ReLU {
		return
	}
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j, x := range row {
			if x < 0 {
				row[j] = 0
			}
		}
	}
}

func addBias(m *mat.Dense, b []float64) {
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		for j := range row {
			row[j] += b[j]
		}
	}
}

/*
Forward computes activations of every layer for the batch x,
acts[0] is x itself and acts[len(Layers)] is the output
*/
func (n *Network) Forward(x *mat.Dense) []*mat.Dense {
	acts := make([]*mat.Dense, len(n.Layers)+1)
	acts[0] = x
	for i, l := range n.Layers {
		z := &mat.Dense{}
		z.Mul(acts[i], l.W)
		addBias(z, l.B)
		activate(z, l.Activation)
		acts[i+1] = z
	}
	return acts
}

/*
Predict returns the regression value for one features vector
*/
func (n *Network) Predict(features []float32) float32 {
	x := mat.NewDense(1, len(features), nil)
	for i, v := range features {
		x.Set(0, i, float64(v))
	}
	acts := n.Forward(x)
	return float32(acts[len(acts)-1].At(0, 0))
}

/*
Batch copies dataset rows with given indices into a dense matrix
*/
func Batch(d *dataset.Dataset, index []int) *mat.Dense {
	x := mat.NewDense(len(index), d.Width, nil)
	raw := x.RawMatrix()
	for i, k := range index {
		row := raw.Data[i*raw.Stride : i*raw.Stride+d.Width]
		for j, v := range d.Row(k) {
			row[j] = float64(v)
		}
	}
	return x
}

/*
PredictDataset returns predictions for every sample of d, computed in batches
*/
func (n *Network) PredictDataset(d *dataset.Dataset, batchSize int) ([]float32, error) {
	if d.Width != n.Width() {
		return nil, zorros.Errorf("dataset width %d does not match network input %d", d.Width, n.Width())
	}
	r := make([]float32, 0, d.Len())
	index := make([]int, 0, batchSize)
	for i := 0; i < d.Len(); i += batchSize {
		index = index[:0]
		for j := i; j < i+batchSize && j < d.Len(); j++ {
			index = append(index, j)
		}
		acts := n.Forward(Batch(d, index))
		out := acts[len(acts)-1]
		for j := range index {
			r = append(r, float32(out.At(j, 0)))
		}
	}
	return r, nil
}
