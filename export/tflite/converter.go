package tflite

import (
	"fmt"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/logp/model/dense"
	"go-ml.dev/pkg/zorros/zorros"
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/mat"
	"iter"
	"math"
	"slices"
)

/*
Optimization is a conversion optimization flag
*/
type Optimization int

const (
	// OptimizeDefault quantizes large weights, or everything when a representative dataset is given
	OptimizeDefault Optimization = iota + 1
)

/*
OpsSet is a set of kernels the converted model may use
*/
type OpsSet int

const (
	BuiltinsFloat OpsSet = iota
	BuiltinsInt8
)

// HybridMinElements is the smallest weights tensor quantized in dynamic range mode
const HybridMinElements = 1024

var ErrNoCalibration = xerrors.New("int8 quantization requires a representative dataset")

/*
Converter converts a dense network into a TFLite model
*/
type Converter struct {
	Network               *dense.Network
	Optimizations         []Optimization
	RepresentativeDataset func() iter.Seq[[]float32]
	SupportedOps          []OpsSet
	InferenceInputType    TensorType
	InferenceOutputType   TensorType
	Description           string
}

/*
FromSavedModel creates a float converter for the network saved in dir
*/
func FromSavedModel(dir string) (*Converter, error) {
	net, err := dense.Load(dir)
	if err != nil {
		return nil, zorros.Wrapf(err, "failed to load saved model from %v: %v", dir, err.Error())
	}
	return FromNetwork(net), nil
}

/*
FromNetwork creates a float converter for the network
*/
func FromNetwork(net *dense.Network) *Converter {
	return &Converter{
		Network:             net,
		InferenceInputType:  Float32,
		InferenceOutputType: Float32,
		Description:         "logp dense regressor",
	}
}

func (c *Converter) optimized() bool {
	return slices.Contains(c.Optimizations, OptimizeDefault)
}

func (c *Converter) integerOnly() bool {
	return slices.Contains(c.SupportedOps, BuiltinsInt8) ||
		c.InferenceInputType == Int8 || c.InferenceOutputType == Int8
}

/*
Convert produces the TFLite flatbuffer
*/
func (c *Converter) Convert() ([]byte, error) {
	m, err := c.Model()
	if err != nil {
		return nil, err
	}
	return m.Marshal(), nil
}

/*
Model builds the in-memory TFLite model without serializing it
*/
func (c *Converter) Model() (*Model, error) {
	if c.Network == nil || len(c.Network.Layers) == 0 {
		return nil, zorros.Errorf("converter has no network")
	}
	for _, t := range []TensorType{c.InferenceInputType, c.InferenceOutputType} {
		if t != Float32 && t != Int8 {
			return nil, zorros.Errorf("unsupported inference type %v", t)
		}
	}
	if c.integerOnly() && (!c.optimized() || c.RepresentativeDataset == nil) {
		return nil, xerrors.Errorf("full integer conversion: %w", ErrNoCalibration)
	}
	m := &Model{Version: SchemaVersion, Description: c.Description, Subgraph: "main", Buffers: [][]byte{nil}}
	switch {
	case c.optimized() && c.RepresentativeDataset != nil:
		ranges, err := c.calibrate()
		if err != nil {
			return nil, err
		}
		c.buildInt8(m, ranges)
	case c.optimized():
		c.buildHybrid(m)
	default:
		c.buildFloat(m)
	}
	return m, nil
}

func layerName(i int) string {
	if i == 0 {
		return "dense"
	}
	return fmt.Sprintf("dense_%d", i)
}

func activation(l *dense.Layer) Activation {
	if l.Activation == dense.ReLU {
		return ActRelu
	}
	return ActNone
}

// kernel returns weights transposed into the [out, in] layout of FULLY_CONNECTED
func kernel(l *dense.Layer) []float32 {
	in, out := l.Inputs(), l.Units()
	r := make([]float32, 0, in*out)
	t := mat.DenseCopyOf(l.W.T())
	for i := 0; i < out; i++ {
		for _, x := range t.RawRowView(i) {
			r = append(r, float32(x))
		}
	}
	return r
}

func bias(l *dense.Layer) []float32 {
	r := make([]float32, len(l.B))
	for i, x := range l.B {
		r[i] = float32(x)
	}
	return r
}

func outputName(i, n int, l *dense.Layer) string {
	if i == n-1 {
		return "Identity"
	}
	if l.Activation == dense.ReLU {
		return layerName(i) + "/Relu"
	}
	return layerName(i) + "/BiasAdd"
}

func (c *Converter) buildFloat(m *Model) {
	c.buildDynamic(m, false)
}

func (c *Converter) buildHybrid(m *Model) {
	c.buildDynamic(m, true)
}

func (c *Converter) buildDynamic(m *Model, hybrid bool) {
	version := int32(1)
	for _, l := range c.Network.Layers {
		if hybrid && l.Inputs()*l.Units() >= HybridMinElements {
			version = 3
		}
	}
	fc := m.opcode(OpFullyConnected, version)
	x := m.addTensor(Tensor{Name: "input", Type: Float32, Shape: []int32{1, int32(c.Network.Width())}})
	m.Inputs = []int32{x}
	n := len(c.Network.Layers)
	for i, l := range c.Network.Layers {
		in, out := int32(l.Inputs()), int32(l.Units())
		w := kernel(l)
		kt := Tensor{Name: layerName(i) + "/MatMul", Type: Float32, Shape: []int32{out, in}}
		if hybrid && len(w) >= HybridMinElements {
			q := symmetric(w)
			kt.Type = Int8
			kt.Quantization = q
			kt.Buffer = m.addBuffer(int8Bytes(quantize(w, q.Scale[0], 0)))
		} else {
			kt.Buffer = m.addBuffer(float32Bytes(w))
		}
		k := m.addTensor(kt)
		b := m.addTensor(Tensor{
			Name:   layerName(i) + "/BiasAdd/ReadVariableOp",
			Type:   Float32,
			Shape:  []int32{out},
			Buffer: m.addBuffer(float32Bytes(bias(l))),
		})
		y := m.addTensor(Tensor{Name: outputName(i, n, l), Type: Float32, Shape: []int32{1, out}})
		m.Operators = append(m.Operators, Operator{Opcode: fc, Inputs: []int32{x, k, b}, Outputs: []int32{y}, Activation: activation(l)})
		x = y
	}
	m.Outputs = []int32{x}
}

/*
calibrate runs the float network over the representative dataset and
returns min/max of the input and of every layer output
*/
func (c *Converter) calibrate() ([][2]float32, error) {
	const batch = 64
	net := c.Network
	ranges := make([][2]float32, len(net.Layers)+1)
	for i := range ranges {
		ranges[i] = [2]float32{float32(math.Inf(1)), float32(math.Inf(-1))}
	}
	rows := make([][]float32, 0, batch)
	count := 0
	flush := func() {
		if len(rows) == 0 {
			return
		}
		flat := fu.Flatnr(rows)
		x := mat.NewDense(len(rows), net.Width(), nil)
		for i, v := range flat {
			x.RawMatrix().Data[i] = float64(v)
		}
		for i, a := range net.Forward(x) {
			lo, hi := mat.Min(a), mat.Max(a)
			ranges[i][0] = float32(math.Min(float64(ranges[i][0]), lo))
			ranges[i][1] = float32(math.Max(float64(ranges[i][1]), hi))
		}
		rows = rows[:0]
	}
	for v := range c.RepresentativeDataset() {
		if len(v) != net.Width() {
			return nil, zorros.Errorf("representative sample has %d features, model input is %d", len(v), net.Width())
		}
		rows = append(rows, v)
		count++
		if len(rows) == batch {
			flush()
		}
	}
	flush()
	if count == 0 {
		return nil, xerrors.Errorf("representative dataset is empty: %w", ErrNoCalibration)
	}
	return ranges, nil
}

func (c *Converter) buildInt8(m *Model, ranges [][2]float32) {
	net := c.Network
	fc := m.opcode(OpFullyConnected, 4)
	width := int32(net.Width())
	inq := asymmetric(ranges[0][0], ranges[0][1])
	var x int32
	if c.InferenceInputType == Int8 {
		x = m.addTensor(Tensor{Name: "input", Type: Int8, Shape: []int32{1, width}, Quantization: inq})
		m.Inputs = []int32{x}
	} else {
		f := m.addTensor(Tensor{Name: "input", Type: Float32, Shape: []int32{1, width}})
		m.Inputs = []int32{f}
		x = m.addTensor(Tensor{Name: "input_int8", Type: Int8, Shape: []int32{1, width}, Quantization: inq})
		m.Operators = append(m.Operators, Operator{Opcode: m.opcode(OpQuantize, 1), Inputs: []int32{f}, Outputs: []int32{x}})
	}
	n := len(net.Layers)
	for i, l := range net.Layers {
		in, out := int32(l.Inputs()), int32(l.Units())
		w := kernel(l)
		wq := symmetric(w)
		k := m.addTensor(Tensor{
			Name:         layerName(i) + "/MatMul",
			Type:         Int8,
			Shape:        []int32{out, in},
			Buffer:       m.addBuffer(int8Bytes(quantize(w, wq.Scale[0], 0))),
			Quantization: wq,
		})
		inScale, _ := m.Tensors[x].Quantization.params()
		bscale := inScale * wq.Scale[0]
		bq := make([]int32, out)
		for j, v := range l.B {
			bq[j] = int32(math.Round(v / float64(bscale)))
		}
		b := m.addTensor(Tensor{
			Name:         layerName(i) + "/BiasAdd/ReadVariableOp",
			Type:         Int32,
			Shape:        []int32{out},
			Buffer:       m.addBuffer(int32Bytes(bq)),
			Quantization: &Quantization{Scale: []float32{bscale}, ZeroPoint: []int64{0}},
		})
		name := outputName(i, n, l)
		if i == n-1 && c.InferenceOutputType != Int8 {
			name += "_int8"
		}
		y := m.addTensor(Tensor{
			Name:         name,
			Type:         Int8,
			Shape:        []int32{1, out},
			Quantization: asymmetric(ranges[i+1][0], ranges[i+1][1]),
		})
		m.Operators = append(m.Operators, Operator{Opcode: fc, Inputs: []int32{x, k, b}, Outputs: []int32{y}, Activation: activation(l)})
		x = y
	}
	if c.InferenceOutputType != Int8 {
		shape := m.Tensors[x].Shape
		y := m.addTensor(Tensor{Name: "Identity", Type: Float32, Shape: shape})
		m.Operators = append(m.Operators, Operator{Opcode: m.opcode(OpDequantize, 2), Inputs: []int32{x}, Outputs: []int32{y}})
		x = y
	}
	m.Outputs = []int32{x}
}
