package tflite

import (
	"go-ml.dev/pkg/zorros/zorros"
	"math"
)

type value struct {
	f []float32
	q []int8
	i []int32
}

/*
Interpreter evaluates a single-subgraph model of FULLY_CONNECTED, QUANTIZE and DEQUANTIZE ops,
float, hybrid and int8 kernels are supported
*/
type Interpreter struct {
	Model  *Model
	values []value
}

/*
NewInterpreter parses the flatbuffer and decodes constant tensors
*/
func NewInterpreter(buf []byte) (*Interpreter, error) {
	m, err := Unmarshal(buf)
	if err != nil {
		return nil, err
	}
	if m.Version != SchemaVersion {
		return nil, zorros.Errorf("model schema version %d does not match %d", m.Version, SchemaVersion)
	}
	in := &Interpreter{Model: m, values: make([]value, len(m.Tensors))}
	for i, t := range m.Tensors {
		data := m.Buffers[t.Buffer]
		if len(data) == 0 {
			continue
		}
		if len(data) != t.Elements()*t.Type.Size() {
			return nil, zorros.Errorf("tensor %v has %d bytes of data, expected %d", t.Name, len(data), t.Elements()*t.Type.Size())
		}
		switch t.Type {
		case Float32:
			in.values[i].f = bytesFloat32(data)
		case Int8:
			in.values[i].q = bytesInt8(data)
		case Int32:
			in.values[i].i = bytesInt32(data)
		default:
			return nil, zorros.Errorf("tensor %v has unsupported type %v", t.Name, t.Type)
		}
	}
	for _, op := range m.Operators {
		switch b := m.Builtin(op); b {
		case OpFullyConnected, OpQuantize, OpDequantize:
		default:
			return nil, zorros.Errorf("unsupported operator %v", b)
		}
	}
	return in, nil
}

/*
Predict runs the model on one features vector, int8 input and output are
quantized and dequantized with the tensor parameters
*/
func (in *Interpreter) Predict(x []float32) (float32, error) {
	m := in.Model
	input := m.Input()
	if len(x) != input.Elements() {
		return 0, zorros.Errorf("input has %d features, model expects %d", len(x), input.Elements())
	}
	switch input.Type {
	case Float32:
		in.values[m.Inputs[0]] = value{f: x}
	case Int8:
		scale, zp := input.Quantization.params()
		q := make([]int8, len(x))
		for i, v := range x {
			q[i] = quantizeValue(v, scale, zp)
		}
		in.values[m.Inputs[0]] = value{q: q}
	default:
		return 0, zorros.Errorf("unsupported input type %v", input.Type)
	}
	for _, op := range m.Operators {
		if err := in.invoke(op); err != nil {
			return 0, err
		}
	}
	output := m.Output()
	v := in.values[m.Outputs[0]]
	switch output.Type {
	case Float32:
		return v.f[0], nil
	case Int8:
		scale, zp := output.Quantization.params()
		return dequantizeValue(v.q[0], scale, zp), nil
	}
	return 0, zorros.Errorf("unsupported output type %v", output.Type)
}

func (in *Interpreter) invoke(op Operator) error {
	m := in.Model
	src := m.Tensors[op.Inputs[0]]
	dst := m.Tensors[op.Outputs[0]]
	v := in.values[op.Inputs[0]]
	switch m.Builtin(op) {
	case OpQuantize:
		scale, zp := dst.Quantization.params()
		in.values[op.Outputs[0]] = value{q: quantize(v.f, scale, zp)}
	case OpDequantize:
		scale, zp := src.Quantization.params()
		in.values[op.Outputs[0]] = value{f: dequantize(v.q, scale, zp)}
	case OpFullyConnected:
		if len(op.Inputs) < 2 {
			return zorros.Errorf("FULLY_CONNECTED %v has no weights", dst.Name)
		}
		w := m.Tensors[op.Inputs[1]]
		var b *Tensor
		if len(op.Inputs) > 2 && op.Inputs[2] >= 0 {
			b = &m.Tensors[op.Inputs[2]]
		}
		if len(w.Shape) != 2 || int(w.Shape[1]) != src.Elements() {
			return zorros.Errorf("weights %v of shape %v do not match input %v", w.Name, w.Shape, src.Shape)
		}
		switch src.Type {
		case Float32:
			in.values[op.Outputs[0]] = value{f: in.fullyConnected(op, w, b)}
		case Int8:
			in.values[op.Outputs[0]] = value{q: in.fullyConnectedInt8(op, src, w, b, dst)}
		default:
			return zorros.Errorf("FULLY_CONNECTED %v has unsupported input type %v", dst.Name, src.Type)
		}
	}
	return nil
}

// float and hybrid kernel, int8 weights are dequantized on the fly
func (in *Interpreter) fullyConnected(op Operator, w Tensor, b *Tensor) []float32 {
	x := in.values[op.Inputs[0]].f
	wv := in.values[op.Inputs[1]]
	weights := wv.f
	if w.Type == Int8 {
		scale, zp := w.Quantization.params()
		weights = dequantize(wv.q, scale, zp)
	}
	units, n := int(w.Shape[0]), int(w.Shape[1])
	r := make([]float32, units)
	for o := 0; o < units; o++ {
		var acc float32
		row := weights[o*n : (o+1)*n]
		for i, v := range x {
			acc += v * row[i]
		}
		if b != nil {
			acc += in.values[op.Inputs[2]].f[o]
		}
		if op.Activation == ActRelu && acc < 0 {
			acc = 0
		}
		r[o] = acc
	}
	return r
}

func (in *Interpreter) fullyConnectedInt8(op Operator, src, w Tensor, b *Tensor, dst Tensor) []int8 {
	x := in.values[op.Inputs[0]].q
	weights := in.values[op.Inputs[1]].q
	inScale, inZp := src.Quantization.params()
	wScale, wZp := w.Quantization.params()
	outScale, outZp := dst.Quantization.params()
	multiplier := float64(inScale) * float64(wScale) / float64(outScale)
	lo := int64(qmin)
	if op.Activation == ActRelu {
		lo = outZp
	}
	units, n := int(w.Shape[0]), int(w.Shape[1])
	r := make([]int8, units)
	for o := 0; o < units; o++ {
		var acc int64
		row := weights[o*n : (o+1)*n]
		for i, q := range x {
			acc += (int64(q) - inZp) * (int64(row[i]) - wZp)
		}
		if b != nil {
			acc += int64(in.values[op.Inputs[2]].i[o])
		}
		y := int64(math.Round(float64(acc)*multiplier)) + outZp
		r[o] = int8(max(lo, min(qmax, y)))
	}
	return r
}
