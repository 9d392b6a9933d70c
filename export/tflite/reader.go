package tflite

import (
	"bytes"
	flatbuffers "github.com/google/flatbuffers/go"
	"go-ml.dev/pkg/zorros/zorros"
)

type table struct {
	flatbuffers.Table
}

func (t table) field(slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
}

func (t table) u32(slot int, def uint32) uint32 {
	if o := t.field(slot); o != 0 {
		return t.GetUint32(o + t.Pos)
	}
	return def
}

func (t table) i32(slot int, def int32) int32 {
	if o := t.field(slot); o != 0 {
		return t.GetInt32(o + t.Pos)
	}
	return def
}

func (t table) i8(slot int, def int8) int8 {
	if o := t.field(slot); o != 0 {
		return t.GetInt8(o + t.Pos)
	}
	return def
}

func (t table) u8(slot int) byte {
	if o := t.field(slot); o != 0 {
		return t.GetByte(o + t.Pos)
	}
	return 0
}

func (t table) bytes(slot int) []byte {
	if o := t.field(slot); o != 0 {
		return t.ByteVector(o + t.Pos)
	}
	return nil
}

func (t table) sub(slot int) (table, bool) {
	o := t.field(slot)
	if o == 0 {
		return table{}, false
	}
	return table{flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(o + t.Pos)}}, true
}

func (t table) tables(slot int) []table {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	r := make([]table, n)
	for j := 0; j < n; j++ {
		x := t.Vector(o) + flatbuffers.UOffsetT(j*4)
		r[j] = table{flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(x)}}
	}
	return r
}

func (t table) int32s(slot int) []int32 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	r := make([]int32, n)
	for j := range r {
		r[j] = t.GetInt32(t.Vector(o) + flatbuffers.UOffsetT(j*4))
	}
	return r
}

func (t table) int64s(slot int) []int64 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	r := make([]int64, n)
	for j := range r {
		r[j] = t.GetInt64(t.Vector(o) + flatbuffers.UOffsetT(j*8))
	}
	return r
}

func (t table) float32s(slot int) []float32 {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	r := make([]float32, n)
	for j := range r {
		r[j] = t.GetFloat32(t.Vector(o) + flatbuffers.UOffsetT(j*4))
	}
	return r
}

/*
Unmarshal parses a TFLite flatbuffer produced by Marshal or by the TensorFlow converter,
as long as it has a single subgraph
*/
func Unmarshal(buf []byte) (m *Model, err error) {
	if len(buf) < 8 || !bytes.Equal(buf[4:8], []byte(FileIdentifier)) {
		return nil, zorros.Errorf("not a TFLite model: file identifier is missing")
	}
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, zorros.Errorf("malformed TFLite model: %v", r)
		}
	}()
	root := table{flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}}
	m = &Model{
		Version:     root.u32(0, 0),
		Description: string(root.bytes(3)),
	}
	for _, c := range root.tables(1) {
		code := BuiltinOperator(c.i32(3, 0))
		if dep := c.i8(0, 0); int32(dep) > int32(code) {
			code = BuiltinOperator(dep)
		}
		m.OperatorCodes = append(m.OperatorCodes, OperatorCode{Builtin: code, Version: c.i32(2, 1)})
	}
	for _, b := range root.tables(4) {
		m.Buffers = append(m.Buffers, append([]byte(nil), b.bytes(0)...))
	}
	subgraphs := root.tables(2)
	if len(subgraphs) != 1 {
		return nil, zorros.Errorf("model has %d subgraphs, only one is supported", len(subgraphs))
	}
	sg := subgraphs[0]
	m.Subgraph = string(sg.bytes(4))
	m.Inputs = sg.int32s(1)
	m.Outputs = sg.int32s(2)
	for _, t := range sg.tables(0) {
		tensor := Tensor{
			Shape:  t.int32s(0),
			Type:   TensorType(t.u8(1)),
			Buffer: t.u32(2, 0),
			Name:   string(t.bytes(3)),
		}
		if q, ok := t.sub(4); ok {
			quant := &Quantization{
				Min:       q.float32s(0),
				Max:       q.float32s(1),
				Scale:     q.float32s(2),
				ZeroPoint: q.int64s(3),
			}
			if len(quant.Scale) > 0 {
				tensor.Quantization = quant
			}
		}
		m.Tensors = append(m.Tensors, tensor)
	}
	for _, o := range sg.tables(3) {
		op := Operator{
			Opcode:  o.u32(0, 0),
			Inputs:  o.int32s(1),
			Outputs: o.int32s(2),
		}
		if o.u8(3) == optionsFullyConnected {
			if opts, ok := o.sub(4); ok {
				op.Activation = Activation(opts.i8(0, 0))
			}
		}
		m.Operators = append(m.Operators, op)
	}
	if err = m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) validate() error {
	if len(m.Inputs) != 1 || len(m.Outputs) != 1 {
		return zorros.Errorf("model must have one input and one output, has %d and %d", len(m.Inputs), len(m.Outputs))
	}
	tensor := func(i int32) error {
		if i < 0 || int(i) >= len(m.Tensors) {
			return zorros.Errorf("tensor index %d out of range", i)
		}
		if int(m.Tensors[i].Buffer) >= len(m.Buffers) {
			return zorros.Errorf("tensor %v refers to missing buffer %d", m.Tensors[i].Name, m.Tensors[i].Buffer)
		}
		return nil
	}
	for _, i := range append(append([]int32{}, m.Inputs...), m.Outputs...) {
		if err := tensor(i); err != nil {
			return err
		}
	}
	for _, op := range m.Operators {
		if int(op.Opcode) >= len(m.OperatorCodes) {
			return zorros.Errorf("opcode index %d out of range", op.Opcode)
		}
		for _, i := range append(append([]int32{}, op.Inputs...), op.Outputs...) {
			if i < 0 {
				continue // optional input
			}
			if err := tensor(i); err != nil {
				return err
			}
		}
	}
	return nil
}
