/*
Package tflite converts trained dense networks into TensorFlow Lite flatbuffers,
optionally quantized to int8, and reads them back for inspection and inference.

Only the part of the TFLite schema (version 3) a stack of fully connected
layers needs is implemented: tensors with per-tensor quantization, the
FULLY_CONNECTED, QUANTIZE and DEQUANTIZE builtins and constant buffers.
*/
package tflite

import (
	"fmt"
)

const (
	SchemaVersion  = 3
	FileIdentifier = "TFL3"
)

/*
TensorType is the element type of a tensor
*/
type TensorType int8

const (
	Float32 TensorType = 0
	Int32   TensorType = 2
	Uint8   TensorType = 3
	Int8    TensorType = 9
)

func (t TensorType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	}
	return fmt.Sprintf("type(%d)", int8(t))
}

// Size returns the element size in bytes
func (t TensorType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	default:
		return 4
	}
}

/*
BuiltinOperator is a builtin op code
*/
type BuiltinOperator int32

const (
	OpDequantize     BuiltinOperator = 6
	OpFullyConnected BuiltinOperator = 9
	OpQuantize       BuiltinOperator = 114
)

func (op BuiltinOperator) String() string {
	switch op {
	case OpDequantize:
		return "DEQUANTIZE"
	case OpFullyConnected:
		return "FULLY_CONNECTED"
	case OpQuantize:
		return "QUANTIZE"
	}
	return fmt.Sprintf("OP(%d)", int32(op))
}

/*
Activation is the fused activation function of an op
*/
type Activation int8

const (
	ActNone Activation = 0
	ActRelu Activation = 1
)

func (a Activation) String() string {
	if a == ActRelu {
		return "RELU"
	}
	return "NONE"
}

// union tags of BuiltinOptions
const (
	optionsNone           byte = 0
	optionsFullyConnected byte = 8
)

/*
Quantization holds per-tensor affine parameters, real = scale * (q - zero_point)
*/
type Quantization struct {
	Min, Max  []float32
	Scale     []float32
	ZeroPoint []int64
}

func (q *Quantization) params() (float32, int64) {
	if q == nil || len(q.Scale) == 0 {
		return 0, 0
	}
	var zp int64
	if len(q.ZeroPoint) > 0 {
		zp = q.ZeroPoint[0]
	}
	return q.Scale[0], zp
}

/*
Tensor is a subgraph tensor, Buffer 0 means the tensor has no constant data
*/
type Tensor struct {
	Name         string
	Type         TensorType
	Shape        []int32
	Buffer       uint32
	Quantization *Quantization
}

// Elements returns the product of dimensions
func (t Tensor) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

/*
OperatorCode maps an opcode index of operators to a builtin
*/
type OperatorCode struct {
	Builtin BuiltinOperator
	Version int32
}

/*
Operator is one node of the subgraph
*/
type Operator struct {
	Opcode     uint32
	Inputs     []int32
	Outputs    []int32
	Activation Activation
}

/*
Model is a single-subgraph TFLite model
*/
type Model struct {
	Version       uint32
	Description   string
	OperatorCodes []OperatorCode
	Subgraph      string
	Tensors       []Tensor
	Inputs        []int32
	Outputs       []int32
	Operators     []Operator
	Buffers       [][]byte // Buffers[0] is always empty
}

/*
Input returns the first subgraph input tensor
*/
func (m *Model) Input() Tensor {
	return m.Tensors[m.Inputs[0]]
}

/*
Output returns the first subgraph output tensor
*/
func (m *Model) Output() Tensor {
	return m.Tensors[m.Outputs[0]]
}

/*
Builtin returns the builtin operator of op
*/
func (m *Model) Builtin(op Operator) BuiltinOperator {
	return m.OperatorCodes[op.Opcode].Builtin
}

func (m *Model) opcode(op BuiltinOperator, version int32) uint32 {
	for i, c := range m.OperatorCodes {
		if c.Builtin == op {
			return uint32(i)
		}
	}
	m.OperatorCodes = append(m.OperatorCodes, OperatorCode{Builtin: op, Version: version})
	return uint32(len(m.OperatorCodes) - 1)
}

func (m *Model) addTensor(t Tensor) int32 {
	m.Tensors = append(m.Tensors, t)
	return int32(len(m.Tensors) - 1)
}

func (m *Model) addBuffer(data []byte) uint32 {
	m.Buffers = append(m.Buffers, data)
	return uint32(len(m.Buffers) - 1)
}
