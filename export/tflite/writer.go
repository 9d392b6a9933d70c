package tflite

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

type writer struct {
	b *flatbuffers.Builder
}

func (w writer) int32s(a []int32) flatbuffers.UOffsetT {
	w.b.StartVector(4, len(a), 4)
	for i := len(a) - 1; i >= 0; i-- {
		w.b.PrependInt32(a[i])
	}
	return w.b.EndVector(len(a))
}

func (w writer) int64s(a []int64) flatbuffers.UOffsetT {
	w.b.StartVector(8, len(a), 8)
	for i := len(a) - 1; i >= 0; i-- {
		w.b.PrependInt64(a[i])
	}
	return w.b.EndVector(len(a))
}

func (w writer) float32s(a []float32) flatbuffers.UOffsetT {
	w.b.StartVector(4, len(a), 4)
	for i := len(a) - 1; i >= 0; i-- {
		w.b.PrependFloat32(a[i])
	}
	return w.b.EndVector(len(a))
}

func (w writer) tables(a []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	w.b.StartVector(4, len(a), 4)
	for i := len(a) - 1; i >= 0; i-- {
		w.b.PrependUOffsetT(a[i])
	}
	return w.b.EndVector(len(a))
}

// buffer data is 16 bytes aligned so kernels may read it in place
func (w writer) data(a []byte) flatbuffers.UOffsetT {
	w.b.StartVector(1, len(a), 16)
	for i := len(a) - 1; i >= 0; i-- {
		w.b.PrependByte(a[i])
	}
	return w.b.EndVector(len(a))
}

func (w writer) quantization(q *Quantization) flatbuffers.UOffsetT {
	var min, max, scale, zp flatbuffers.UOffsetT
	if len(q.Min) > 0 {
		min = w.float32s(q.Min)
	}
	if len(q.Max) > 0 {
		max = w.float32s(q.Max)
	}
	if len(q.Scale) > 0 {
		scale = w.float32s(q.Scale)
	}
	if len(q.ZeroPoint) > 0 {
		zp = w.int64s(q.ZeroPoint)
	}
	b := w.b
	b.StartObject(7)
	b.PrependUOffsetTSlot(0, min, 0)
	b.PrependUOffsetTSlot(1, max, 0)
	b.PrependUOffsetTSlot(2, scale, 0)
	b.PrependUOffsetTSlot(3, zp, 0)
	b.PrependInt32Slot(6, 0, 0)
	return b.EndObject()
}

func (w writer) tensor(t Tensor) flatbuffers.UOffsetT {
	name := w.b.CreateString(t.Name)
	shape := w.int32s(t.Shape)
	var quant flatbuffers.UOffsetT
	if t.Quantization != nil {
		quant = w.quantization(t.Quantization)
	}
	b := w.b
	b.StartObject(5)
	b.PrependUOffsetTSlot(0, shape, 0)
	b.PrependByteSlot(1, byte(t.Type), 0)
	b.PrependUint32Slot(2, t.Buffer, 0)
	b.PrependUOffsetTSlot(3, name, 0)
	b.PrependUOffsetTSlot(4, quant, 0)
	return b.EndObject()
}

func (w writer) operator(op Operator, builtin BuiltinOperator) flatbuffers.UOffsetT {
	inputs := w.int32s(op.Inputs)
	outputs := w.int32s(op.Outputs)
	b := w.b
	var options flatbuffers.UOffsetT
	optionsType := optionsNone
	if builtin == OpFullyConnected {
		b.StartObject(4)
		b.PrependByteSlot(0, byte(op.Activation), 0)
		b.PrependBoolSlot(2, false, false)
		b.PrependBoolSlot(3, false, false)
		options = b.EndObject()
		optionsType = optionsFullyConnected
	}
	b.StartObject(5)
	b.PrependUint32Slot(0, op.Opcode, 0)
	b.PrependUOffsetTSlot(1, inputs, 0)
	b.PrependUOffsetTSlot(2, outputs, 0)
	b.PrependByteSlot(3, optionsType, 0)
	b.PrependUOffsetTSlot(4, options, 0)
	return b.EndObject()
}

func (w writer) operatorCode(c OperatorCode) flatbuffers.UOffsetT {
	b := w.b
	b.StartObject(4)
	deprecated := int8(127) // PLACEHOLDER_FOR_GREATER_OP_CODES
	if c.Builtin < 127 {
		deprecated = int8(c.Builtin)
	}
	b.PrependInt8Slot(0, deprecated, 0)
	b.PrependInt32Slot(2, c.Version, 1)
	b.PrependInt32Slot(3, int32(c.Builtin), 0)
	return b.EndObject()
}

/*
Marshal serializes the model into a TFLite flatbuffer with the TFL3 identifier
*/
func (m *Model) Marshal() []byte {
	w := writer{b: flatbuffers.NewBuilder(1024)}
	b := w.b

	buffers := make([]flatbuffers.UOffsetT, len(m.Buffers))
	for i, data := range m.Buffers {
		var d flatbuffers.UOffsetT
		if len(data) > 0 {
			d = w.data(data)
		}
		b.StartObject(1)
		b.PrependUOffsetTSlot(0, d, 0)
		buffers[i] = b.EndObject()
	}
	buffersVec := w.tables(buffers)

	tensors := make([]flatbuffers.UOffsetT, len(m.Tensors))
	for i, t := range m.Tensors {
		tensors[i] = w.tensor(t)
	}
	tensorsVec := w.tables(tensors)

	ops := make([]flatbuffers.UOffsetT, len(m.Operators))
	for i, op := range m.Operators {
		ops[i] = w.operator(op, m.Builtin(op))
	}
	opsVec := w.tables(ops)
	inputs := w.int32s(m.Inputs)
	outputs := w.int32s(m.Outputs)
	sgName := b.CreateString(m.Subgraph)

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, tensorsVec, 0)
	b.PrependUOffsetTSlot(1, inputs, 0)
	b.PrependUOffsetTSlot(2, outputs, 0)
	b.PrependUOffsetTSlot(3, opsVec, 0)
	b.PrependUOffsetTSlot(4, sgName, 0)
	subgraph := b.EndObject()
	subgraphs := w.tables([]flatbuffers.UOffsetT{subgraph})

	codes := make([]flatbuffers.UOffsetT, len(m.OperatorCodes))
	for i, c := range m.OperatorCodes {
		codes[i] = w.operatorCode(c)
	}
	codesVec := w.tables(codes)
	desc := b.CreateString(m.Description)

	b.StartObject(5)
	b.PrependUint32Slot(0, m.Version, 0)
	b.PrependUOffsetTSlot(1, codesVec, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	b.PrependUOffsetTSlot(3, desc, 0)
	b.PrependUOffsetTSlot(4, buffersVec, 0)
	root := b.EndObject()
	b.FinishWithFileIdentifier(root, []byte(FileIdentifier))
	return b.FinishedBytes()
}
