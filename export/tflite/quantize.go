package tflite

import (
	"encoding/binary"
	"go-ml.dev/pkg/logp/fu"
	"math"
)

const (
	qmin = -128
	qmax = 127
)

/*
symmetric returns int8 per-tensor parameters of a weights tensor, zero point is always 0
*/
func symmetric(a []float32) *Quantization {
	scale := fu.Maxabs(a) / qmax
	if scale == 0 {
		scale = 1
	}
	lo, hi := fu.Minmax(a)
	return &Quantization{Min: []float32{lo}, Max: []float32{hi}, Scale: []float32{scale}, ZeroPoint: []int64{0}}
}

/*
asymmetric returns int8 per-tensor parameters of an activation range, the range is widened to contain 0
*/
func asymmetric(lo, hi float32) *Quantization {
	lo = float32(math.Min(float64(lo), 0))
	hi = float32(math.Max(float64(hi), 0))
	scale := (hi - lo) / (qmax - qmin)
	if scale == 0 {
		scale = 1
	}
	zp := int64(math.Round(float64(qmin - lo/scale)))
	zp = int64(fu.Maxi(qmin, fu.Mini(qmax, int(zp))))
	return &Quantization{Min: []float32{lo}, Max: []float32{hi}, Scale: []float32{scale}, ZeroPoint: []int64{zp}}
}

func clamp8(x float64) int8 {
	return int8(math.Max(qmin, math.Min(qmax, math.Round(x))))
}

func quantizeValue(x float32, scale float32, zp int64) int8 {
	if scale <= 0 {
		return clamp8(float64(zp))
	}
	return clamp8(float64(x)/float64(scale) + float64(zp))
}

func dequantizeValue(q int8, scale float32, zp int64) float32 {
	return scale * float32(int64(q)-zp)
}

func quantize(a []float32, scale float32, zp int64) []int8 {
	r := make([]int8, len(a))
	for i, x := range a {
		r[i] = quantizeValue(x, scale, zp)
	}
	return r
}

func dequantize(a []int8, scale float32, zp int64) []float32 {
	r := make([]float32, len(a))
	for i, q := range a {
		r[i] = dequantizeValue(q, scale, zp)
	}
	return r
}

func int8Bytes(a []int8) []byte {
	b := make([]byte, len(a))
	for i, x := range a {
		b[i] = byte(x)
	}
	return b
}

func bytesInt8(b []byte) []int8 {
	a := make([]int8, len(b))
	for i, x := range b {
		a[i] = int8(x)
	}
	return a
}

func float32Bytes(a []float32) []byte {
	b := make([]byte, 4*len(a))
	for i, x := range a {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func int32Bytes(a []int32) []byte {
	b := make([]byte, 4*len(a))
	for i, x := range a {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(x))
	}
	return b
}

func bytesInt32(b []byte) []int32 {
	a := make([]int32, len(b)/4)
	for i := range a {
		a[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return a
}

func bytesFloat32(b []byte) []float32 {
	a := make([]float32, len(b)/4)
	for i := range a {
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return a
}
