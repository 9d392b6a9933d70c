package fu

import (
	"gotest.tools/assert"
	"path/filepath"
	"testing"
)

func Test_Metrics(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	b := []float32{1, 1, 5, 4}
	assert.Equal(t, Mean(a), float32(2.5))
	assert.Equal(t, Mse(a, b), float32(1.25))
	assert.Equal(t, Mae(a, b), float32(0.75))
	assert.Equal(t, Mean(nil), float32(0))
}

func Test_Minmax(t *testing.T) {
	lo, hi := Minmax([]float32{3, -1, 7, 2})
	assert.Equal(t, lo, float32(-1))
	assert.Equal(t, hi, float32(7))
	assert.Equal(t, Maxabs([]float32{3, -9, 7}), float32(9))
}

func Test_Ints(t *testing.T) {
	assert.Equal(t, Fnzi(0, 0, 3, 4), 3)
	assert.Equal(t, Maxi(1, 5, 2), 5)
	assert.Equal(t, Mini(4, 5, 2), 2)
	assert.Equal(t, Indmind([]float64{3, 1, 2, 1}), 1)
	assert.Equal(t, Indmind(nil), -1)
}

func Test_ModelPath(t *testing.T) {
	assert.Equal(t, ModelPath("artifacts", "m.tflite"), filepath.Join("artifacts", "m.tflite"))
	abs, _ := filepath.Abs("x")
	assert.Equal(t, ModelPath("artifacts", abs), abs)
	assert.DeepEqual(t, Flatnr([][]float32{{1}, {2, 3}}), []float32{1, 2, 3})
	assert.DeepEqual(t, Bytes2f([]uint8{0, 1}), []float32{0, 1})
}
