package tflite

import (
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/fu"
	"iter"
)

// DefaultCalibration is the count of training rows used to calibrate int8 ranges
const DefaultCalibration = 500

/*
RepresentativeDataset yields the first min(limit, N) rows of d one at a time as float32 vectors
*/
func RepresentativeDataset(d *dataset.Dataset, limit int) func() iter.Seq[[]float32] {
	n := fu.Mini(fu.Fnzi(limit, DefaultCalibration), d.Len())
	return func() iter.Seq[[]float32] {
		return func(yield func([]float32) bool) {
			for i := 0; i < n; i++ {
				if !yield(d.Floats(i)) {
					return
				}
			}
		}
	}
}
