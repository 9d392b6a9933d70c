/*
Package dataset turns a SMILES/logP table into aligned fingerprint and target arrays
*/
package dataset

import (
	"go-ml.dev/pkg/logp/fu"
	"golang.org/x/xerrors"
	"math"
	"math/rand"
)

var ErrEmptySplit = xerrors.New("not enough samples to split into train and validation")

/*
Dataset holds N fingerprints of Width bits in a flat row-major array
and the N labels aligned with them
*/
type Dataset struct {
	Width    int
	Features []uint8
	Targets  []float32
	Rows     int // input rows seen while loading
	Skipped  int // input rows dropped because their SMILES did not parse
}

/*
New creates an empty dataset for vectors of the width
*/
func New(width int) *Dataset {
	return &Dataset{Width: width}
}

/*
Len returns the count of samples
*/
func (d *Dataset) Len() int {
	return len(d.Targets)
}

/*
Append adds one sample, the vector must be Width long
*/
func (d *Dataset) Append(x []uint8, y float32) error {
	if len(x) != d.Width {
		return xerrors.Errorf("feature vector has %d elements, dataset width is %d", len(x), d.Width)
	}
	d.Features = append(d.Features, x...)
	d.Targets = append(d.Targets, y)
	return nil
}

/*
Row returns features of the i-th sample
*/
func (d *Dataset) Row(i int) []uint8 {
	return d.Features[i*d.Width : (i+1)*d.Width]
}

/*
Floats returns features of the i-th sample converted to float32
*/
func (d *Dataset) Floats(i int) []float32 {
	return fu.Bytes2f(d.Row(i))
}

/*
Subset copies samples with given indices into a new dataset
*/
func (d *Dataset) Subset(index []int) *Dataset {
	r := &Dataset{
		Width:    d.Width,
		Features: make([]uint8, 0, len(index)*d.Width),
		Targets:  make([]float32, 0, len(index)),
	}
	for _, i := range index {
		r.Features = append(r.Features, d.Row(i)...)
		r.Targets = append(r.Targets, d.Targets[i])
	}
	return r
}

/*
Split shuffles samples with a seeded permutation and moves ceil(testSize*N) of
them into the validation part, the rest is the training part
*/
func Split(d *Dataset, testSize float64, seed int64) (train, test *Dataset, err error) {
	n := d.Len()
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if n == 0 || nTest <= 0 || nTrain <= 0 {
		return nil, nil, xerrors.Errorf("n_samples=%d, test_size=%v: %w", n, testSize, ErrEmptySplit)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return d.Subset(perm[nTest:]), d.Subset(perm[:nTest]), nil
}
