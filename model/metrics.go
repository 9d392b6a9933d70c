package model

import (
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/zorros/zorros"
	"math"
)

const (
	TrainSubset = "train"
	TestSubset  = "test"
)

/*
Scores are regression metrics collected over one subset in one iteration
*/
type Scores struct {
	Loss  float64 // mean squared error
	Error float64 // mean absolute error
	Count int
}

/*
MetricsUpdater collects predictions of one iteration
*/
type MetricsUpdater interface {
	Update(result, label float64)
	Complete() Scores
}

/*
Metrics creates updaters for every iteration and subset
*/
type Metrics interface {
	New(iteration int, subset string) MetricsUpdater
	// Names of the loss and the error metric as they are printed
	Names() []string
}

/*
Regression is the MSE loss plus MAE metric pair
*/
type Regression struct{}

func (Regression) New(int, string) MetricsUpdater {
	return &regressionUpdater{}
}

func (Regression) Names() []string {
	return []string{"loss", "mae"}
}

type regressionUpdater struct {
	se, ae float64
	count  int
}

func (r *regressionUpdater) Update(result, label float64) {
	d := result - label
	r.se += d * d
	r.ae += math.Abs(d)
	r.count++
}

func (r *regressionUpdater) Complete() Scores {
	if r.count == 0 {
		return Scores{}
	}
	return Scores{
		Loss:  r.se / float64(r.count),
		Error: r.ae / float64(r.count),
		Count: r.count,
	}
}

/*
Score function of train/test metrics, greater is better
*/
type Score func(train, test Scores) float64

/*
LossScore prefers lower validation loss
*/
func LossScore(train, test Scores) float64 {
	return -test.Loss
}

/*
Evaluate scores the model over the first limit samples of d, all of them if limit is zero
*/
func Evaluate(m PredictionModel, d *dataset.Dataset, limit int) (Scores, error) {
	if m.Width() != d.Width {
		return Scores{}, zorros.Errorf("model expects %d features, dataset has %d", m.Width(), d.Width)
	}
	u := Regression{}.New(0, TestSubset)
	n := fu.Mini(fu.Fnzi(limit, d.Len()), d.Len())
	for i := 0; i < n; i++ {
		u.Update(float64(m.Predict(d.Floats(i))), float64(d.Targets[i]))
	}
	return u.Complete(), nil
}
