package model

import (
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
	"path/filepath"
)

/*
HungryModel is an ML algorithm grows from a data to predict something
Needs to be fattened by Feed method to fit.
*/
type HungryModel interface {
	Feed(Dataset) FatModel
}

/*
Report is an ML training report
*/
type Report struct {
	History     []Epoch // all iterations history
	TheBest     int     // the iteration with the lowest validation loss
	Test, Train Scores  // the final iteration metrics
	Score       float64 // the final iteration score
}

/*
Workout is a training iteration abstraction
*/
type Workout interface {
	Iteration() int
	TrainMetrics() MetricsUpdater
	TestMetrics() MetricsUpdater
	Complete(m Memorizer, train, test Scores) (*Report, bool, error)
	Next() Workout
	Verbose(string)
}

/*
UnifiedTraining is an interface allowing to write any logging/staging backend for ML training
*/
type UnifiedTraining interface {
	// Workout returns the first iteration workout
	Workout() Workout
}

/*
FatModel is fattened model (a training function of model instance bounded to a dataset)
*/
type FatModel func(workout Workout) (*Report, error)

/*
Train a fattened (Fat) model
*/
func (f FatModel) Train(training UnifiedTraining) (*Report, error) {
	w := training.Workout()
	if c, ok := w.(io.Closer); ok {
		defer c.Close()
	}
	return f(w)
}

/*
LuckyTrain trains fattened (Fat) model and trows any occurred errors as a panic
*/
func (f FatModel) LuckyTrain(training UnifiedTraining) *Report {
	m, err := f.Train(training)
	if err != nil {
		panic(zorros.Panic(err))
	}
	return m
}

/*
Memorizer is a trained model able to persist itself as a set of named files
*/
type Memorizer interface {
	Memorize(out ModelOutput) error
}

/*
ModelOutput gives the output of every file of a stored model
*/
type ModelOutput interface {
	File(name string) iokit.Output
}

/*
ModelDir stores model files into the directory, it's created when needed
*/
type ModelDir string

func (d ModelDir) File(name string) iokit.Output {
	return iokit.File(filepath.Join(string(d), name))
}

/*
PredictionModel is a predictor interface
*/
type PredictionModel interface {
	// Width of the features vector model expects
	Width() int
	// Predict maps one features vector to the predicted value
	Predict(features []float32) float32
}

/*
Params is a set of hyper-parameters used to generate new model
*/
type Params map[string]float64

/*
Get value of the parameter by name if exists and dflt value otherwise
*/
func (p Params) Get(name string, dflt float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return dflt
}
