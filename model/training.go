package model

import (
	"fmt"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/zorros/zorros"
	"go-ml.dev/pkg/zorros/zlog"
	"time"
)

/*
Epoch is the record of one training iteration
*/
type Epoch struct {
	Iteration   int
	Train, Test Scores
	Elapsed     time.Duration
}

/*
Journal receives every completed iteration, it's where the training history is staged
*/
type Journal interface {
	Record(Epoch) error
}

/*
Training is the default implementation of unified training interface.
It always runs all iterations, there is no early stopping and no checkpointing.
*/
type Training struct {
	Iterations int          // count of passes over the training data
	Metrics    Metrics      // evaluating metrics
	Score      Score        // score function, LossScore by default
	Journal    Journal      // optional history backend
	ModelFile  ModelOutput  // files to store the final model, nothing is stored if nil
	Verbose    func(string) // print function
}

type training struct {
	Training
	done bool
}

type workout struct {
	iteration int
	training  *training
	started   time.Time
	perflog   []Epoch
	scorlog   []float64
}

func (t Training) Workout() Workout {
	x := &training{Training: t}
	if x.Metrics == nil {
		x.Metrics = Regression{}
	}
	if x.Score == nil {
		x.Score = LossScore
	}
	return &workout{iteration: 0, training: x, started: time.Now()}
}

func (w *workout) Iteration() int {
	return w.iteration
}

func (w *workout) TrainMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TrainSubset)
}

func (w *workout) TestMetrics() MetricsUpdater {
	return w.training.Metrics.New(w.iteration, TestSubset)
}

func (w *workout) report(m Memorizer) (report *Report, err error) {
	report = &Report{History: w.perflog}
	last := len(w.perflog) - 1
	if last < 0 {
		return
	}
	losses := make([]float64, len(w.perflog))
	for i, e := range w.perflog {
		losses[i] = e.Test.Loss
	}
	report.TheBest = fu.Indmind(losses)
	report.Train = w.perflog[last].Train
	report.Test = w.perflog[last].Test
	report.Score = w.scorlog[last]
	if w.training.ModelFile != nil && m != nil {
		if err = m.Memorize(w.training.ModelFile); err != nil {
			err = zorros.Wrapf(err, "failed to store model: %v", err.Error())
		}
	}
	return
}

func (w *workout) Complete(m Memorizer, train, test Scores) (report *Report, done bool, err error) {
	maxiter := fu.Maxi(w.training.Iterations, 1)
	epoch := Epoch{Iteration: w.iteration, Train: train, Test: test, Elapsed: time.Since(w.started)}
	w.scorlog = append(w.scorlog, w.training.Score(train, test))
	w.perflog = append(w.perflog, epoch)
	if w.training.Journal != nil {
		if e := w.training.Journal.Record(epoch); e != nil {
			err = zorros.Trace(e)
			return
		}
	}
	n := w.training.Metrics.Names()
	w.Verbose(fmt.Sprintf(
		"Epoch %d/%d - %.0fs - %s: %.4f - %s: %.4f - val_%s: %.4f - val_%s: %.4f",
		w.iteration+1, maxiter, epoch.Elapsed.Seconds(),
		n[0], train.Loss, n[1], train.Error, n[0], test.Loss, n[1], test.Error))
	if w.iteration == maxiter-1 {
		w.training.done = true
		done = true
		report, err = w.report(m)
	}
	return
}

func (w *workout) Verbose(s string) {
	if w.training.Verbose != nil {
		w.training.Verbose(s)
	}
}

func (w *workout) Next() Workout {
	if w.training.done {
		zlog.Warning("training is already done")
		return nil
	}
	return &workout{
		iteration: w.iteration + 1,
		training:  w.training,
		started:   time.Now(),
		scorlog:   w.scorlog,
		perflog:   w.perflog,
	}
}
