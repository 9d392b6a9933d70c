package model

import (
	"go-ml.dev/pkg/logp/dataset"
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memo struct{ stored int }

func (m *memo) Memorize(out ModelOutput) error {
	m.stored++
	w, err := out.File("model").Create()
	if err != nil {
		return err
	}
	defer w.End()
	if _, err = w.Write([]byte("ok")); err != nil {
		return err
	}
	return w.Commit()
}

// fake model with validation loss going down then up
func fake(m *memo, losses []float64) FatModel {
	return func(w Workout) (*Report, error) {
		for w != nil {
			tm := w.TrainMetrics()
			tm.Update(1, 0)
			vm := w.TestMetrics()
			vm.Update(losses[w.Iteration()], 0)
			r, done, err := w.Complete(m, tm.Complete(), vm.Complete())
			if err != nil || done {
				return r, err
			}
			w = w.Next()
		}
		return nil, nil
	}
}

func Test_TrainingRunsAllIterations(t *testing.T) {
	m := &memo{}
	dir := filepath.Join(t.TempDir(), "model")
	var lines []string
	r, err := fake(m, []float64{3, 2, 1, 2, 3}).Train(Training{
		Iterations: 5,
		ModelFile:  ModelDir(dir),
		Verbose:    func(s string) { lines = append(lines, s) },
	})
	assert.NilError(t, err)
	assert.Equal(t, len(r.History), 5)
	assert.Equal(t, r.TheBest, 2)
	assert.Equal(t, r.Test.Loss, 9.0)
	assert.Equal(t, r.Test.Error, 3.0)
	assert.Equal(t, r.Train.Loss, 1.0)
	assert.Equal(t, r.Score, -9.0)
	assert.Equal(t, m.stored, 1)
	bs, err := os.ReadFile(filepath.Join(dir, "model"))
	assert.NilError(t, err)
	assert.Equal(t, string(bs), "ok")
	assert.Equal(t, len(lines), 5)
	assert.Assert(t, strings.HasPrefix(lines[0], "Epoch 1/5 - "))
	assert.Assert(t, strings.Contains(lines[4], "val_loss: 9.0000 - val_mae: 3.0000"))
}

func Test_TrainingWithoutModelDir(t *testing.T) {
	m := &memo{}
	r := fake(m, []float64{1}).LuckyTrain(Training{})
	assert.Equal(t, len(r.History), 1)
	assert.Equal(t, m.stored, 0)
}

type percents struct{ Regression }

func (percents) Names() []string { return []string{"mse", "mape"} }

func Test_TrainingMetricNames(t *testing.T) {
	var lines []string
	fake(&memo{}, []float64{4}).LuckyTrain(Training{
		Metrics: percents{},
		Verbose: func(s string) { lines = append(lines, s) },
	})
	assert.Equal(t, len(lines), 1)
	assert.Assert(t, strings.HasSuffix(lines[0], "mse: 1.0000 - mape: 1.0000 - val_mse: 16.0000 - val_mape: 4.0000"), lines[0])
}

type constant struct {
	width int
	value float32
}

func (c constant) Width() int                { return c.width }
func (c constant) Predict([]float32) float32 { return c.value }

func Test_Evaluate(t *testing.T) {
	d := dataset.New(2)
	for _, y := range []float32{1, 2, 3, 6} {
		assert.NilError(t, d.Append([]uint8{1, 0}, y))
	}
	s, err := Evaluate(constant{2, 2}, d, 0)
	assert.NilError(t, err)
	assert.Equal(t, s.Count, 4)
	assert.Equal(t, s.Loss, 4.5)
	assert.Equal(t, s.Error, 1.5)
	s, err = Evaluate(constant{2, 2}, d, 2)
	assert.NilError(t, err)
	assert.Equal(t, s.Count, 2)
	assert.Equal(t, s.Error, 0.5)
	_, err = Evaluate(constant{3, 2}, d, 0)
	assert.ErrorContains(t, err, "features")
}

func Test_HistoryJournal(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	assert.NilError(t, err)
	defer h.Close()
	last, err := h.LastRun()
	assert.NilError(t, err)
	assert.Equal(t, last, int64(0))
	j, err := h.Begin(RunInfo{Source: "test.csv", Rows: 10, Skipped: 1, Train: 8, Test: 1, Seed: 42, Params: "lr: 0.01\nbatch_size: 32\n"})
	assert.NilError(t, err)
	_, err = fake(&memo{}, []float64{3, 2, 1}).Train(Training{Iterations: 3, Journal: j})
	assert.NilError(t, err)
	last, err = h.LastRun()
	assert.NilError(t, err)
	assert.Equal(t, last, j.Run)
	epochs, err := h.Epochs(j.Run)
	assert.NilError(t, err)
	assert.Equal(t, len(epochs), 3)
	assert.Equal(t, epochs[1].Iteration, 1)
	assert.Equal(t, epochs[1].Test.Loss, 4.0)
	assert.Equal(t, epochs[2].Test.Error, 1.0)
	p, err := h.Params(j.Run)
	assert.NilError(t, err)
	assert.Equal(t, p.Get("lr", 1), 0.01)
	assert.Equal(t, p.Get("batch_size", 0), 32.0)
	assert.Equal(t, p.Get("epochs", 20), 20.0)
	_, err = h.Params(j.Run + 1)
	assert.ErrorContains(t, err, "no run")
}

func Test_Regression(t *testing.T) {
	u := Regression{}.New(0, TestSubset)
	u.Update(1, 2)
	u.Update(3, 1)
	s := u.Complete()
	assert.Equal(t, s.Loss, 2.5)
	assert.Equal(t, s.Error, 1.5)
	assert.Equal(t, s.Count, 2)
	assert.DeepEqual(t, Regression{}.Names(), []string{"loss", "mae"})
	assert.Equal(t, Params{"lr": 0.1}.Get("lr", 1), 0.1)
	assert.Equal(t, Params{}.Get("lr", 1), 1.0)
}
