package dense

import (
	"fmt"
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/logp/model"
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
	"math"
	"math/rand"
)

/*
Regressor is the hungry dense model, it is fattened by a dataset and trained by model.Training.
The trained network is memorized into Training.ModelFile and can be restored with Load.
*/
type Regressor struct {
	Hidden       []int   // hidden layer sizes, DefaultHidden if empty
	BatchSize    int     // samples per gradient step, 32 by default
	LearningRate float64 // Adam learning rate, 1e-3 by default
	Seed         int64   // seeds weights initialisation and epoch shuffling
}

var (
	_ model.HungryModel     = Regressor{}
	_ model.PredictionModel = (*Network)(nil)
	_ model.Memorizer       = (*Network)(nil)
)

func (r Regressor) hidden() []int {
	if len(r.Hidden) == 0 {
		return DefaultHidden
	}
	return r.Hidden
}

/*
Params returns hyper-parameters of the regressor with defaults resolved
*/
func (r Regressor) Params() model.Params {
	hidden := r.hidden()
	p := model.Params{
		"batch_size":    float64(fu.Fnzi(r.BatchSize, 32)),
		"learning_rate": r.LearningRate,
		"seed":          float64(r.Seed),
		"hidden_layers": float64(len(hidden)),
	}
	if r.LearningRate == 0 {
		p["learning_rate"] = 1e-3
	}
	for i, u := range hidden {
		p[fmt.Sprintf("hidden_%d", i)] = float64(u)
	}
	return p
}

/*
Feed binds the regressor to a dataset
*/
func (r Regressor) Feed(ds model.Dataset) model.FatModel {
	return func(workout model.Workout) (*model.Report, error) {
		return r.fit(ds, workout)
	}
}

func (r Regressor) fit(ds model.Dataset, w model.Workout) (*model.Report, error) {
	train, test := ds.Source, ds.Test()
	if train == nil || train.Len() == 0 {
		return nil, zorros.Errorf("no samples to train on")
	}
	net := Build(train.Width, r.hidden(), r.Seed)
	tr := &trainer{
		net:   net,
		opt:   NewAdam(r.LearningRate),
		batch: fu.Fnzi(r.BatchSize, 32),
		rng:   rand.New(rand.NewSource(r.Seed)),
	}
	if r.LearningRate == 0 {
		tr.opt.LearningRate = 1e-3
	}
	for w != nil {
		trainScores := tr.epoch(train, w.TrainMetrics())
		if math.IsNaN(trainScores.Loss) {
			return nil, zorros.Errorf("training diverged at epoch %d", w.Iteration()+1)
		}
		testScores, err := evaluate(net, test, tr.batch, w.TestMetrics())
		if err != nil {
			return nil, err
		}
		report, done, err := w.Complete(net, trainScores, testScores)
		if err != nil {
			return nil, err
		}
		if done {
			return report, nil
		}
		w = w.Next()
	}
	return nil, zorros.Errorf("training stopped without a report")
}

func evaluate(net *Network, d *dataset.Dataset, batch int, mu model.MetricsUpdater) (model.Scores, error) {
	p, err := net.PredictDataset(d, batch)
	if err != nil {
		return model.Scores{}, err
	}
	for i, y := range p {
		mu.Update(float64(y), float64(d.Targets[i]))
	}
	return mu.Complete(), nil
}

type trainer struct {
	net   *Network
	opt   *Adam
	batch int
	rng   *rand.Rand
}

// epoch makes one shuffled pass over d, metrics are accumulated from batch predictions
// made before each update
func (t *trainer) epoch(d *dataset.Dataset, mu model.MetricsUpdater) model.Scores {
	perm := t.rng.Perm(d.Len())
	for i := 0; i < len(perm); i += t.batch {
		index := perm[i:fu.Mini(i+t.batch, len(perm))]
		x := Batch(d, index)
		y := make([]float64, len(index))
		for j, k := range index {
			y[j] = float64(d.Targets[k])
		}
		out := t.step(x, y)
		for j := range y {
			mu.Update(out[j], y[j])
		}
	}
	return mu.Complete()
}

// step runs forward and backward passes on one batch and applies Adam updates,
// it returns predictions made before the update
func (t *trainer) step(x *mat.Dense, y []float64) []float64 {
	acts := t.net.Forward(x)
	n := len(y)
	out := acts[len(acts)-1]
	pred := make([]float64, n)
	grad := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		pred[i] = out.At(i, 0)
		grad.Set(i, 0, 2*(pred[i]-y[i])/float64(n))
	}
	t.opt.Step()
	for l := len(t.net.Layers) - 1; l >= 0; l-- {
		layer := t.net.Layers[l]
		if layer.Activation == ReLU {
			gr, a := grad.RawMatrix(), acts[l+1].RawMatrix()
			for i := 0; i < gr.Rows; i++ {
				for j := 0; j < gr.Cols; j++ {
					if a.Data[i*a.Stride+j] <= 0 {
						gr.Data[i*gr.Stride+j] = 0
					}
				}
			}
		}
		gw := &mat.Dense{}
		gw.Mul(acts[l].T(), grad)
		gb := make([]float64, layer.Units())
		gr := grad.RawMatrix()
		for i := 0; i < gr.Rows; i++ {
			for j := range gb {
				gb[j] += gr.Data[i*gr.Stride+j]
			}
		}
		var next *mat.Dense
		if l > 0 {
			next = &mat.Dense{}
			next.Mul(grad, layer.W.T())
		}
		t.opt.Update(layer.W.RawMatrix().Data, gw.RawMatrix().Data)
		t.opt.Update(layer.B, gb)
		grad = next
	}
	return pred
}
