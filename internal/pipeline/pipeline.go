/*
Package pipeline trains the logP regressor from a SMILES table and exports it as a TFLite model
*/
package pipeline

import (
	"fmt"
	"github.com/gofrs/flock"
	"github.com/klauspost/cpuid/v2"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/chem/morgan"
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/export/tflite"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/logp/internal/config"
	"go-ml.dev/pkg/logp/model"
	"go-ml.dev/pkg/logp/model/dense"
	"go-ml.dev/pkg/zorros/zorros"
	"go-ml.dev/pkg/zorros/zlog"
	"gopkg.in/yaml.v3"
	"path/filepath"
	"runtime"
	"time"
)

/*
Result describes produced artifacts
*/
type Result struct {
	ModelDir   string
	TFLitePath string
	HeaderPath string // empty unless a C header was requested
	Size       int    // bytes of the TFLite model
	Rows       int
	Skipped    int
	Train      int
	Test       int
	Run        int64 // history run id, 0 without history
	Report     *model.Report
	Check      *Check // converted model evaluated on validation rows
}

// CheckRows is the count of validation rows the converted model is evaluated on
const CheckRows = 1000

/*
Check compares the converted model against validation labels and the mean-label baseline
*/
type Check struct {
	Rows     int
	Mse, Mae float32
	Float    float32 // MAE of the float network before conversion
	Baseline float32 // MAE of always predicting the mean training label
}

/*
Evaluate runs the TFLite model over the first limit rows of test, float is the network it was converted from
*/
func Evaluate(buf []byte, float model.PredictionModel, train, test *dataset.Dataset, limit int) (*Check, error) {
	in, err := tflite.NewInterpreter(buf)
	if err != nil {
		return nil, err
	}
	n := fu.Mini(limit, test.Len())
	pred := make([]float32, n)
	for i := range pred {
		if pred[i], err = in.Predict(test.Floats(i)); err != nil {
			return nil, err
		}
	}
	labels := test.Targets[:n]
	mean := make([]float32, n)
	m := fu.Mean(train.Targets)
	for i := range mean {
		mean[i] = m
	}
	ref, err := model.Evaluate(float, test, n)
	if err != nil {
		return nil, err
	}
	return &Check{
		Rows:     n,
		Mse:      fu.Mse(pred, labels),
		Mae:      fu.Mae(pred, labels),
		Float:    float32(ref.Error),
		Baseline: fu.Mae(mean, labels),
	}, nil
}

/*
Pipeline is the training and export job, Verbose receives progress lines
*/
type Pipeline struct {
	Config  config.Config
	Verbose func(string)
}

/*
Run executes the pipeline with cfg and no progress output
*/
func Run(cfg config.Config) (*Result, error) {
	return Pipeline{Config: cfg}.Run()
}

func (p Pipeline) verbose(format string, a ...interface{}) {
	if p.Verbose != nil {
		p.Verbose(fmt.Sprintf(format, a...))
	}
}

/*
Lock takes the advisory lock of the artifacts directory, waiting up to timeout
*/
func Lock(artifacts string, timeout time.Duration) (func(), error) {
	path := filepath.Join(artifacts, config.LockFile)
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	warned := false
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, zorros.Wrapf(err, "cannot acquire artifacts lock: %v", err.Error())
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, zorros.Errorf("another run is in progress (lock: %v)", path)
		}
		if !warned {
			zlog.Warning(fmt.Sprintf("waiting for %v", path))
			warned = true
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func (p Pipeline) host() {
	p.verbose("Host: %v, %d logical cores (%s/%s), AVX2: %v, GOMAXPROCS: %d",
		cpuid.CPU.BrandName, cpuid.CPU.LogicalCores, runtime.GOOS, runtime.GOARCH,
		cpuid.CPU.Supports(cpuid.AVX2), runtime.GOMAXPROCS(0))
}

/*
Run executes load, split, train, save, convert and write steps in order
*/
func (p Pipeline) Run() (*Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	artifacts, err := fu.EnsureDir(cfg.Artifacts)
	if err != nil {
		return nil, zorros.Wrapf(err, "cannot create artifacts directory %v: %v", cfg.Artifacts, err.Error())
	}
	unlock, err := Lock(artifacts, cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()
	p.host()

	ds, err := dataset.Load(cfg.DataPath, cfg.Bits, morgan.Featurizer(cfg.Radius, cfg.Bits))
	if err != nil {
		return nil, err
	}
	if ds.Skipped > 0 {
		zlog.Warning(fmt.Sprintf("skipped %d of %d rows with unparseable SMILES", ds.Skipped, ds.Rows))
	}
	p.verbose("Loaded %d molecules from %v", ds.Len(), cfg.DataPath)
	train, test, err := dataset.Split(ds, cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, err
	}
	r := &Result{Rows: ds.Rows, Skipped: ds.Skipped, Train: train.Len(), Test: test.Len()}

	var journal model.Journal
	if cfg.History {
		h, j, err := p.history(artifacts, r)
		if err != nil {
			zlog.Warning(fmt.Sprintf("training history is unavailable: %v", err.Error()))
		} else {
			defer h.Close()
			journal, r.Run = j, j.Run
		}
	}

	r.ModelDir = fu.ModelPath(artifacts, config.ModelDir)
	r.Report, err = p.regressor().
		Feed(model.Dataset{Source: train, Validation: test}).
		Train(model.Training{
			Iterations: cfg.Epochs,
			Journal:    journal,
			ModelFile:  model.ModelDir(r.ModelDir),
			Verbose:    p.Verbose,
		})
	if err != nil {
		return nil, err
	}

	conv, err := tflite.FromSavedModel(r.ModelDir)
	if err != nil {
		return nil, err
	}
	Configure(conv, cfg, train)
	buf, err := conv.Convert()
	if err != nil {
		return nil, err
	}
	r.Size = len(buf)
	if r.Check, err = Evaluate(buf, conv.Network, train, test, CheckRows); err != nil {
		return nil, err
	}
	p.verbose("TFLite model: %d bytes, val_loss: %.4f - val_mae: %.4f (float mae: %.4f, mean baseline mae: %.4f, %d rows)",
		r.Size, r.Check.Mse, r.Check.Mae, r.Check.Float, r.Check.Baseline, r.Check.Rows)
	r.TFLitePath = fu.ModelPath(artifacts, config.TFLiteFile)
	if err = iokit.File(r.TFLitePath).WriteAll(buf); err != nil {
		return nil, zorros.Wrapf(err, "failed to write %v: %v", r.TFLitePath, err.Error())
	}
	if cfg.CHeader {
		r.HeaderPath = fu.ModelPath(artifacts, config.HeaderFile)
		if err = WriteHeader(iokit.File(r.HeaderPath), buf); err != nil {
			return nil, err
		}
	}
	return r, nil
}

/*
Configure sets quantization options of the converter, train rows calibrate int8 ranges
*/
func Configure(conv *tflite.Converter, cfg config.Config, train *dataset.Dataset) {
	conv.Optimizations = []tflite.Optimization{tflite.OptimizeDefault}
	if cfg.Int8 {
		conv.RepresentativeDataset = tflite.RepresentativeDataset(train, cfg.Calibration)
		conv.SupportedOps = []tflite.OpsSet{tflite.BuiltinsInt8}
		conv.InferenceInputType = tflite.Int8
		conv.InferenceOutputType = tflite.Int8
	}
}

/*
WriteHeader writes the TFLite model as model_data.h for the micro inference skeleton,
the file is removed if writing fails
*/
func WriteHeader(out iokit.Output, buf []byte) error {
	wh, err := out.Create()
	if err != nil {
		return zorros.Trace(err)
	}
	defer wh.End()
	if err = tflite.WriteCHeader(wh, buf, "g_model_data"); err != nil {
		return err
	}
	if err = wh.Commit(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

func (p Pipeline) regressor() dense.Regressor {
	return dense.Regressor{
		Hidden:       p.Config.Hidden,
		BatchSize:    p.Config.BatchSize,
		LearningRate: p.Config.LearningRate,
		Seed:         p.Config.Seed,
	}
}

func (p Pipeline) history(artifacts string, r *Result) (*model.History, *model.RunJournal, error) {
	h, err := model.OpenHistory(fu.ModelPath(artifacts, config.HistoryFile))
	if err != nil {
		return nil, nil, err
	}
	hp := p.regressor().Params()
	hp["fingerprint_bits"] = float64(p.Config.Bits)
	hp["fingerprint_radius"] = float64(p.Config.Radius)
	hp["epochs"] = float64(p.Config.Epochs)
	hp["test_size"] = p.Config.TestSize
	params, err := yaml.Marshal(hp)
	if err != nil {
		h.Close()
		return nil, nil, zorros.Trace(err)
	}
	j, err := h.Begin(model.RunInfo{
		Source:  p.Config.DataPath,
		Rows:    r.Rows,
		Skipped: r.Skipped,
		Train:   r.Train,
		Test:    r.Test,
		Seed:    p.Config.Seed,
		Params:  string(params),
	})
	if err != nil {
		h.Close()
		return nil, nil, err
	}
	return h, j, nil
}
