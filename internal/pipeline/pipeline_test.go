package pipeline

import (
	"fmt"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/export/tflite"
	"go-ml.dev/pkg/logp/internal/config"
	"go-ml.dev/pkg/logp/model"
	"golang.org/x/xerrors"
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var (
	heads = []string{"C", "CC", "CCC", "CCCC", "OCC", "NCC", "CC(C)", "FC", "ClC", "CCOC(=O)"}
	cores = []string{"c1ccccc1", "c1ccncc1", "C1CCCCC1", "c1ccoc1", "C1CCNCC1", "c1ccc2ccccc2c1", "C(=O)N", "c1ccsc1", "C1CC1", "c1cc[nH]c1"}
	tails = []string{"", "O", "N", "C(F)(F)F", "Cl", "C#N", "OC", "S", "Br", "C(=O)O"}
)

// writes n synthetic molecules with a made-up logP, bad rows are appended when invalid > 0
func table(t *testing.T, n, invalid int) string {
	path := filepath.Join(t.TempDir(), "zinc.csv")
	b := &strings.Builder{}
	b.WriteString("smiles,logP,qed\n")
	for i := 0; i < n; i++ {
		h, c, l := heads[i%10], cores[i/10%10], tails[i/100%10]
		logp := 0.5*float64(len(h)) + 0.3*float64(len(c)) - 0.2*float64(len(l))
		fmt.Fprintf(b, "%s%s%s,%.3f,0.5\n", h, c, l, logp)
	}
	for i := 0; i < invalid; i++ {
		b.WriteString("C1CC(,1.0,0.5\n")
	}
	assert.NilError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func small(t *testing.T, data string) config.Config {
	cfg := config.Default()
	cfg.DataPath = data
	cfg.Artifacts = filepath.Join(t.TempDir(), "artifacts")
	cfg.Bits = 256
	cfg.Hidden = []int{16, 8}
	cfg.Epochs = 2
	cfg.BatchSize = 64
	cfg.LockTimeout = 300 * time.Millisecond
	return cfg
}

func Test_EndToEnd(t *testing.T) {
	cfg := small(t, table(t, 1000, 3))
	var lines []string
	r, err := Pipeline{Config: cfg, Verbose: func(s string) { lines = append(lines, s) }}.Run()
	assert.NilError(t, err)
	assert.Equal(t, r.Rows, 1003)
	assert.Equal(t, r.Skipped, 3)
	assert.Equal(t, r.Test, 100)
	assert.Equal(t, r.Train, 900)
	assert.Equal(t, len(r.Report.History), 2)
	assert.Equal(t, r.ModelDir, filepath.Join(cfg.Artifacts, "logp_model"))
	assert.Equal(t, r.TFLitePath, filepath.Join(cfg.Artifacts, "logp_model.tflite"))
	assert.Equal(t, r.HeaderPath, "")

	_, err = os.Stat(filepath.Join(r.ModelDir, "model.yaml"))
	assert.NilError(t, err)
	buf, err := os.ReadFile(r.TFLitePath)
	assert.NilError(t, err)
	assert.Assert(t, len(buf) > 0)
	assert.Equal(t, len(buf), r.Size)
	m, err := tflite.Unmarshal(buf)
	assert.NilError(t, err)
	assert.Equal(t, m.Input().Type, tflite.Float32)
	assert.Equal(t, m.Output().Type, tflite.Float32)
	assert.DeepEqual(t, m.Input().Shape, []int32{1, 256})

	assert.Assert(t, strings.HasPrefix(lines[0], "Host: "))
	assert.Assert(t, strings.HasPrefix(lines[len(lines)-2], "Epoch 2/2 - "))
	assert.Assert(t, strings.HasPrefix(lines[len(lines)-1], "TFLite model: "))
	assert.Equal(t, r.Check.Rows, 100)
	assert.Assert(t, r.Check.Mae > 0 && r.Check.Baseline > 0)
	assert.Assert(t, r.Check.Float > 0)

	h, err := model.OpenHistory(filepath.Join(cfg.Artifacts, "history.db"))
	assert.NilError(t, err)
	defer h.Close()
	epochs, err := h.Epochs(r.Run)
	assert.NilError(t, err)
	assert.Equal(t, len(epochs), 2)
	params, err := h.Params(r.Run)
	assert.NilError(t, err)
	assert.Equal(t, params.Get("fingerprint_bits", 0), 256.0)
	assert.Equal(t, params.Get("hidden_0", 0), 16.0)
	assert.Equal(t, params.Get("batch_size", 0), 64.0)
}

func Test_Int8(t *testing.T) {
	cfg := small(t, table(t, 300, 0))
	cfg.Int8 = true
	cfg.Epochs = 1
	cfg.CHeader = true
	cfg.History = false
	r, err := Run(cfg)
	assert.NilError(t, err)
	assert.Equal(t, r.Run, int64(0))
	buf, err := os.ReadFile(r.TFLitePath)
	assert.NilError(t, err)
	m, err := tflite.Unmarshal(buf)
	assert.NilError(t, err)
	assert.Equal(t, m.Input().Type, tflite.Int8)
	assert.Equal(t, m.Output().Type, tflite.Int8)
	h, err := os.ReadFile(r.HeaderPath)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(h), fmt.Sprintf("g_model_data_len = %d;", len(buf))))
	_, err = os.Stat(filepath.Join(cfg.Artifacts, "history.db"))
	assert.Assert(t, os.IsNotExist(err))
}

func Test_AllInvalid(t *testing.T) {
	cfg := small(t, table(t, 0, 5))
	_, err := Run(cfg)
	assert.Assert(t, xerrors.Is(err, dataset.ErrEmptySplit), err)
	_, err = os.Stat(filepath.Join(cfg.Artifacts, "logp_model.tflite"))
	assert.Assert(t, os.IsNotExist(err))
}

func Test_MissingData(t *testing.T) {
	cfg := small(t, filepath.Join(t.TempDir(), "missing.csv"))
	_, err := Run(cfg)
	assert.Assert(t, err != nil)
}

func Test_Locked(t *testing.T) {
	cfg := small(t, table(t, 50, 0))
	assert.NilError(t, os.MkdirAll(cfg.Artifacts, 0o755))
	unlock, err := Lock(cfg.Artifacts, time.Second)
	assert.NilError(t, err)
	_, err = Run(cfg)
	assert.ErrorContains(t, err, "another run is in progress")
	unlock()
	_, err = Lock(cfg.Artifacts, 0)
	assert.NilError(t, err)
}

type brokenDisk struct{ ended, committed bool }

func (d *brokenDisk) Create() (iokit.Whole, error) { return d, nil }
func (d *brokenDisk) Write([]byte) (int, error)    { return 0, xerrors.New("disk full") }
func (d *brokenDisk) Commit() error                { d.committed = true; return nil }
func (d *brokenDisk) End()                         { d.ended = true }

func Test_WriteHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "include", "model_data.h")
	assert.NilError(t, WriteHeader(iokit.File(path), []byte{1, 2, 3}))
	h, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(h), "g_model_data_len = 3;"))

	d := &brokenDisk{}
	assert.Assert(t, WriteHeader(d, make([]byte, 1<<13)) != nil)
	assert.Assert(t, d.ended)
	assert.Assert(t, !d.committed)
}
