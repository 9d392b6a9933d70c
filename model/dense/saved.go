package dense

import (
	"bufio"
	"encoding/binary"
	"github.com/ulikunitz/xz"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/model"
	"go-ml.dev/pkg/zorros/zorros"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
	"io"
	"math"
	"path/filepath"
)

const (
	ManifestFile  = "model.yaml"
	VariablesFile = "variables.xz"
	Format        = "logp-dense/v1"
)

/*
Manifest describes a saved network, the weights live next to it in VariablesFile
*/
type Manifest struct {
	Format string        `yaml:"format"`
	Input  int           `yaml:"input"`
	Seed   int64         `yaml:"seed"`
	Layers []LayerConfig `yaml:"layers"`
}

/*
LayerConfig is a saved dense layer
*/
type LayerConfig struct {
	Units      int    `yaml:"units"`
	Activation string `yaml:"activation"`
}

/*
Memorize writes the manifest and variables files into out, it implements model.Memorizer
*/
func (n *Network) Memorize(out model.ModelOutput) (err error) {
	mf := Manifest{Format: Format, Input: n.Width(), Seed: n.Seed}
	for _, l := range n.Layers {
		mf.Layers = append(mf.Layers, LayerConfig{Units: l.Units(), Activation: l.Activation})
	}
	bs, err := yaml.Marshal(&mf)
	if err != nil {
		return zorros.Trace(err)
	}
	if err = (iokit.LuckyOutput{Output: out.File(ManifestFile)}).WriteAll(bs); err != nil {
		return zorros.Wrapf(err, "failed to write %v: %v", ManifestFile, err.Error())
	}
	wh, err := out.File(VariablesFile).Create()
	if err != nil {
		return zorros.Trace(err)
	}
	defer wh.End()
	xw, err := xz.NewWriter(wh)
	if err != nil {
		return zorros.Trace(err)
	}
	bw := bufio.NewWriter(xw)
	for _, l := range n.Layers {
		if err = writeFloats(bw, l.W.RawMatrix().Data); err != nil {
			return zorros.Trace(err)
		}
		if err = writeFloats(bw, l.B); err != nil {
			return zorros.Trace(err)
		}
	}
	if err = bw.Flush(); err != nil {
		return zorros.Trace(err)
	}
	if err = xw.Close(); err != nil {
		return zorros.Trace(err)
	}
	if err = wh.Commit(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

/*
Save writes the manifest and xz-compressed float32 variables into dir, creating it when needed.
Variables are written layer by layer, kernel (in×out, row-major) then bias.
*/
func (n *Network) Save(dir string) error {
	return n.Memorize(model.ModelDir(dir))
}

func writeFloats(w io.Writer, a []float64) error {
	b := make([]byte, 4*len(a))
	for i, x := range a {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(float32(x)))
	}
	_, err := w.Write(b)
	return err
}

func readFloats(r io.Reader, n int) ([]float64, error) {
	b := make([]byte, 4*n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	a := make([]float64, n)
	for i := range a {
		a[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:])))
	}
	return a, nil
}

/*
Load restores a network saved by Save
*/
func Load(dir string) (*Network, error) {
	bs, err := iokit.File(filepath.Join(dir, ManifestFile)).ReadAll()
	if err != nil {
		return nil, zorros.Trace(err)
	}
	var mf Manifest
	if err = yaml.Unmarshal(bs, &mf); err != nil {
		return nil, zorros.Wrapf(err, "bad manifest in %v: %v", dir, err.Error())
	}
	if mf.Format != Format {
		return nil, zorros.Errorf("unsupported saved model format `%v`", mf.Format)
	}
	if mf.Input <= 0 || len(mf.Layers) == 0 {
		return nil, zorros.Errorf("saved model in %v has no layers", dir)
	}
	f, err := iokit.File(filepath.Join(dir, VariablesFile)).Open()
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer f.Close()
	xr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, zorros.Trace(err)
	}
	net := &Network{Seed: mf.Seed}
	in := mf.Input
	for i, lc := range mf.Layers {
		if lc.Units <= 0 || (lc.Activation != ReLU && lc.Activation != Linear) {
			return nil, zorros.Errorf("bad layer %d in %v: %+v", i, dir, lc)
		}
		w, err := readFloats(xr, in*lc.Units)
		if err != nil {
			return nil, zorros.Wrapf(err, "truncated variables of layer %d: %v", i, err.Error())
		}
		b, err := readFloats(xr, lc.Units)
		if err != nil {
			return nil, zorros.Wrapf(err, "truncated variables of layer %d: %v", i, err.Error())
		}
		net.Layers = append(net.Layers, &Layer{W: mat.NewDense(in, lc.Units, w), B: b, Activation: lc.Activation})
		in = lc.Units
	}
	return net, nil
}
