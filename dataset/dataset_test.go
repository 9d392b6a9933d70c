package dataset

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"github.com/ulikunitz/xz"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/chem/morgan"
	"golang.org/x/xerrors"
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const bits = 256

var featurize = Featurizer(morgan.Featurizer(2, bits))

const sample = `zinc_id,smiles,logP,qed
1,CCO,-0.31,0.4
2,c1ccccc1,2.13,0.4
3,C1CC,1.0,0.1
4,"CC(=O)Oc1ccccc1C(=O)O
",1.19,0.5
5,Xx,0.0,0.0
6,CCN,-0.13,0.4
`

func writeFile(t *testing.T, name string, data []byte) string {
	p := filepath.Join(t.TempDir(), name)
	assert.NilError(t, os.WriteFile(p, data, 0o644))
	return p
}

func Test_Load(t *testing.T) {
	d, err := Load(writeFile(t, "a.csv", []byte(sample)), bits, featurize)
	assert.NilError(t, err)
	assert.Equal(t, d.Rows, 6)
	assert.Equal(t, d.Skipped, 2)
	assert.Equal(t, d.Len(), 4)
	assert.Equal(t, len(d.Features), d.Len()*bits)
	assert.DeepEqual(t, d.Targets, []float32{-0.31, 2.13, 1.19, -0.13})
	want, _ := morgan.Fingerprint("c1ccccc1", 2, bits)
	assert.DeepEqual(t, d.Row(1), want)
	assert.Equal(t, len(d.Floats(0)), bits)
}

func Test_LoadBOMAndXz(t *testing.T) {
	withBOM := append([]byte("\xef\xbb\xbf"), sample...)
	d, err := Load(writeFile(t, "bom.csv", withBOM), bits, featurize)
	assert.NilError(t, err)
	assert.Equal(t, d.Len(), 4)

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	assert.NilError(t, err)
	_, err = w.Write([]byte(sample))
	assert.NilError(t, err)
	assert.NilError(t, w.Close())
	z, err := Load(writeFile(t, "a.csv.xz", buf.Bytes()), bits, featurize)
	assert.NilError(t, err)
	assert.DeepEqual(t, z.Targets, d.Targets)
	assert.DeepEqual(t, z.Features, d.Features)

	buf.Reset()
	g := gzip.NewWriter(&buf)
	_, err = g.Write([]byte(sample))
	assert.NilError(t, err)
	assert.NilError(t, g.Close())
	z, err = Load(writeFile(t, "zinc.dat", buf.Bytes()), bits, featurize)
	assert.NilError(t, err)
	assert.DeepEqual(t, z.Targets, d.Targets)
}

func Test_LoadFrom(t *testing.T) {
	d, err := LoadFrom(iokit.StringIO(sample), bits, featurize)
	assert.NilError(t, err)
	assert.Equal(t, d.Len(), 4)
	assert.Equal(t, d.Skipped, 2)
}

func Test_LoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), bits, featurize)
	assert.Assert(t, err != nil)

	_, err = Load(writeFile(t, "nolabel.csv", []byte("smiles,mw\nCCO,46\n")), bits, featurize)
	assert.ErrorContains(t, err, "logP")

	_, err = Load(writeFile(t, "badlabel.csv", []byte("smiles,logP\nCCO,abc\n")), bits, featurize)
	assert.ErrorContains(t, err, "abc")

	_, err = Load(writeFile(t, "empty.csv", nil), bits, featurize)
	assert.ErrorContains(t, err, "empty csv")

	_, err = Load(writeFile(t, "short.csv", []byte("C\n")), bits, featurize)
	assert.ErrorContains(t, err, "columns")
}

func Test_AllInvalid(t *testing.T) {
	d, err := Read(strings.NewReader("smiles,logP\nC1CC,1\nXx,2\n((,3\n"), bits, featurize)
	assert.NilError(t, err)
	assert.Equal(t, d.Len(), 0)
	assert.Equal(t, d.Skipped, 3)
	_, _, err = Split(d, 0.1, 42)
	assert.Assert(t, xerrors.Is(err, ErrEmptySplit))
}

func synthetic(n int) *Dataset {
	d := New(4)
	for i := 0; i < n; i++ {
		_ = d.Append([]uint8{uint8(i % 2), 1, 0, uint8(i % 3 % 2)}, float32(i))
	}
	return d
}

func Test_Split(t *testing.T) {
	d := synthetic(95)
	train, test, err := Split(d, 0.1, 42)
	assert.NilError(t, err)
	assert.Equal(t, test.Len(), 10)
	assert.Equal(t, train.Len(), 85)
	seen := map[float32]bool{}
	for _, y := range append(append([]float32{}, train.Targets...), test.Targets...) {
		assert.Assert(t, !seen[y], fmt.Sprint(y))
		seen[y] = true
	}
	assert.Equal(t, len(seen), 95)
	for i := 0; i < train.Len(); i++ {
		assert.DeepEqual(t, train.Row(i), d.Row(int(train.Targets[i])))
	}
}

func Test_SplitDeterministic(t *testing.T) {
	d := synthetic(50)
	a, av, err := Split(d, 0.1, 42)
	assert.NilError(t, err)
	b, bv, err := Split(d, 0.1, 42)
	assert.NilError(t, err)
	assert.DeepEqual(t, a.Targets, b.Targets)
	assert.DeepEqual(t, av.Targets, bv.Targets)
	c, _, err := Split(d, 0.1, 7)
	assert.NilError(t, err)
	assert.Assert(t, fmt.Sprint(c.Targets) != fmt.Sprint(a.Targets))
}

func Test_SplitTooSmall(t *testing.T) {
	_, _, err := Split(New(4), 0.1, 42)
	assert.Assert(t, xerrors.Is(err, ErrEmptySplit))
	_, _, err = Split(synthetic(1), 0.1, 42)
	assert.Assert(t, xerrors.Is(err, ErrEmptySplit))
	tr, te, err := Split(synthetic(2), 0.1, 42)
	assert.NilError(t, err)
	assert.Equal(t, tr.Len()+te.Len(), 2)
}

func Test_AppendWidth(t *testing.T) {
	d := New(4)
	assert.Assert(t, d.Append([]uint8{1, 0}, 1) != nil)
	assert.Equal(t, d.Len(), 0)
}
