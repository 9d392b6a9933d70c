package dataset

import (
	"encoding/csv"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zorros"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	SmilesColumn = "smiles"
	LabelColumn  = "logP"
)

/*
Featurizer maps a SMILES string to a fixed width vector, false means the string is unusable
*/
type Featurizer func(string) ([]uint8, bool)

/*
Load reads a CSV file with smiles and logP columns and featurizes every row in file order.
Rows whose SMILES the featurizer rejects are skipped silently. xz, gzip and bzip2 files
are detected by their magic and decompressed on the fly.
*/
func Load(path string, width int, featurize Featurizer) (*Dataset, error) {
	return LoadFrom(Source(path), width, featurize)
}

/*
Source is the dataset input of path
*/
func Source(path string) iokit.Input {
	// the decompressor needs 4 bytes of magic, shorter files are read as is
	if st, err := os.Stat(path); err == nil && st.Size() < 4 {
		return iokit.File(path)
	}
	return iokit.Compressed(iokit.File(path))
}

/*
LoadFrom is Load over any iokit input
*/
func LoadFrom(input iokit.Input, width int, featurize Featurizer) (*Dataset, error) {
	rd, err := input.Open()
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer rd.Close()
	return Read(rd, width, featurize)
}

/*
Read is Load over an arbitrary stream
*/
func Read(rd io.Reader, width int, featurize Featurizer) (*Dataset, error) {
	rd = transform.NewReader(rd, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(rd)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, zorros.Errorf("empty csv, no header")
		}
		return nil, zorros.Trace(err)
	}
	sc, lc := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case SmilesColumn:
			sc = i
		case LabelColumn:
			lc = i
		}
	}
	if sc < 0 || lc < 0 {
		return nil, zorros.Errorf("csv must have `%v` and `%v` columns, got %v", SmilesColumn, LabelColumn, header)
	}
	d := New(width)
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, zorros.Trace(err)
		}
		d.Rows++
		y, err := strconv.ParseFloat(strings.TrimSpace(rec[lc]), 32)
		if err != nil {
			return nil, zorros.Wrapf(err, "bad %v value %q at row %d", LabelColumn, rec[lc], row)
		}
		x, ok := featurize(rec[sc])
		if !ok {
			d.Skipped++
			continue
		}
		if err = d.Append(x, float32(y)); err != nil {
			return nil, zorros.Trace(err)
		}
	}
	return d, nil
}
