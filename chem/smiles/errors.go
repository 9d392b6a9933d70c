package smiles

import (
	"fmt"
	"golang.org/x/xerrors"
)

var (
	ErrEmpty    = xerrors.New("empty smiles")
	ErrSyntax   = xerrors.New("smiles syntax error")
	ErrElement  = xerrors.New("unknown element")
	ErrRing     = xerrors.New("bad ring closure")
	ErrValence  = xerrors.New("explicit valence exceeds permitted")
	ErrAromatic = xerrors.New("bad aromatic system")
)

func errorf(kind error, format string, a ...interface{}) error {
	return xerrors.Errorf("%s: %w", fmt.Sprintf(format, a...), kind)
}
