package smiles

import (
	"golang.org/x/xerrors"
	"gotest.tools/assert"
	"testing"
)

func Test_Ethanol(t *testing.T) {
	m, err := Parse("CCO")
	assert.NilError(t, err)
	assert.Equal(t, len(m.Atoms), 3)
	assert.Equal(t, len(m.Bonds), 2)
	assert.Equal(t, m.Atoms[0].Hs, 3)
	assert.Equal(t, m.Atoms[1].Hs, 2)
	assert.Equal(t, m.Atoms[2].Hs, 1)
	assert.Assert(t, !m.Atoms[0].InRing)
}

func Test_Benzene(t *testing.T) {
	m := MustParse("c1ccccc1")
	assert.Equal(t, len(m.Atoms), 6)
	assert.Equal(t, len(m.Bonds), 6)
	for i, a := range m.Atoms {
		assert.Assert(t, a.Aromatic)
		assert.Assert(t, a.InRing)
		assert.Equal(t, a.Hs, 1)
		assert.Equal(t, m.TotalDegree(i), 3)
	}
	for _, b := range m.Bonds {
		assert.Equal(t, b.Type, Aromatic)
		assert.Assert(t, b.InRing)
	}
}

func Test_Heteroaromatics(t *testing.T) {
	py := MustParse("c1ccncc1")
	assert.Equal(t, py.Atoms[3].Hs, 0)
	pyrrole := MustParse("c1cc[nH]c1")
	assert.Equal(t, pyrrole.Atoms[3].Hs, 1)
	furan := MustParse("c1ccoc1")
	assert.Equal(t, furan.Atoms[3].Hs, 0)
	thiophene := MustParse("c1ccsc1")
	assert.Equal(t, thiophene.Atoms[3].Hs, 0)
}

func Test_Branches(t *testing.T) {
	m := MustParse("CC(=O)O")
	assert.Equal(t, len(m.Atoms), 4)
	assert.Equal(t, m.Bonds[1].Type, Double)
	assert.Equal(t, m.Atoms[1].Hs, 0)
	assert.Equal(t, m.Atoms[2].Hs, 0)
	assert.Equal(t, m.Atoms[3].Hs, 1)
}

func Test_RingMembership(t *testing.T) {
	// cyclohexyl methyl ether: ring atoms are the first six
	m := MustParse("C1CCCCC1OC")
	for i := 0; i < 6; i++ {
		assert.Assert(t, m.Atoms[i].InRing, "atom %d", i)
	}
	assert.Assert(t, !m.Atoms[6].InRing)
	assert.Assert(t, !m.Atoms[7].InRing)
	bridge := m.bondBetween(5, 6)
	assert.Assert(t, !m.Bonds[bridge].InRing)
}

func Test_Biphenyl(t *testing.T) {
	m := MustParse("c1ccccc1c1ccccc1")
	link := m.bondBetween(5, 6)
	assert.Assert(t, link >= 0)
	assert.Equal(t, m.Bonds[link].Type, Single)
	assert.Assert(t, !m.Bonds[link].InRing)
}

func Test_BracketAtoms(t *testing.T) {
	m := MustParse("[13CH3][NH3+].[Cl-]")
	assert.Equal(t, m.Atoms[0].Isotope, 13)
	assert.Equal(t, m.Atoms[0].Hs, 3)
	assert.Equal(t, m.Atoms[1].Charge, 1)
	assert.Equal(t, m.Atoms[1].Hs, 3)
	assert.Equal(t, m.Atoms[2].Number, 17)
	assert.Equal(t, m.Atoms[2].Charge, -1)
	assert.Equal(t, len(m.Bonds), 1)

	s := MustParse("N[C@@H](C)C(=O)O")
	assert.Equal(t, s.Atoms[1].Hs, 1)
	fe := MustParse("[Fe++]")
	assert.Equal(t, fe.Atoms[0].Charge, 2)
	assert.Equal(t, fe.Atoms[0].Number, 26)
}

func Test_ExplicitHydrogens(t *testing.T) {
	m := MustParse("[H]C([H])([H])[H]")
	assert.Equal(t, len(m.Atoms), 1)
	assert.Equal(t, m.Atoms[0].Hs, 4)
	h2 := MustParse("[H][H]")
	assert.Equal(t, len(h2.Atoms), 2)
}

func Test_RingClosureBonds(t *testing.T) {
	m := MustParse("C=1CCCCC1")
	assert.Equal(t, m.Bonds[len(m.Bonds)-1].Type, Double)
	big := MustParse("C%10CCCCC%10")
	assert.Equal(t, len(big.Bonds), 6)
}

func Test_TrailingTitle(t *testing.T) {
	m, err := Parse("CC(C)Cc1ccc(cc1)C(C)C(=O)O\n")
	assert.NilError(t, err)
	assert.Equal(t, len(m.Atoms), 15)
	m, err = Parse("CCO ethanol")
	assert.NilError(t, err)
	assert.Equal(t, len(m.Atoms), 3)
}

func Test_Invalid(t *testing.T) {
	cases := map[string]error{
		"":                ErrEmpty,
		"   ":             ErrEmpty,
		"C1CC":            ErrRing,
		"C(C":             ErrSyntax,
		"CC)":             ErrSyntax,
		"C()":             ErrSyntax,
		"C=":              ErrSyntax,
		"=C":              ErrSyntax,
		"Xx":              ErrElement,
		"[Xx]":            ErrElement,
		"[C":              ErrSyntax,
		"C(C)(C)(C)(C)C":  ErrValence,
		"FF(F)":           ErrValence,
		"c":               ErrAromatic,
		"c1cccc1":         ErrAromatic,
		"c1ccnc1":         ErrAromatic,
		"c1ccccc1c1cccc1": ErrAromatic,
		"c1CCCC1":         ErrAromatic,
		"[CH5]":           ErrValence,
		"[OH3]":           ErrValence,
		"[CH4+]":          ErrValence,
		"C[N](C)(C)(C)C":  ErrValence,
		"C[C](C)(C)(C)C":  ErrValence,
		"CN(=O)=O":        ErrValence,
		"[Na](C)C":        ErrValence,
		"c1cc[nH]cc1":     ErrAromatic,
		"C11":             ErrRing,
		"C12CC12":         ErrRing,
		"not a smiles":    ErrElement,
	}
	for s, kind := range cases {
		_, err := Parse(s)
		assert.Assert(t, err != nil, "%q", s)
		assert.Assert(t, xerrors.Is(err, kind), "%q: %v", s, err)
	}
}

func Test_Kekulizable(t *testing.T) {
	for _, s := range []string{
		"c1ccc2ccccc2c1",
		"c1ccc2c(c1)ccc1ccccc12",
		"c1ccn2cccc2c1",
		"Cn1cnc2c1c(=O)n(C)c(=O)n2C",
		"O=c1cccc[nH]1",
		"c1cc[n+](C)cc1",
		"[cH-]1cccc1",
		"c1cc[o+]cc1",
		"[O-][N+](=O)c1ccccc1",
		"B(O)(O)c1ccccc1",
	} {
		_, err := Parse(s)
		assert.NilError(t, err, s)
	}
}

func Test_ChargedValence(t *testing.T) {
	for _, s := range []string{"[OH3+]", "C[N+](C)(C)C", "[NH4+]", "[B-](F)(F)(F)F", "[CH3+]", "[CH3-]", "[Cl-]", "[Na+]", "C[S+](C)C", "[H+]"} {
		_, err := Parse(s)
		assert.NilError(t, err, s)
	}
	assert.DeepEqual(t, Valences(7, 1), []int{4})
	assert.DeepEqual(t, Valences(8, 1), []int{3})
	assert.DeepEqual(t, Valences(5, -1), []int{4})
	assert.DeepEqual(t, Valences(6, 1), []int{3})
	assert.DeepEqual(t, Valences(16, 0), []int{2, 4, 6})
	assert.Assert(t, Valences(26, 2) == nil)
}
