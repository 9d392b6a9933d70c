/*
Package smiles parses SMILES strings into a molecular graph with
hydrogen counts and ring membership, the minimum a circular fingerprint needs.
*/
package smiles

/*
BondType is the bond order, numbered the way cheminformatics toolkits do
*/
type BondType int

const (
	Single    BondType = 1
	Double    BondType = 2
	Triple    BondType = 3
	Quadruple BondType = 4
	Aromatic  BondType = 12
)

func (t BondType) valence() int {
	switch t {
	case Double:
		return 2
	case Triple:
		return 3
	case Quadruple:
		return 4
	default:
		return 1
	}
}

/*
Atom is a heavy atom of a molecule, hydrogens are kept as counts
*/
type Atom struct {
	Number   int  // atomic number, 0 for wildcard
	Isotope  int  // mass label, 0 if none
	Charge   int  // formal charge
	Hs       int  // total attached hydrogens
	Aromatic bool // written in lowercase
	Bracket  bool // written as [..]
	Class    int  // atom class after ':'
	InRing   bool
}

/*
Bond connects atoms A and B
*/
type Bond struct {
	A, B   int
	Type   BondType
	InRing bool
}

/*
Other returns the atom on the other end of the bond
*/
func (b Bond) Other(a int) int {
	if b.A == a {
		return b.B
	}
	return b.A
}

/*
Molecule is a parsed SMILES graph
*/
type Molecule struct {
	Atoms []Atom
	Bonds []Bond
	adj   [][]int
}

/*
Edges returns indices of bonds attached to atom a
*/
func (m *Molecule) Edges(a int) []int {
	return m.adj[a]
}

/*
Degree returns the count of heavy neighbours of atom a
*/
func (m *Molecule) Degree(a int) int {
	return len(m.adj[a])
}

/*
TotalDegree counts heavy neighbours and hydrogens of atom a
*/
func (m *Molecule) TotalDegree(a int) int {
	return len(m.adj[a]) + m.Atoms[a].Hs
}

func (m *Molecule) bondBetween(a, b int) int {
	for _, e := range m.adj[a] {
		if m.Bonds[e].Other(a) == b {
			return e
		}
	}
	return -1
}

func (m *Molecule) addAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.Atoms) - 1
}

func (m *Molecule) addBond(a, b int, t BondType) {
	m.Bonds = append(m.Bonds, Bond{A: a, B: b, Type: t})
	e := len(m.Bonds) - 1
	m.adj[a] = append(m.adj[a], e)
	m.adj[b] = append(m.adj[b], e)
}

func (m *Molecule) bondValence(a int) int {
	v := 0
	for _, e := range m.adj[a] {
		v += m.Bonds[e].Type.valence()
	}
	return v
}

// assignHydrogens fills implicit hydrogens of organic subset atoms
func (m *Molecule) assignHydrogens() error {
	for i := range m.Atoms {
		a := &m.Atoms[i]
		if a.Bracket || a.Number == 0 {
			continue
		}
		v := m.bondValence(i)
		if a.Aromatic {
			switch a.Number {
			case 6, 5, 7, 15:
				// one valence goes to the delocalised pi bond
				a.Hs = organicValences[a.Number][0] - v - 1
				if a.Hs < 0 {
					a.Hs = 0
				}
			default:
				a.Hs = 0
			}
			continue
		}
		allowed := organicValences[a.Number]
		a.Hs = -1
		for _, x := range allowed {
			if x >= v {
				a.Hs = x - v
				break
			}
		}
		if a.Hs < 0 {
			return errorf(ErrValence, "%s has valence %d", Symbol(a.Number), v)
		}
	}
	return nil
}

// foldHydrogens removes plain [H] atoms bound to a heavy atom and counts them on it
func (m *Molecule) foldHydrogens() {
	drop := make([]bool, len(m.Atoms))
	n := 0
	for i, a := range m.Atoms {
		if a.Number != 1 || a.Isotope != 0 || a.Charge != 0 || a.Hs != 0 || len(m.adj[i]) != 1 {
			continue
		}
		e := m.Bonds[m.adj[i][0]]
		if e.Type != Single {
			continue
		}
		o := e.Other(i)
		if m.Atoms[o].Number == 1 {
			continue
		}
		drop[i] = true
		m.Atoms[o].Hs++
		n++
	}
	if n == 0 {
		return
	}
	index := make([]int, len(m.Atoms))
	atoms := make([]Atom, 0, len(m.Atoms)-n)
	for i, a := range m.Atoms {
		if drop[i] {
			index[i] = -1
			continue
		}
		index[i] = len(atoms)
		atoms = append(atoms, a)
	}
	bonds := m.Bonds
	m.Atoms = nil
	m.Bonds = nil
	m.adj = nil
	for _, a := range atoms {
		m.addAtom(a)
	}
	for _, b := range bonds {
		if index[b.A] < 0 || index[b.B] < 0 {
			continue
		}
		m.addBond(index[b.A], index[b.B], b.Type)
	}
}

// perceiveRings marks bonds lying on a cycle (every non-bridge) and their atoms
func (m *Molecule) perceiveRings() {
	n := len(m.Atoms)
	order := make([]int, n)
	low := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	counter := 0
	type frame struct{ atom, via, next int }
	for root := 0; root < n; root++ {
		if order[root] >= 0 {
			continue
		}
		order[root], low[root] = counter, counter
		counter++
		stack := []frame{{root, -1, 0}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(m.adj[f.atom]) {
				e := m.adj[f.atom][f.next]
				f.next++
				if e == f.via {
					continue
				}
				o := m.Bonds[e].Other(f.atom)
				if order[o] < 0 {
					order[o], low[o] = counter, counter
					counter++
					stack = append(stack, frame{o, e, 0})
				} else if order[o] < low[f.atom] {
					low[f.atom] = order[o]
				}
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			p := &stack[len(stack)-1]
			if low[f.atom] < low[p.atom] {
				low[p.atom] = low[f.atom]
			}
			if low[f.atom] <= order[p.atom] {
				m.Bonds[f.via].InRing = true
			}
		}
	}
	for _, b := range m.Bonds {
		if b.InRing {
			m.Atoms[b.A].InRing = true
			m.Atoms[b.B].InRing = true
		}
	}
}
