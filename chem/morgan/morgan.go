/*
Package morgan computes circular (Morgan/ECFP-like) fingerprints folded into
fixed length bit vectors
*/
package morgan

import (
	"go-ml.dev/pkg/logp/chem/smiles"
	"sort"
)

const (
	DefaultRadius = 2
	DefaultBits   = 2048
)

/*
Fingerprint parses a SMILES string and returns its folded fingerprint as 0/1 bytes.
An unparseable string or a non-positive bits yields (nil, false): it is an expected outcome, not an error.
*/
func Fingerprint(s string, radius, bits int) ([]uint8, bool) {
	if bits <= 0 {
		return nil, false
	}
	m, err := smiles.Parse(s)
	if err != nil {
		return nil, false
	}
	return Compute(m, radius, bits), true
}

/*
Featurizer returns Fingerprint bound to radius and bits
*/
func Featurizer(radius, bits int) func(string) ([]uint8, bool) {
	return func(s string) ([]uint8, bool) {
		return Fingerprint(s, radius, bits)
	}
}

/*
Compute folds the circular invariants of m into a vector of bits elements, nil if bits is not positive
*/
func Compute(m *smiles.Molecule, radius, bits int) []uint8 {
	if bits <= 0 {
		return nil
	}
	fp := make([]uint8, bits)
	for _, x := range Invariants(m, radius) {
		fp[x%uint32(bits)] = 1
	}
	return fp
}

/*
OnBits lists indices of set bits
*/
func OnBits(fp []uint8) []int {
	r := []int{}
	for i, x := range fp {
		if x != 0 {
			r = append(r, i)
		}
	}
	return r
}

func hashCombine(seed *uint32, v uint32) {
	*seed ^= v + 0x9e3779b9 + (*seed << 6) + (*seed >> 2)
}

func atomInvariant(m *smiles.Molecule, i int) uint32 {
	a := m.Atoms[i]
	components := []int{
		a.Number,
		m.TotalDegree(i),
		a.Hs,
		a.Charge,
		smiles.IsotopeDelta(a.Number, a.Isotope),
	}
	if a.InRing {
		components = append(components, 1)
	}
	var seed uint32
	for _, c := range components {
		hashCombine(&seed, uint32(int32(c)))
	}
	return seed
}

type neighbour struct {
	bond uint32
	inv  uint32
}

type environment struct {
	bonds bondset
	inv   uint32
	atom  int
}

/*
Invariants returns the identifiers of every unique circular environment of
radius 0..radius, in generation order
*/
func Invariants(m *smiles.Molecule, radius int) []uint32 {
	n := len(m.Atoms)
	current := make([]uint32, n)
	result := make([]uint32, 0, n*(radius+1))
	for i := range current {
		current[i] = atomInvariant(m, i)
		result = append(result, current[i])
	}

	nbonds := len(m.Bonds)
	dead := make([]bool, n)
	hoods := make([]bondset, n)
	for i := range hoods {
		hoods[i] = newBondset(nbonds)
	}
	seen := map[string]bool{}

	for layer := 0; layer < radius; layer++ {
		next := make([]uint32, n)
		copy(next, current)
		round := make([]bondset, n)
		envs := []environment{}
		for i := 0; i < n; i++ {
			round[i] = hoods[i]
			if dead[i] {
				continue
			}
			if m.Degree(i) == 0 {
				dead[i] = true
				continue
			}
			env := hoods[i].clone()
			nbrs := make([]neighbour, 0, m.Degree(i))
			for _, e := range m.Edges(i) {
				b := m.Bonds[e]
				o := b.Other(i)
				nbrs = append(nbrs, neighbour{uint32(b.Type), current[o]})
				env.set(e)
				env.or(hoods[o])
			}
			sort.Slice(nbrs, func(a, b int) bool {
				if nbrs[a].bond != nbrs[b].bond {
					return nbrs[a].bond < nbrs[b].bond
				}
				return nbrs[a].inv < nbrs[b].inv
			})
			inv := uint32(layer)
			hashCombine(&inv, current[i])
			for _, x := range nbrs {
				var h uint32
				hashCombine(&h, x.bond)
				hashCombine(&h, x.inv)
				hashCombine(&inv, h)
			}
			next[i] = inv
			round[i] = env
			envs = append(envs, environment{env, inv, i})
		}
		sort.Slice(envs, func(a, b int) bool {
			if c := envs[a].bonds.compare(envs[b].bonds); c != 0 {
				return c < 0
			}
			if envs[a].inv != envs[b].inv {
				return envs[a].inv < envs[b].inv
			}
			return envs[a].atom < envs[b].atom
		})
		for _, e := range envs {
			k := e.bonds.key()
			if seen[k] {
				dead[e.atom] = true
				continue
			}
			seen[k] = true
			result = append(result, e.inv)
		}
		current = next
		hoods = round
	}
	return result
}
