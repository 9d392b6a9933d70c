package smiles

// needsDouble tells if the aromatic atom lacks exactly the valence unit a pi double bond gives
func (m *Molecule) needsDouble(i int) bool {
	a := m.Atoms[i]
	allowed := Valences(a.Number, a.Charge)
	if !a.Aromatic || allowed == nil {
		return false
	}
	v := m.bondValence(i) + a.Hs
	for _, x := range allowed {
		if x == v {
			return false
		}
	}
	return len(allowed) > 0 && allowed[len(allowed)-1] > v
}

func (m *Molecule) piPartner(i, e int, need []bool, mate []int) int {
	b := m.Bonds[e]
	o := b.Other(i)
	if b.Type != Aromatic || !need[o] || mate[o] >= 0 {
		return -1
	}
	return o
}

/*
kekulize places one double bond on every aromatic atom needing it, each atom gets exactly one.
It returns bonds which become double or ErrAromatic when there is no such arrangement.
*/
func (m *Molecule) kekulize() ([]bool, error) {
	n := len(m.Atoms)
	need := make([]bool, n)
	mate := make([]int, n)
	for i := range m.Atoms {
		need[i] = m.needsDouble(i)
		mate[i] = -1
	}
	double := make([]bool, len(m.Bonds))
	seen := make([]bool, n)
	for root := range m.Atoms {
		if !need[root] || seen[root] {
			continue
		}
		component := []int{root}
		seen[root] = true
		for k := 0; k < len(component); k++ {
			for _, e := range m.adj[component[k]] {
				if o := m.piPartner(component[k], e, need, mate); o >= 0 && !seen[o] {
					seen[o] = true
					component = append(component, o)
				}
			}
		}
		if len(component)%2 != 0 || !m.match(component, need, mate, double) {
			return nil, errorf(ErrAromatic, "can't kekulize %d atoms around %s%d", len(component), Symbol(m.Atoms[root].Number), root)
		}
	}
	return double, nil
}

// match pairs atoms of the component over aromatic bonds, the most constrained atom goes first
func (m *Molecule) match(component []int, need []bool, mate []int, double []bool) bool {
	best, options := -1, 0
	for _, i := range component {
		if mate[i] >= 0 {
			continue
		}
		k := 0
		for _, e := range m.adj[i] {
			if m.piPartner(i, e, need, mate) >= 0 {
				k++
			}
		}
		if k == 0 {
			return false
		}
		if best < 0 || k < options {
			best, options = i, k
		}
	}
	if best < 0 {
		return true
	}
	for _, e := range m.adj[best] {
		o := m.piPartner(best, e, need, mate)
		if o < 0 {
			continue
		}
		mate[best], mate[o], double[e] = o, best, true
		if m.match(component, need, mate, double) {
			return true
		}
		mate[best], mate[o], double[e] = -1, -1, false
	}
	return false
}

// checkValences compares bonds of the kekulé form plus hydrogens with valences the element permits
func (m *Molecule) checkValences(double []bool) error {
	for i, a := range m.Atoms {
		allowed := Valences(a.Number, a.Charge)
		if allowed == nil {
			continue
		}
		v := a.Hs
		for _, e := range m.adj[i] {
			if double[e] {
				v += 2
			} else {
				v += m.Bonds[e].Type.valence()
			}
		}
		if len(allowed) == 0 || v > allowed[len(allowed)-1] {
			return errorf(ErrValence, "%s with charge %d has valence %d", Symbol(a.Number), a.Charge, v)
		}
	}
	return nil
}
