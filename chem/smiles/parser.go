package smiles

import (
	"strings"
	"unicode"
)

type pendingBond struct {
	t   BondType
	set bool
}

type ringOpen struct {
	atom int
	bond pendingBond
}

type parser struct {
	s     string
	pos   int
	mol   *Molecule
	prev  int
	bond  pendingBond
	stack []int
	rings map[int]ringOpen
}

/*
Parse reads a SMILES string into a Molecule. Everything after the first
whitespace is ignored, as in title-carrying SMILES files.
*/
func Parse(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return nil, ErrEmpty
	}
	p := &parser{s: s, mol: &Molecule{}, prev: -1, rings: map[int]ringOpen{}}
	if err := p.parse(); err != nil {
		return nil, err
	}
	m := p.mol
	if err := m.assignHydrogens(); err != nil {
		return nil, err
	}
	m.foldHydrogens()
	m.perceiveRings()
	for i, b := range m.Bonds {
		if b.Type == Aromatic && !b.InRing {
			m.Bonds[i].Type = Single
		}
	}
	for _, a := range m.Atoms {
		if a.Aromatic && !a.InRing {
			return nil, errorf(ErrAromatic, "%s out of ring in %q", Symbol(a.Number), s)
		}
	}
	double, err := m.kekulize()
	if err != nil {
		return nil, err
	}
	if err = m.checkValences(double); err != nil {
		return nil, err
	}
	return m, nil
}

/*
MustParse is Parse panicking on error
*/
func MustParse(s string) *Molecule {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *parser) parse() error {
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.fail(ErrSyntax, "branch without an atom")
			}
			if p.bond.set {
				return p.fail(ErrSyntax, "bond before branch")
			}
			if p.pos+1 < len(p.s) && p.s[p.pos+1] == ')' {
				return p.fail(ErrSyntax, "empty branch")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.fail(ErrSyntax, "unbalanced ')'")
			}
			if p.bond.set {
				return p.fail(ErrSyntax, "dangling bond")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '.':
			if p.bond.set || p.prev < 0 {
				return p.fail(ErrSyntax, "misplaced '.'")
			}
			p.prev = -1
			p.pos++
		case strings.IndexByte("-=#$:/\\", c) >= 0:
			if p.bond.set {
				return p.fail(ErrSyntax, "two bonds in a row")
			}
			p.bond = pendingBond{t: bondType(c), set: true}
			p.pos++
		case c == '%' || (c >= '0' && c <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		}
	}
	switch {
	case p.bond.set:
		return p.fail(ErrSyntax, "dangling bond")
	case len(p.stack) > 0:
		return p.fail(ErrSyntax, "unclosed branch")
	case len(p.rings) > 0:
		return p.fail(ErrRing, "unclosed ring")
	case len(p.mol.Atoms) == 0:
		return ErrEmpty
	}
	return nil
}

func (p *parser) fail(kind error, msg string) error {
	return errorf(kind, "%s at %d in %q", msg, p.pos, p.s)
}

func bondType(c byte) BondType {
	switch c {
	case '=':
		return Double
	case '#':
		return Triple
	case '$':
		return Quadruple
	case ':':
		return Aromatic
	default:
		return Single
	}
}

func (p *parser) implicitBond(a, b int) BondType {
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return Aromatic
	}
	return Single
}

func (p *parser) attach(a Atom) error {
	i := p.mol.addAtom(a)
	if p.prev >= 0 {
		t := p.bond.t
		if !p.bond.set {
			t = p.implicitBond(p.prev, i)
		}
		p.mol.addBond(p.prev, i, t)
	} else if p.bond.set {
		return p.fail(ErrSyntax, "bond without a preceding atom")
	}
	p.prev = i
	p.bond = pendingBond{}
	return nil
}

func (p *parser) ringClosure() error {
	if p.prev < 0 {
		return p.fail(ErrRing, "ring closure without an atom")
	}
	var n int
	if p.s[p.pos] == '%' {
		if p.pos+2 >= len(p.s) || !isDigit(p.s[p.pos+1]) || !isDigit(p.s[p.pos+2]) {
			return p.fail(ErrRing, "bad %nn ring number")
		}
		n = int(p.s[p.pos+1]-'0')*10 + int(p.s[p.pos+2]-'0')
		p.pos += 3
	} else {
		n = int(p.s[p.pos] - '0')
		p.pos++
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringOpen{atom: p.prev, bond: p.bond}
		p.bond = pendingBond{}
		return nil
	}
	delete(p.rings, n)
	if open.atom == p.prev {
		return p.fail(ErrRing, "ring closes on itself")
	}
	if p.mol.bondBetween(open.atom, p.prev) >= 0 {
		return p.fail(ErrRing, "duplicated bond")
	}
	t := p.implicitBond(open.atom, p.prev)
	switch {
	case open.bond.set && p.bond.set && open.bond.t != p.bond.t:
		return p.fail(ErrRing, "conflicting ring bond types")
	case open.bond.set:
		t = open.bond.t
	case p.bond.set:
		t = p.bond.t
	}
	p.mol.addBond(open.atom, p.prev, t)
	p.bond = pendingBond{}
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func (p *parser) organicAtom() (Atom, error) {
	s := p.s[p.pos:]
	switch {
	case strings.HasPrefix(s, "Cl"):
		p.pos += 2
		return Atom{Number: 17}, nil
	case strings.HasPrefix(s, "Br"):
		p.pos += 2
		return Atom{Number: 35}, nil
	}
	c := s[0]
	switch c {
	case 'B', 'C', 'N', 'O', 'P', 'S', 'F', 'I':
		p.pos++
		return Atom{Number: elementNumber[string(c)]}, nil
	case 'b', 'c', 'n', 'o', 'p', 's':
		p.pos++
		return Atom{Number: aromaticSymbols[string(c)], Aromatic: true}, nil
	case '*':
		p.pos++
		return Atom{}, nil
	}
	return Atom{}, p.fail(ErrElement, "unexpected character "+string(c))
}

func (p *parser) bracketAtom() (Atom, error) {
	a := Atom{Bracket: true}
	p.pos++ // '['
	for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
		a.Isotope = a.Isotope*10 + int(p.s[p.pos]-'0')
		p.pos++
	}
	if err := p.bracketSymbol(&a); err != nil {
		return a, err
	}
	p.skipChirality()
	if p.pos < len(p.s) && p.s[p.pos] == 'H' {
		p.pos++
		a.Hs = 1
		if p.pos < len(p.s) && isDigit(p.s[p.pos]) {
			a.Hs = int(p.s[p.pos] - '0')
			p.pos++
		}
	}
	if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
		sign := 1
		if p.s[p.pos] == '-' {
			sign = -1
		}
		c := p.s[p.pos]
		p.pos++
		switch {
		case p.pos < len(p.s) && isDigit(p.s[p.pos]):
			n := 0
			for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
				n = n*10 + int(p.s[p.pos]-'0')
				p.pos++
			}
			a.Charge = sign * n
		default:
			n := 1
			for p.pos < len(p.s) && p.s[p.pos] == c {
				n++
				p.pos++
			}
			a.Charge = sign * n
		}
	}
	if p.pos < len(p.s) && p.s[p.pos] == ':' {
		p.pos++
		if p.pos >= len(p.s) || !isDigit(p.s[p.pos]) {
			return a, p.fail(ErrSyntax, "bad atom class")
		}
		for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
			a.Class = a.Class*10 + int(p.s[p.pos]-'0')
			p.pos++
		}
	}
	if p.pos >= len(p.s) || p.s[p.pos] != ']' {
		return a, p.fail(ErrSyntax, "unterminated bracket atom")
	}
	p.pos++
	return a, nil
}

func (p *parser) bracketSymbol(a *Atom) error {
	s := p.s[p.pos:]
	if s == "" {
		return p.fail(ErrSyntax, "unterminated bracket atom")
	}
	if s[0] == '*' {
		p.pos++
		return nil
	}
	if len(s) >= 2 {
		if z, ok := aromaticSymbols[s[:2]]; ok {
			a.Number, a.Aromatic = z, true
			p.pos += 2
			return nil
		}
	}
	if z, ok := aromaticSymbols[s[:1]]; ok {
		a.Number, a.Aromatic = z, true
		p.pos++
		return nil
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return p.fail(ErrElement, "bad element symbol")
	}
	if len(s) >= 2 && s[1] >= 'a' && s[1] <= 'z' {
		if z, ok := elementNumber[s[:2]]; ok {
			a.Number = z
			p.pos += 2
			return nil
		}
	}
	z, ok := elementNumber[s[:1]]
	if !ok {
		return p.fail(ErrElement, "unknown element")
	}
	a.Number = z
	p.pos++
	return nil
}

// stereo is ignored by the fingerprint, only its syntax is consumed
func (p *parser) skipChirality() {
	if p.pos >= len(p.s) || p.s[p.pos] != '@' {
		return
	}
	p.pos++
	if p.pos < len(p.s) && p.s[p.pos] == '@' {
		p.pos++
		return
	}
	for _, tag := range []string{"TH", "AL", "SP", "TB", "OH"} {
		if strings.HasPrefix(p.s[p.pos:], tag) {
			p.pos += len(tag)
			for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
				p.pos++
			}
			return
		}
	}
}
