package smiles

var symbols = []string{"",
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// mass number of the most common isotope, 0 where the element has none worth tracking
var commonIsotope = []int{0,
	1, 4, 7, 9, 11, 12, 14, 16, 19, 20,
	23, 24, 27, 28, 31, 32, 35, 40, 39, 40,
	45, 48, 51, 52, 55, 56, 59, 58, 63, 64,
	69, 74, 75, 80, 79, 84, 85, 88, 89, 90,
	93, 98, 98, 102, 103, 106, 107, 114, 115, 120,
	121, 130, 127, 132, 133, 138, 139, 140, 141, 142,
	145, 152, 153, 158, 159, 164, 165, 166, 169, 174,
	175, 180, 181, 184, 187, 192, 193, 195, 197, 202,
	205, 208, 209,
}

var elementNumber = func() map[string]int {
	m := make(map[string]int, len(symbols))
	for z, s := range symbols[1:] {
		m[s] = z + 1
	}
	return m
}()

// default valences of the organic subset, ascending
var organicValences = map[int][]int{
	5:  {3},
	6:  {4},
	7:  {3, 5},
	8:  {2},
	9:  {1},
	15: {3, 5},
	16: {2, 4, 6},
	17: {1},
	35: {1},
	53: {1},
}

// elements which may be written aromatic in lowercase
var aromaticSymbols = map[string]int{
	"b": 5, "c": 6, "n": 7, "o": 8, "p": 15, "s": 16,
	"se": 34, "as": 33, "te": 52,
}

/*
Symbol returns the element symbol for atomic number z, or "*" for the wildcard atom
*/
func Symbol(z int) string {
	if z <= 0 || z >= len(symbols) {
		return "*"
	}
	return symbols[z]
}

/*
IsotopeDelta returns the difference between an isotope label and the most common isotope of z
*/
func IsotopeDelta(z, isotope int) int {
	if isotope == 0 || z <= 0 || z >= len(commonIsotope) {
		return 0
	}
	return isotope - commonIsotope[z]
}

// permitted valences of uncharged main group elements, elements missing here take any valence
var valences = map[int][]int{
	1:  {1},
	3:  {1},
	5:  {3},
	6:  {4},
	7:  {3},
	8:  {2},
	9:  {1},
	11: {1},
	14: {4},
	15: {3, 5, 7},
	16: {2, 4, 6},
	17: {1},
	19: {1},
	33: {3, 5, 7},
	34: {2, 4, 6},
	35: {1},
	52: {2, 4, 6},
	53: {1, 3, 5},
}

// elements with less than four valence electrons
var early = map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 11: true, 12: true, 13: true, 19: true, 20: true}

/*
Valences returns valences permitted to element z carrying the formal charge, ascending.
A charge shifts valences the way an isoelectronic neighbour has them: N+ is like C, B- is like C, O- is like F.
Nil means the element is not checked.
*/
func Valences(z, charge int) []int {
	v, ok := valences[z]
	if !ok {
		return nil
	}
	if early[z] || (z == 6 && charge > 0) {
		charge = -charge
	}
	r := make([]int, 0, len(v))
	for _, x := range v {
		if x+charge >= 0 {
			r = append(r, x+charge)
		}
	}
	return r
}
