package fu

// Fnzi returns the first non-zero value
func Fnzi(a ...int) int {
	for _, x := range a {
		if x != 0 {
			return x
		}
	}
	return 0
}

func Maxi(a int, b ...int) int {
	for _, x := range b {
		if x > a {
			a = x
		}
	}
	return a
}

func Mini(a int, b ...int) int {
	for _, x := range b {
		if x < a {
			a = x
		}
	}
	return a
}

/*
Indmind returns the index of the minimal value, or -1 for an empty slice
*/
func Indmind(a []float64) int {
	if len(a) == 0 {
		return -1
	}
	j := 0
	for i, x := range a[1:] {
		if x < a[j] {
			j = i + 1
		}
	}
	return j
}
