package fu

import "math"

func Mean(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	var c float64
	for _, x := range a {
		c += float64(x)
	}
	return float32(c / float64(len(a)))
}

func Mse(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	var c float64
	for i, x := range a {
		q := float64(x - b[i])
		c += q * q
	}
	return float32(c / float64(len(a)))
}

func Mae(a, b []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	var c float64
	for i, x := range a {
		c += math.Abs(float64(x - b[i]))
	}
	return float32(c / float64(len(a)))
}

/*
Minmax returns the smallest and the largest values of a,
or zeros when a is empty
*/
func Minmax(a []float32) (lo, hi float32) {
	if len(a) == 0 {
		return
	}
	lo, hi = a[0], a[0]
	for _, x := range a[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return
}

/*
Maxabs returns the largest absolute value of a
*/
func Maxabs(a []float32) float32 {
	var m float32
	for _, x := range a {
		if x < 0 {
			x = -x
		}
		if x > m {
			m = x
		}
	}
	return m
}

func Flatnr(a [][]float32) []float32 {
	n := 0
	for _, x := range a {
		n += len(x)
	}
	r := make([]float32, n)
	i := 0
	for _, x := range a {
		copy(r[i:i+len(x)], x)
		i += len(x)
	}
	return r
}

/*
Bytes2f converts 0/1 fingerprint bytes into float32 features
*/
func Bytes2f(a []uint8) []float32 {
	r := make([]float32, len(a))
	for i, x := range a {
		r[i] = float32(x)
	}
	return r
}
