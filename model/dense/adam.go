package dense

import (
	"go-ml.dev/pkg/logp/fu"
	"math"
)

/*
Adam is the Adam optimizer with bias-corrected learning rate
*/
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step  int
	slots map[*float64][2][]float64
}

/*
NewAdam returns Adam with the usual defaults and given learning rate
*/
func NewAdam(lr float64) *Adam {
	return &Adam{LearningRate: lr, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

// Step advances the time step, call once per batch before Update
func (a *Adam) Step() {
	a.step++
}

// Update applies gradient g to parameters p
func (a *Adam) Update(p, g []float64) {
	if len(p) == 0 {
		return
	}
	if a.slots == nil {
		a.slots = map[*float64][2][]float64{}
	}
	s, ok := a.slots[&p[0]]
	if !ok {
		s = [2][]float64{make([]float64, len(p)), make([]float64, len(p))}
		a.slots[&p[0]] = s
	}
	m, v := s[0], s[1]
	t := float64(fu.Maxi(a.step, 1))
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))
	for i, x := range g {
		m[i] = a.Beta1*m[i] + (1-a.Beta1)*x
		v[i] = a.Beta2*v[i] + (1-a.Beta2)*x*x
		p[i] -= lr * m[i] / (math.Sqrt(v[i]) + a.Epsilon)
	}
}
