package layer

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Scheme selects how initial weights are drawn.
type Scheme int

const (
	// InitNormal uses standard-normal samples directly.
	InitNormal Scheme = iota
	// InitSquaredNormal squares each standard-normal sample, so every
	// initial value is non-negative.
	InitSquaredNormal
)

func (s Scheme) String() string {
	switch s {
	case InitNormal:
		return "normal"
	case InitSquaredNormal:
		return "squared-normal"
	}
	return "unknown"
}

// Initializer draws initial parameter values. A nil Src uses the global
// math/rand/v2 source.
type Initializer struct {
	Scheme Scheme
	Src    rand.Source
}

// Fill overwrites dst with fresh samples.
func (in Initializer) Fill(dst []float64) {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: in.Src}
	for i := range dst {
		v := dist.Rand()
		if in.Scheme == InitSquaredNormal {
			v *= v
		}
		dst[i] = v
	}
}
