// Package activations provides the elementwise nonlinearities used by the
// activation layers.
package activations

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// ReLU activation function.
//
// An input is active when it is non-negative, so the derivative at zero is 1.
type ReLU struct{}

// Active reports whether x passes through unchanged.
func (r ReLU) Active(x float64) bool {
	return x >= 0
}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

// Derivative returns 1 if x >= 0, else 0
func (r ReLU) Derivative(x float64) float64 {
	if x < 0 {
		return 0
	}
	return 1
}

// LeakyReLU scales negative inputs by Alpha.
type LeakyReLU struct {
	Alpha float64 // Slope for x < 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) LeakyReLU {
	return LeakyReLU{Alpha: alpha}
}

// Activate computes x if x >= 0, else alpha*x
func (l LeakyReLU) Activate(x float64) float64 {
	if x < 0 {
		return l.Alpha * x
	}
	return x
}

// Derivative returns 1 if x >= 0, else alpha
func (l LeakyReLU) Derivative(x float64) float64 {
	if x < 0 {
		return l.Alpha
	}
	return 1
}

// Sigmoid activation function.
type Sigmoid struct{}

// sigmoid computes the sigmoid function
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	return s.OutputDerivative(sigmoid(x))
}

// OutputDerivative computes the derivative from an already activated value y.
func (s Sigmoid) OutputDerivative(y float64) float64 {
	return y * (1 - y)
}

// Softmax activation function for output layer.
type Softmax struct{}

// Activate writes softmax(x) into dst and returns it. dst may alias x.
// The maximum is subtracted before exponentiating so large inputs cannot
// overflow.
func (s Softmax) Activate(dst, x []float64) []float64 {
	if len(x) == 0 {
		return dst[:0]
	}
	maxVal := floats.Max(x)

	for i, v := range x {
		dst[i] = math.Exp(v - maxVal)
	}

	// Normalize
	floats.Scale(1/floats.Sum(dst[:len(x)]), dst[:len(x)])
	return dst[:len(x)]
}
