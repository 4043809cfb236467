// Package opt provides optimization algorithms.
package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultLearningRate is the step used by plain gradient descent when the
// caller has no preference.
const DefaultLearningRate = 0.001

// Param is one learnable buffer of a layer together with its accumulated
// gradient and, once Adam has been used, its moment estimates.
//
// Grad holds the descent direction: layers accumulate
// outputGrad × input with outputGrad = teacher − output, so updates add it.
type Param struct {
	Value    []float64
	Grad     []float64
	Moment   []float64
	Velocity []float64
}

// NewParam allocates a parameter buffer of n values.
func NewParam(n int) *Param {
	return &Param{
		Value: make([]float64, n),
		Grad:  make([]float64, n),
	}
}

// Len returns the number of values in the buffer.
func (p *Param) Len() int {
	return len(p.Value)
}

// ZeroGrad clears the accumulated gradient.
func (p *Param) ZeroGrad() {
	clear(p.Grad)
}

// ResetMoments zeroes the Adam moment and velocity estimates.
func (p *Param) ResetMoments() {
	clear(p.Moment)
	clear(p.Velocity)
}

// NormalizeGrad scales the accumulated gradient to unit L2 norm.
// An all-zero gradient is left untouched.
//
// Older engines divided by the sum of squares without the square root, which
// does not give unit length; step sizes differ from networks trained that way.
func (p *Param) NormalizeGrad() {
	norm := floats.Norm(p.Grad, 2)
	if norm > 0 {
		floats.Scale(1/norm, p.Grad)
	}
}

// Optimizer applies an accumulated gradient to a parameter buffer and
// resets the accumulator.
type Optimizer interface {
	Apply(p *Param)
}

// RateSetter is implemented by optimizers whose step size can be changed
// between updates (used by schedulers).
type RateSetter interface {
	Rate() float64
	SetRate(rate float64)
}

// SGD is plain gradient descent: value += rate × grad.
type SGD struct {
	LearningRate float64
}

// NewSGD creates a plain gradient-descent optimizer.
func NewSGD(rate float64) *SGD {
	return &SGD{LearningRate: rate}
}

// Apply updates p in place and zeroes its gradient.
func (s *SGD) Apply(p *Param) {
	floats.AddScaled(p.Value, s.LearningRate, p.Grad)
	p.ZeroGrad()
}

// Rate returns the learning rate.
func (s *SGD) Rate() float64 { return s.LearningRate }

// SetRate sets the learning rate.
func (s *SGD) SetRate(rate float64) { s.LearningRate = rate }

// Adam optimizer for faster convergence.
//
// Moment and velocity are raw exponential averages. The bias correction
// divides by (1−β1) and (1−β2) on every step, without a step counter.
type Adam struct {
	Alpha   float64 // Step size
	Beta1   float64 // Exponential decay rate for first moment
	Beta2   float64 // Exponential decay rate for second moment
	Epsilon float64 // Small constant for numerical stability
}

// NewAdam creates a new Adam optimizer with default decay values.
func NewAdam(alpha float64) *Adam {
	return &Adam{
		Alpha:   alpha,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
	}
}

// DefaultAdam returns Adam with α=0.001, β1=0.9, β2=0.999, ε=1e-8.
func DefaultAdam() *Adam {
	return NewAdam(0.001)
}

// Apply performs one Adam step on p and zeroes its gradient.
// Moment buffers are allocated on first use and persist across steps.
func (a *Adam) Apply(p *Param) {
	n := len(p.Value)
	if len(p.Moment) != n {
		p.Moment = make([]float64, n)
	}
	if len(p.Velocity) != n {
		p.Velocity = make([]float64, n)
	}

	b1, b2 := a.Beta1, a.Beta2
	for i, g := range p.Grad {
		p.Moment[i] = b1*p.Moment[i] + (1-b1)*g
		p.Velocity[i] = b2*p.Velocity[i] + (1-b2)*g*g

		m := p.Moment[i] / (1 - b1)
		v := p.Velocity[i] / (1 - b2)
		p.Value[i] += a.Alpha * m / (math.Sqrt(v) + a.Epsilon)
	}
	p.ZeroGrad()
}

// Rate returns the step size α.
func (a *Adam) Rate() float64 { return a.Alpha }

// SetRate sets the step size α.
func (a *Adam) SetRate(rate float64) { a.Alpha = rate }
