// Package loss provides the two training losses of the engine.
//
// Both losses report the per-output gradient as teacher − output. That is
// the descent direction: optimizers add it to the parameters. For
// CrossEntropy the formula is only exact when the last layer is a softmax.
package loss

import "math"

// DefaultEpsilon keeps log away from zero in CrossEntropy.
const DefaultEpsilon = 1e-7

// BackwardInPlacer is an optional interface for loss functions that support
// in-place gradient computation to avoid allocations.
type BackwardInPlacer interface {
	BackwardInPlace(output, teacher, grad []float64)
}

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between output and teacher values.
	// It returns 0 when the lengths differ.
	Forward(output, teacher []float64) float64

	// Backward returns teacher − output in a newly allocated slice,
	// or nil when the lengths differ.
	Backward(output, teacher []float64) []float64
}

// Square is the summed squared error Σ(teacher − output)².
type Square struct{}

// Forward computes Σ(teacher − output)².
func (Square) Forward(output, teacher []float64) float64 {
	if len(output) != len(teacher) {
		return 0
	}

	var sum float64
	for i, t := range teacher {
		diff := t - output[i]
		sum += diff * diff
	}
	return sum
}

// Backward computes teacher − output.
func (s Square) Backward(output, teacher []float64) []float64 {
	return allocBackward(s, output, teacher)
}

// BackwardInPlace stores teacher − output in grad.
func (Square) BackwardInPlace(output, teacher, grad []float64) {
	difference(output, teacher, grad)
}

// CrossEntropy is Σ −teacher·log(output + ε).
type CrossEntropy struct {
	Epsilon float64
}

// NewCrossEntropy returns a CrossEntropy with DefaultEpsilon.
func NewCrossEntropy() CrossEntropy {
	return CrossEntropy{Epsilon: DefaultEpsilon}
}

// Forward computes Σ −teacher·log(output + ε).
func (c CrossEntropy) Forward(output, teacher []float64) float64 {
	if len(output) != len(teacher) {
		return 0
	}

	var sum float64
	for i, t := range teacher {
		sum -= t * math.Log(output[i]+c.Epsilon)
	}
	return sum
}

// Backward computes teacher − output.
func (c CrossEntropy) Backward(output, teacher []float64) []float64 {
	return allocBackward(c, output, teacher)
}

// BackwardInPlace stores teacher − output in grad.
func (CrossEntropy) BackwardInPlace(output, teacher, grad []float64) {
	difference(output, teacher, grad)
}

func allocBackward(b BackwardInPlacer, output, teacher []float64) []float64 {
	if len(output) != len(teacher) {
		return nil
	}
	grad := make([]float64, len(output))
	b.BackwardInPlace(output, teacher, grad)
	return grad
}

// difference writes teacher − output into grad; mismatched lengths leave
// grad untouched.
func difference(output, teacher, grad []float64) {
	if len(output) != len(teacher) || len(grad) != len(output) {
		return
	}
	for i, t := range teacher {
		grad[i] = t - output[i]
	}
}
