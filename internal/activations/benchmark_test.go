// Package activations provides benchmarks for activation functions.
package activations

import (
	"math/rand/v2"
	"testing"
)

// fillRandom fills a slice with random values.
func fillRandom(slice []float64) {
	for i := range slice {
		slice[i] = rand.Float64()*2 - 1
	}
}

// BenchmarkReLUFull benchmarks the ReLU activation and derivative.
func BenchmarkReLUFull(b *testing.B) {
	relu := ReLU{}
	inputs := make([]float64, 1000)
	fillRandom(inputs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, x := range inputs {
			_ = relu.Activate(x)
			_ = relu.Derivative(x)
		}
	}
}

// BenchmarkSigmoidFull benchmarks the Sigmoid activation and derivative.
func BenchmarkSigmoidFull(b *testing.B) {
	sigmoid := Sigmoid{}
	inputs := make([]float64, 1000)
	fillRandom(inputs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, x := range inputs {
			y := sigmoid.Activate(x)
			_ = sigmoid.OutputDerivative(y)
		}
	}
}

// BenchmarkLeakyReLUFull benchmarks the LeakyReLU activation and derivative.
func BenchmarkLeakyReLUFull(b *testing.B) {
	leakyReLU := NewLeakyReLU(0.01)
	inputs := make([]float64, 1000)
	fillRandom(inputs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, x := range inputs {
			_ = leakyReLU.Activate(x)
			_ = leakyReLU.Derivative(x)
		}
	}
}

// BenchmarkSoftmaxActivate benchmarks the Softmax activation.
func BenchmarkSoftmaxActivate(b *testing.B) {
	softmax := Softmax{}
	inputs := make([]float64, 1000)
	out := make([]float64, 1000)
	fillRandom(inputs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = softmax.Activate(out, inputs)
	}
}
