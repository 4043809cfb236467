// Package opt provides benchmarks for optimizers.
package opt

import (
	"math/rand/v2"
	"testing"
)

// fillRandom fills a slice with random values.
func fillRandom(slice []float64) {
	for i := range slice {
		slice[i] = rand.Float64()
	}
}

func benchParam(n int) (*Param, []float64) {
	p := NewParam(n)
	fillRandom(p.Value)
	grads := make([]float64, n)
	fillRandom(grads)
	return p, grads
}

// BenchmarkSGDApply benchmarks SGD Apply.
func BenchmarkSGDApply(b *testing.B) {
	sgd := NewSGD(0.01)
	p, grads := benchParam(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(p.Grad, grads)
		sgd.Apply(p)
	}
}

// BenchmarkAdamApply benchmarks Adam Apply.
func BenchmarkAdamApply(b *testing.B) {
	adam := DefaultAdam()
	p, grads := benchParam(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(p.Grad, grads)
		adam.Apply(p)
	}
}

// BenchmarkAdamApplyLarge benchmarks Adam on a large buffer.
func BenchmarkAdamApplyLarge(b *testing.B) {
	adam := DefaultAdam()
	p, grads := benchParam(100000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(p.Grad, grads)
		adam.Apply(p)
	}
}

// BenchmarkNormalizeGrad benchmarks gradient normalization.
func BenchmarkNormalizeGrad(b *testing.B) {
	p, grads := benchParam(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(p.Grad, grads)
		p.NormalizeGrad()
	}
}
