// Package layer provides neural network layer implementations.
//
// Every layer maps a fixed-size input vector to a fixed-size output vector.
// Forward records what Backward needs; Backward adds into the parameter
// gradient accumulators and returns the gradient for the previous layer;
// Update applies the accumulated gradients and clears them.
package layer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// Kind tags a layer type in the binary format.
type Kind uint32

// Layer kinds. Blank terminates a serialized layer list.
const (
	KindBlank       Kind = 0x00000000
	KindAffine      Kind = 0x10000000
	KindReLU        Kind = 0x20000000
	KindRReLU       Kind = 0x20000001
	KindLReLU       Kind = 0x20000002
	KindSigmoid     Kind = 0x30000000
	KindSoftMax     Kind = 0x40000000
	KindConvolution Kind = 0x50000000
	KindMaxPooling  Kind = 0x60000000
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "Blank"
	case KindAffine:
		return "Affine"
	case KindReLU:
		return "ReLU"
	case KindRReLU:
		return "RReLU"
	case KindLReLU:
		return "LReLU"
	case KindSigmoid:
		return "Sigmoid"
	case KindSoftMax:
		return "SoftMax"
	case KindConvolution:
		return "Convolution"
	case KindMaxPooling:
		return "MaxPooling"
	}
	return fmt.Sprintf("Kind(%#08x)", uint32(k))
}

// Layer is a neural network layer.
//
// The set of implementations is closed: *Affine, *ReLU, *RReLU, *LReLU,
// *Sigmoid, *SoftMax, *Convolution and *MaxPooling.
//
// Forward and Backward write into dst when it has enough capacity and
// return the written slice. A vector of the wrong length is ignored and
// nil is returned.
type Layer interface {
	Kind() Kind
	InputSize() int
	OutputSize() int
	Forward(dst, x []float64) []float64
	Backward(dst, grad []float64) []float64

	// Params returns the learnable buffers, or nil.
	Params() []*opt.Param

	// Update applies the accumulated gradients with o and clears them.
	Update(o opt.Optimizer)

	sealed()
}

// base carries the sizes and tag shared by all layers.
type base struct {
	kind    Kind
	inSize  int
	outSize int
}

func (b *base) Kind() Kind           { return b.kind }
func (b *base) InputSize() int       { return b.inSize }
func (b *base) OutputSize() int      { return b.outSize }
func (b *base) Params() []*opt.Param { return nil }
func (b *base) Update(opt.Optimizer) {}
func (b *base) sealed()              {}

// resize returns buf with length n, reallocating only when it is too small.
func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

// applyAll runs o over every parameter buffer.
func applyAll(o opt.Optimizer, params ...*opt.Param) {
	for _, p := range params {
		o.Apply(p)
	}
}

// Affine is a fully connected layer: output = W·input + b.
//
// W is stored row-major by output index, so the weight joining input i to
// output o lives at o*in + i.
type Affine struct {
	base

	weights *opt.Param
	biases  *opt.Param

	w     *mat.Dense // view over weights.Value
	gradW *mat.Dense // view over weights.Grad

	input    []float64
	inputVec *mat.VecDense // view over input
}

// NewAffine creates an affine layer with weights and biases drawn by ini.
func NewAffine(in, out int, ini Initializer) (*Affine, error) {
	if in < 1 || out < 1 {
		return nil, fmt.Errorf("%w: affine %dx%d", ErrInvalidShape, in, out)
	}

	weights := opt.NewParam(out * in)
	biases := opt.NewParam(out)
	ini.Fill(weights.Value)
	ini.Fill(biases.Value)

	input := make([]float64, in)
	return &Affine{
		base:     base{kind: KindAffine, inSize: in, outSize: out},
		weights:  weights,
		biases:   biases,
		w:        mat.NewDense(out, in, weights.Value),
		gradW:    mat.NewDense(out, in, weights.Grad),
		input:    input,
		inputVec: mat.NewVecDense(in, input),
	}, nil
}

// Forward computes W·x + b.
func (d *Affine) Forward(dst, x []float64) []float64 {
	if len(x) != d.inSize {
		return nil
	}
	copy(d.input, x)

	dst = resize(dst, d.outSize)
	out := mat.NewVecDense(d.outSize, dst)
	out.MulVec(d.w, d.inputVec)
	floats.Add(dst, d.biases.Value)
	return dst
}

// Backward computes Wᵀ·grad and accumulates grad ⊗ input into the weight
// gradient and grad into the bias gradient.
func (d *Affine) Backward(dst, grad []float64) []float64 {
	if len(grad) != d.outSize {
		return nil
	}

	g := mat.NewVecDense(d.outSize, grad)
	dst = resize(dst, d.inSize)
	mat.NewVecDense(d.inSize, dst).MulVec(d.w.T(), g)

	d.gradW.RankOne(d.gradW, 1, g, d.inputVec)
	floats.Add(d.biases.Grad, grad)
	return dst
}

// Params returns the weight and bias buffers.
func (d *Affine) Params() []*opt.Param {
	return []*opt.Param{d.weights, d.biases}
}

// Update applies o to the weights and biases.
func (d *Affine) Update(o opt.Optimizer) {
	applyAll(o, d.weights, d.biases)
}

// Weight returns the weight joining input i to output o.
func (d *Affine) Weight(i, o int) float64 {
	return d.weights.Value[o*d.inSize+i]
}

// SetWeight sets the weight joining input i to output o.
func (d *Affine) SetWeight(i, o int, v float64) {
	d.weights.Value[o*d.inSize+i] = v
}

// Bias returns the bias of output o.
func (d *Affine) Bias(o int) float64 {
	return d.biases.Value[o]
}

// SetBias sets the bias of output o.
func (d *Affine) SetBias(o int, v float64) {
	d.biases.Value[o] = v
}
