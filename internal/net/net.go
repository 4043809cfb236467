// Package net provides the network container: an ordered chain of layers
// driven forward and backward over shared scratch buffers.
//
// A Network is not safe for concurrent use.
package net

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/loss"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// config holds construction-time settings shared by every appended layer.
type config struct {
	src    rand.Source
	scheme layer.Scheme
}

// Option configures a Network.
type Option func(*config)

// WithSeed makes weight initialisation and RReLU slope draws reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.src = rand.NewPCG(seed, seed)
	}
}

// WithSource draws all randomness from src.
func WithSource(src rand.Source) Option {
	return func(c *config) {
		c.src = src
	}
}

// WithInit selects the weight initialisation scheme (default InitNormal).
func WithInit(s layer.Scheme) Option {
	return func(c *config) {
		c.scheme = s
	}
}

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	cfg    config

	input     []float64
	output    []float64
	lossGrad  []float64
	inputGrad []float64

	// Alternating scratch buffers for layer outputs.
	buf [2][]float64
}

// New creates an empty network.
func New(opts ...Option) *Network {
	n := &Network{}
	for _, o := range opts {
		o(&n.cfg)
	}
	return n
}

func (n *Network) initializer() layer.Initializer {
	return layer.Initializer{Scheme: n.cfg.scheme, Src: n.cfg.src}
}

// add appends l when its input size matches the current output size.
// The first layer is always accepted.
func (n *Network) add(l layer.Layer) error {
	if k := len(n.layers); k > 0 {
		if prev := n.layers[k-1].OutputSize(); prev != l.InputSize() {
			return fmt.Errorf("%w: %s expects %d inputs, previous layer outputs %d",
				ErrIncompatibleLayer, l.Kind(), l.InputSize(), prev)
		}
	}
	n.layers = append(n.layers, l)
	return nil
}

// AddAffineLayer appends a fully connected layer.
func (n *Network) AddAffineLayer(in, out int) error {
	l, err := layer.NewAffine(in, out, n.initializer())
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddReLULayer appends a ReLU layer of width size.
func (n *Network) AddReLULayer(size int) error {
	l, err := layer.NewReLU(size)
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddRReLULayer appends a randomized ReLU layer of width size.
func (n *Network) AddRReLULayer(size int) error {
	l, err := layer.NewRReLU(size, n.cfg.src)
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddLReLULayer appends a leaky ReLU layer with slope alpha.
func (n *Network) AddLReLULayer(size int, alpha float64) error {
	l, err := layer.NewLReLU(size, alpha)
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddSigmoidLayer appends a Sigmoid layer of width size.
func (n *Network) AddSigmoidLayer(size int) error {
	l, err := layer.NewSigmoid(size)
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddSoftMaxLayer appends a SoftMax layer of width size.
func (n *Network) AddSoftMaxLayer(size int) error {
	l, err := layer.NewSoftMax(size)
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddConvolutionLayer appends a convolution layer.
func (n *Network) AddConvolutionLayer(width, height, channel, filterSize, filterNum, stride, padding int) error {
	g := layer.Geometry{
		Width:      width,
		Height:     height,
		Channel:    channel,
		FilterSize: filterSize,
		Stride:     stride,
		Padding:    padding,
	}
	l, err := layer.NewConvolution(g, filterNum, n.initializer())
	if err != nil {
		return err
	}
	return n.add(l)
}

// AddMaxPoolingLayer appends a max pooling layer.
func (n *Network) AddMaxPoolingLayer(width, height, channel, filterSize, stride, padding int) error {
	g := layer.Geometry{
		Width:      width,
		Height:     height,
		Channel:    channel,
		FilterSize: filterSize,
		Stride:     stride,
		Padding:    padding,
	}
	l, err := layer.NewMaxPooling(g)
	if err != nil {
		return err
	}
	return n.add(l)
}

// Len returns the number of layers.
func (n *Network) Len() int {
	return len(n.layers)
}

// Layers returns the layers in forward order. The slice is a copy; the
// layers are shared.
func (n *Network) Layers() []layer.Layer {
	return append([]layer.Layer(nil), n.layers...)
}

// InputSize returns the input width of the first layer, or 0.
func (n *Network) InputSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[0].InputSize()
}

// OutputSize returns the output width of the last layer, or 0.
func (n *Network) OutputSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[len(n.layers)-1].OutputSize()
}

// SetInput stores a copy of x as the next Forward input.
func (n *Network) SetInput(x []float64) {
	n.input = append(n.input[:0], x...)
}

// Output returns a copy of the last Forward result, or nil when the
// network is empty.
func (n *Network) Output() []float64 {
	if len(n.layers) == 0 {
		return nil
	}
	return append([]float64(nil), n.output...)
}

// Forward pushes the stored input through every layer and returns the
// output. The returned slice is owned by the network and valid until the
// next Forward. NaNs produced by a layer are replaced with zero.
//
// When the input does not fit the first layer the stored output is left
// unchanged and nil is returned. An empty network returns nil.
func (n *Network) Forward() []float64 {
	if len(n.layers) == 0 {
		return nil
	}

	cur := n.input
	for i, l := range n.layers {
		out := l.Forward(n.buf[i&1], cur)
		if out == nil {
			return nil
		}
		n.buf[i&1] = out
		if floats.HasNaN(out) {
			for j, v := range out {
				if math.IsNaN(v) {
					out[j] = 0
				}
			}
		}
		cur = out
	}

	n.output = append(n.output[:0], cur...)
	return n.output
}

// Predict sets x as the input and runs Forward.
func (n *Network) Predict(x []float64) []float64 {
	n.SetInput(x)
	return n.Forward()
}

// Backward pushes the stored loss gradient through the layers in reverse
// order, accumulating parameter gradients, and returns the gradient with
// respect to the input. It returns nil when the network is empty or no
// loss has been computed for the current output width.
func (n *Network) Backward() []float64 {
	if len(n.layers) == 0 || len(n.lossGrad) != n.OutputSize() {
		return nil
	}

	cur := n.lossGrad
	for i := range n.layers {
		l := n.layers[len(n.layers)-1-i]
		out := l.Backward(n.buf[i&1], cur)
		if out == nil {
			return nil
		}
		n.buf[i&1] = out
		cur = out
	}

	n.inputGrad = append(n.inputGrad[:0], cur...)
	return n.inputGrad
}

// InputGradient returns a copy of the gradient computed by the last
// Backward.
func (n *Network) InputGradient() []float64 {
	return append([]float64(nil), n.inputGrad...)
}

// LossGradient returns a copy of teacher − output from the last loss
// computation.
func (n *Network) LossGradient() []float64 {
	return append([]float64(nil), n.lossGrad...)
}

// Loss computes l between the current output and teacher and stores its
// gradient for Backward. It returns 0 and leaves the stored gradient
// unchanged when the network is empty or teacher has the wrong length.
func (n *Network) Loss(l loss.Loss, teacher []float64) float64 {
	if len(n.layers) == 0 || len(teacher) != len(n.output) {
		return 0
	}

	if bp, ok := l.(loss.BackwardInPlacer); ok {
		if cap(n.lossGrad) < len(teacher) {
			n.lossGrad = make([]float64, len(teacher))
		}
		n.lossGrad = n.lossGrad[:len(teacher)]
		bp.BackwardInPlace(n.output, teacher, n.lossGrad)
	} else {
		n.lossGrad = l.Backward(n.output, teacher)
	}
	return l.Forward(n.output, teacher)
}

// SquareLoss returns Σ(teacher − output)².
func (n *Network) SquareLoss(teacher []float64) float64 {
	return n.Loss(loss.Square{}, teacher)
}

// CrossEntropyLoss returns Σ −teacher·log(output + 1e-7). Its gradient is
// teacher − output, which assumes a SoftMax last layer.
func (n *Network) CrossEntropyLoss(teacher []float64) float64 {
	return n.Loss(loss.NewCrossEntropy(), teacher)
}

// Update applies the accumulated gradients of every layer with o and
// clears them.
func (n *Network) Update(o opt.Optimizer) {
	for _, l := range n.layers {
		l.Update(o)
	}
}

// Learn applies plain gradient descent: param += rate × gradient.
func (n *Network) Learn(rate float64) {
	n.Update(opt.NewSGD(rate))
}

// LearnAdam applies one Adam step. A nil a uses opt.DefaultAdam().
func (n *Network) LearnAdam(a *opt.Adam) {
	if a == nil {
		a = opt.DefaultAdam()
	}
	n.Update(a)
}

// ResetAdam zeroes every Adam moment and velocity estimate.
func (n *Network) ResetAdam() {
	n.eachParam((*opt.Param).ResetMoments)
}

// NormalizeGradients scales each accumulated gradient buffer to unit
// L2 norm.
func (n *Network) NormalizeGradients() {
	n.eachParam((*opt.Param).NormalizeGrad)
}

// ZeroGradients discards the accumulated gradients without updating.
func (n *Network) ZeroGradients() {
	n.eachParam((*opt.Param).ZeroGrad)
}

func (n *Network) eachParam(fn func(*opt.Param)) {
	for _, l := range n.layers {
		for _, p := range l.Params() {
			fn(p)
		}
	}
}

// reset drops the stored vectors, used after the layer list is replaced.
func (n *Network) reset() {
	n.input = n.input[:0]
	n.output = n.output[:0]
	n.lossGrad = n.lossGrad[:0]
	n.inputGrad = n.inputGrad[:0]
}
