package layer

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// RReLU slopes are drawn uniformly from [0, MaxRandomSlope).
const MaxRandomSlope = 0.1

func checkWidth(name string, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %s width %d", ErrInvalidShape, name, n)
	}
	return nil
}

// gate holds the per-element "was non-negative" state of the ReLU family.
type gate struct {
	base
	active []bool
}

func newGate(kind Kind, n int) gate {
	return gate{
		base:   base{kind: kind, inSize: n, outSize: n},
		active: make([]bool, n),
	}
}

// ReLU passes non-negative inputs and zeroes the rest.
type ReLU struct {
	gate
}

// NewReLU creates a ReLU layer of width n.
func NewReLU(n int) (*ReLU, error) {
	if err := checkWidth("relu", n); err != nil {
		return nil, err
	}
	return &ReLU{gate: newGate(KindReLU, n)}, nil
}

func (r *ReLU) Forward(dst, x []float64) []float64 {
	if len(x) != r.inSize {
		return nil
	}
	var f activations.ReLU
	dst = resize(dst, r.outSize)
	for i, v := range x {
		r.active[i] = f.Active(v)
		dst[i] = f.Activate(v)
	}
	return dst
}

func (r *ReLU) Backward(dst, grad []float64) []float64 {
	if len(grad) != r.outSize {
		return nil
	}
	dst = resize(dst, r.inSize)
	for i, g := range grad {
		if r.active[i] {
			dst[i] = g
		} else {
			dst[i] = 0
		}
	}
	return dst
}

// RReLU is a leaky ReLU whose negative slope is drawn per element.
// Each Update replaces every slope with the mean of itself and a fresh draw.
type RReLU struct {
	gate
	alpha []float64
	dist  distuv.Uniform
}

// NewRReLU creates an RReLU layer of width n. Slopes are drawn from src, or
// from the global source when src is nil.
func NewRReLU(n int, src rand.Source) (*RReLU, error) {
	if err := checkWidth("rrelu", n); err != nil {
		return nil, err
	}
	r := &RReLU{
		gate:  newGate(KindRReLU, n),
		alpha: make([]float64, n),
		dist:  distuv.Uniform{Min: 0, Max: MaxRandomSlope, Src: src},
	}
	for i := range r.alpha {
		r.alpha[i] = r.dist.Rand()
	}
	return r, nil
}

func (r *RReLU) Forward(dst, x []float64) []float64 {
	if len(x) != r.inSize {
		return nil
	}
	dst = resize(dst, r.outSize)
	for i, v := range x {
		f := activations.NewLeakyReLU(r.alpha[i])
		r.active[i] = v >= 0
		dst[i] = f.Activate(v)
	}
	return dst
}

func (r *RReLU) Backward(dst, grad []float64) []float64 {
	if len(grad) != r.outSize {
		return nil
	}
	dst = resize(dst, r.inSize)
	for i, g := range grad {
		if r.active[i] {
			dst[i] = g
		} else {
			dst[i] = g * r.alpha[i]
		}
	}
	return dst
}

// Update re-randomizes the slopes. The optimizer is not consulted, so plain
// descent and Adam behave the same here.
func (r *RReLU) Update(opt.Optimizer) {
	for i, a := range r.alpha {
		r.alpha[i] = 0.5 * (a + r.dist.Rand())
	}
}

// Alpha returns the negative slope of element i.
func (r *RReLU) Alpha(i int) float64 {
	return r.alpha[i]
}

// SetAlpha sets the negative slope of element i.
func (r *RReLU) SetAlpha(i int, v float64) {
	r.alpha[i] = v
}

// LReLU is a leaky ReLU with one fixed negative slope.
type LReLU struct {
	gate
	f activations.LeakyReLU
}

// NewLReLU creates an LReLU layer of width n with slope alpha.
func NewLReLU(n int, alpha float64) (*LReLU, error) {
	if err := checkWidth("lrelu", n); err != nil {
		return nil, err
	}
	return &LReLU{
		gate: newGate(KindLReLU, n),
		f:    activations.NewLeakyReLU(alpha),
	}, nil
}

func (l *LReLU) Forward(dst, x []float64) []float64 {
	if len(x) != l.inSize {
		return nil
	}
	dst = resize(dst, l.outSize)
	for i, v := range x {
		l.active[i] = v >= 0
		dst[i] = l.f.Activate(v)
	}
	return dst
}

func (l *LReLU) Backward(dst, grad []float64) []float64 {
	if len(grad) != l.outSize {
		return nil
	}
	dst = resize(dst, l.inSize)
	for i, g := range grad {
		if l.active[i] {
			dst[i] = g
		} else {
			dst[i] = g * l.f.Alpha
		}
	}
	return dst
}

// Alpha returns the negative slope.
func (l *LReLU) Alpha() float64 {
	return l.f.Alpha
}

// Sigmoid applies 1/(1+e^-x) and keeps the outputs for Backward.
type Sigmoid struct {
	base
	out []float64
}

// NewSigmoid creates a Sigmoid layer of width n.
func NewSigmoid(n int) (*Sigmoid, error) {
	if err := checkWidth("sigmoid", n); err != nil {
		return nil, err
	}
	return &Sigmoid{
		base: base{kind: KindSigmoid, inSize: n, outSize: n},
		out:  make([]float64, n),
	}, nil
}

func (s *Sigmoid) Forward(dst, x []float64) []float64 {
	if len(x) != s.inSize {
		return nil
	}
	var f activations.Sigmoid
	dst = resize(dst, s.outSize)
	for i, v := range x {
		s.out[i] = f.Activate(v)
		dst[i] = s.out[i]
	}
	return dst
}

func (s *Sigmoid) Backward(dst, grad []float64) []float64 {
	if len(grad) != s.outSize {
		return nil
	}
	var f activations.Sigmoid
	dst = resize(dst, s.inSize)
	for i, g := range grad {
		dst[i] = g * f.OutputDerivative(s.out[i])
	}
	return dst
}

// SoftMax normalizes its input into a probability distribution.
//
// Backward passes the gradient through unchanged: it expects to sit under a
// cross-entropy loss whose teacher − output gradient already accounts for
// the softmax Jacobian.
type SoftMax struct {
	base
}

// NewSoftMax creates a SoftMax layer of width n.
func NewSoftMax(n int) (*SoftMax, error) {
	if err := checkWidth("softmax", n); err != nil {
		return nil, err
	}
	return &SoftMax{base: base{kind: KindSoftMax, inSize: n, outSize: n}}, nil
}

func (s *SoftMax) Forward(dst, x []float64) []float64 {
	if len(x) != s.inSize {
		return nil
	}
	return activations.Softmax{}.Activate(resize(dst, s.outSize), x)
}

func (s *SoftMax) Backward(dst, grad []float64) []float64 {
	if len(grad) != s.outSize {
		return nil
	}
	dst = resize(dst, s.inSize)
	copy(dst, grad)
	return dst
}
