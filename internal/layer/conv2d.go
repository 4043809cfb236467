package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/seqnet/internal/opt"
)

// Convolution implements a 2D convolutional layer over a flattened
// multi-channel input.
//
// Every (filter, channel) pair has its own bias. Forward adds the bias of
// each channel once, so an output cell of filter f receives Σ_c bias(f, c).
type Convolution struct {
	base
	plane
	filterNum int

	// Filters: [channel, filterNum, filterSize, filterSize]
	filters *opt.Param
	// Biases: [filterNum, channel]
	biases *opt.Param

	// Saved input for backward pass
	savedInput []float64
}

// NewConvolution creates a convolution layer with filterNum filters over g.
func NewConvolution(g Geometry, filterNum int, ini Initializer) (*Convolution, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if filterNum < 1 {
		return nil, fmt.Errorf("%w: filter count %d", ErrInvalidShape, filterNum)
	}

	p := newPlane(g)
	filters := opt.NewParam(g.Channel * filterNum * g.FilterSize * g.FilterSize)
	biases := opt.NewParam(filterNum * g.Channel)
	ini.Fill(filters.Value)
	ini.Fill(biases.Value)

	return &Convolution{
		base: base{
			kind:    KindConvolution,
			inSize:  g.InputSize(),
			outSize: filterNum * p.outW * p.outH,
		},
		plane:      p,
		filterNum:  filterNum,
		filters:    filters,
		biases:     biases,
		savedInput: make([]float64, g.InputSize()),
	}, nil
}

// FilterIndex maps filter coordinates to a flat offset.
func (c *Convolution) FilterIndex(x, y, f, ch int) int {
	k := c.FilterSize
	return ch*(c.filterNum*k*k) + f*k*k + x*k + y
}

func (c *Convolution) biasIndex(f, ch int) int {
	return f*c.Channel + ch
}

// Forward computes, for every output cell, the window sum over all
// channels plus the per-channel biases. Window cells in the padding are
// skipped.
func (c *Convolution) Forward(dst, x []float64) []float64 {
	if len(x) != c.inSize {
		return nil
	}
	copy(c.savedInput, x)

	dst = resize(dst, c.outSize)
	clear(dst)

	w := c.filters.Value
	for ch := 0; ch < c.Channel; ch++ {
		for ow := 0; ow < c.outW; ow++ {
			for oh := 0; oh < c.outH; oh++ {
				for f := 0; f < c.filterNum; f++ {
					o := c.OutputIndex(ow, oh, f)
					sum := dst[o]
					for kx := 0; kx < c.FilterSize; kx++ {
						iw, ok := c.source(ow, kx, c.Width)
						if !ok {
							continue
						}
						for ky := 0; ky < c.FilterSize; ky++ {
							ih, ok := c.source(oh, ky, c.Height)
							if !ok {
								continue
							}
							sum += x[c.InputIndex(iw, ih, ch)] * w[c.FilterIndex(kx, ky, f, ch)]
						}
					}
					dst[o] = sum + c.biases.Value[c.biasIndex(f, ch)]
				}
			}
		}
	}
	return dst
}

// Backward routes each output gradient to the input cells its window read,
// weighted by the filter, and accumulates filter and bias gradients.
func (c *Convolution) Backward(dst, grad []float64) []float64 {
	if len(grad) != c.outSize {
		return nil
	}

	dst = resize(dst, c.inSize)
	clear(dst)

	w := c.filters.Value
	gw := c.filters.Grad
	for ch := 0; ch < c.Channel; ch++ {
		for f := 0; f < c.filterNum; f++ {
			for ow := 0; ow < c.outW; ow++ {
				for oh := 0; oh < c.outH; oh++ {
					g := grad[c.OutputIndex(ow, oh, f)]
					for kx := 0; kx < c.FilterSize; kx++ {
						iw, ok := c.source(ow, kx, c.Width)
						if !ok {
							continue
						}
						for ky := 0; ky < c.FilterSize; ky++ {
							ih, ok := c.source(oh, ky, c.Height)
							if !ok {
								continue
							}
							i := c.InputIndex(iw, ih, ch)
							k := c.FilterIndex(kx, ky, f, ch)
							dst[i] += g * w[k]
							gw[k] += g * c.savedInput[i]
						}
					}
					c.biases.Grad[c.biasIndex(f, ch)] += g
				}
			}
		}
	}
	return dst
}

// Params returns the filter and bias buffers.
func (c *Convolution) Params() []*opt.Param {
	return []*opt.Param{c.filters, c.biases}
}

// Update applies o to the filters and biases.
func (c *Convolution) Update(o opt.Optimizer) {
	applyAll(o, c.filters, c.biases)
}

// Geometry returns the input and window shape.
func (c *Convolution) Geometry() Geometry {
	return c.plane.Geometry
}

// FilterNum returns the number of filters.
func (c *Convolution) FilterNum() int {
	return c.filterNum
}

// Filter returns the weight at window offset (x, y) of filter f on channel ch.
func (c *Convolution) Filter(x, y, f, ch int) float64 {
	return c.filters.Value[c.FilterIndex(x, y, f, ch)]
}

// SetFilter sets the weight at window offset (x, y) of filter f on channel ch.
func (c *Convolution) SetFilter(x, y, f, ch int, v float64) {
	c.filters.Value[c.FilterIndex(x, y, f, ch)] = v
}

// Bias returns the bias of filter f on channel ch.
func (c *Convolution) Bias(f, ch int) float64 {
	return c.biases.Value[c.biasIndex(f, ch)]
}

// SetBias sets the bias of filter f on channel ch.
func (c *Convolution) SetBias(f, ch int, v float64) {
	c.biases.Value[c.biasIndex(f, ch)] = v
}
