package layer

// MaxPooling implements 2D max pooling per channel.
// Stores argmax indices for correct gradient flow during backward pass.
type MaxPooling struct {
	base
	plane

	// Stores the input index of the max value for each output position,
	// or -1 when no input cell beat the out-of-range start.
	argmax []int
}

// NewMaxPooling creates a max pooling layer over g. The output has one map
// per input channel.
func NewMaxPooling(g Geometry) (*MaxPooling, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	p := newPlane(g)
	out := g.Channel * p.outW * p.outH
	return &MaxPooling{
		base: base{
			kind:    KindMaxPooling,
			inSize:  g.InputSize(),
			outSize: out,
		},
		plane:  p,
		argmax: make([]int, out),
	}, nil
}

// Forward takes the maximum of every window. The initial candidate is the
// input cell at the unpadded placement (ow*stride, oh*stride); when that cell
// is outside the input the candidate is 0 with no source. Later cells win
// only when strictly greater.
func (m *MaxPooling) Forward(dst, x []float64) []float64 {
	if len(x) != m.inSize {
		return nil
	}
	dst = resize(dst, m.outSize)

	for c := 0; c < m.Channel; c++ {
		for ow := 0; ow < m.outW; ow++ {
			for oh := 0; oh < m.outH; oh++ {
				o := m.OutputIndex(ow, oh, c)

				best, idx := 0.0, -1
				if w0, h0 := ow*m.Stride, oh*m.Stride; w0 < m.Width && h0 < m.Height {
					idx = m.InputIndex(w0, h0, c)
					best = x[idx]
				}

				for kx := 0; kx < m.FilterSize; kx++ {
					iw, ok := m.source(ow, kx, m.Width)
					if !ok {
						continue
					}
					for ky := 0; ky < m.FilterSize; ky++ {
						ih, ok := m.source(oh, ky, m.Height)
						if !ok {
							continue
						}
						i := m.InputIndex(iw, ih, c)
						if x[i] > best {
							best, idx = x[i], i
						}
					}
				}

				dst[o] = best
				m.argmax[o] = idx
			}
		}
	}
	return dst
}

// Backward sends each output gradient to the input that won its window.
// Every other input receives zero.
func (m *MaxPooling) Backward(dst, grad []float64) []float64 {
	if len(grad) != m.outSize {
		return nil
	}
	dst = resize(dst, m.inSize)
	clear(dst)

	for o, g := range grad {
		if i := m.argmax[o]; i >= 0 {
			dst[i] += g
		}
	}
	return dst
}

// Geometry returns the input and window shape.
func (m *MaxPooling) Geometry() Geometry {
	return m.plane.Geometry
}

// Argmax returns the input index selected for output o by the last
// Forward, or -1 when no input cell was selected.
func (m *MaxPooling) Argmax(o int) int {
	return m.argmax[o]
}
