package layer

import "fmt"

// Geometry describes the spatial shape of a filter layer's input and its
// sliding window.
//
// Buffers are flattened channel-major, then width, then height:
// element (w, h, c) of the input sits at c·(Height·Width) + w·Height + h.
type Geometry struct {
	Width      int
	Height     int
	Channel    int
	FilterSize int
	Stride     int
	Padding    int
}

// Validate reports whether g describes at least one window placement.
func (g Geometry) Validate() error {
	switch {
	case g.Width < 1 || g.Height < 1 || g.Channel < 1:
		return fmt.Errorf("%w: input %dx%dx%d", ErrInvalidShape, g.Width, g.Height, g.Channel)
	case g.FilterSize < 1:
		return fmt.Errorf("%w: filter size %d", ErrInvalidShape, g.FilterSize)
	case g.Stride < 1:
		return fmt.Errorf("%w: stride %d", ErrInvalidShape, g.Stride)
	case g.Padding < 0:
		return fmt.Errorf("%w: padding %d", ErrInvalidShape, g.Padding)
	case g.Width+2*g.Padding < g.FilterSize || g.Height+2*g.Padding < g.FilterSize:
		return fmt.Errorf("%w: filter %d exceeds padded input %dx%d",
			ErrInvalidShape, g.FilterSize, g.Width+2*g.Padding, g.Height+2*g.Padding)
	}
	return nil
}

// OutWidth is the number of window placements along the width. Remainders
// that do not fit a full stride are truncated.
func (g Geometry) OutWidth() int {
	return (g.Width+2*g.Padding-g.FilterSize)/g.Stride + 1
}

// OutHeight is the number of window placements along the height.
func (g Geometry) OutHeight() int {
	return (g.Height+2*g.Padding-g.FilterSize)/g.Stride + 1
}

// InputSize is Channel·Width·Height.
func (g Geometry) InputSize() int {
	return g.Channel * g.Width * g.Height
}

// InputIndex maps input coordinates to a flat offset.
func (g Geometry) InputIndex(w, h, c int) int {
	return c*(g.Height*g.Width) + w*g.Height + h
}

// plane holds the derived output extents of a filter layer so the hot loops
// do not recompute them.
type plane struct {
	Geometry
	outW int
	outH int
}

func newPlane(g Geometry) plane {
	return plane{Geometry: g, outW: g.OutWidth(), outH: g.OutHeight()}
}

// OutputIndex maps output coordinates (placement ow, oh of filter f) to a
// flat offset.
func (p *plane) OutputIndex(ow, oh, f int) int {
	return f*(p.outH*p.outW) + ow*p.outH + oh
}

// source returns the input coordinate read by window offset k of placement
// o, and whether it lies inside the unpadded input of extent n.
func (p *plane) source(o, k, n int) (int, bool) {
	i := o*p.Stride + k - p.Padding
	return i, i >= 0 && i < n
}
