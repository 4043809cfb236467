package net

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/seqnet/internal/codec"
	"github.com/FlavioCFOliveira/seqnet/internal/layer"
)

// MaxElements bounds every buffer a decoded layer may allocate.
const MaxElements = 1 << 28

// MarshalBinary encodes the layer list.
//
// Each record is a little-endian uint32 kind tag followed by the layer's
// dimensions and learnable values. A Blank tag ends the list.
func (n *Network) MarshalBinary() ([]byte, error) {
	w := codec.NewWriter(nil)
	for _, l := range n.layers {
		if err := encodeLayer(w, l); err != nil {
			return nil, err
		}
	}
	w.Uint32(uint32(layer.KindBlank))
	return w.Bytes(), nil
}

func encodeLayer(w *codec.Writer, l layer.Layer) error {
	w.Uint32(uint32(l.Kind()))

	switch v := l.(type) {
	case *layer.Affine:
		in, out := v.InputSize(), v.OutputSize()
		w.Int(in)
		w.Int(out)
		for o := 0; o < out; o++ {
			for i := 0; i < in; i++ {
				w.Float64(v.Weight(i, o))
			}
			w.Float64(v.Bias(o))
		}

	case *layer.ReLU, *layer.Sigmoid, *layer.SoftMax:
		w.Int(l.InputSize())

	case *layer.RReLU:
		w.Int(v.InputSize())
		for i := 0; i < v.InputSize(); i++ {
			w.Float64(v.Alpha(i))
		}

	case *layer.LReLU:
		w.Int(v.InputSize())
		w.Float64(v.Alpha())

	case *layer.Convolution:
		g := v.Geometry()
		w.Int(g.Width)
		w.Int(g.Height)
		w.Int(g.Channel)
		w.Int(g.FilterSize)
		w.Int(v.FilterNum())
		w.Int(g.Stride)
		w.Int(g.Padding)
		for c := 0; c < g.Channel; c++ {
			for f := 0; f < v.FilterNum(); f++ {
				for x := 0; x < g.FilterSize; x++ {
					for y := 0; y < g.FilterSize; y++ {
						w.Float64(v.Filter(x, y, f, c))
					}
				}
				w.Float64(v.Bias(f, c))
			}
		}

	case *layer.MaxPooling:
		g := v.Geometry()
		w.Int(g.Width)
		w.Int(g.Height)
		w.Int(g.Channel)
		w.Int(g.FilterSize)
		w.Int(g.Stride)
		w.Int(g.Padding)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, l.Kind())
	}
	return nil
}

// UnmarshalBinary replaces the layer list with the one encoded in data.
// Records are replayed through the Add methods, so the decoded chain is
// validated like a hand-built one. On error the network is unchanged.
// Bytes after the terminator are ignored.
func (n *Network) UnmarshalBinary(data []byte) error {
	tmp := &Network{cfg: n.cfg}
	r := codec.NewReader(data)

	for {
		if r.Remaining() == 0 {
			return ErrMissingTerminator
		}
		tag, err := r.Uint32("kind")
		if err != nil {
			return err
		}
		kind := layer.Kind(tag)
		if kind == layer.KindBlank {
			break
		}
		if err := tmp.decodeLayer(r, kind); err != nil {
			return fmt.Errorf("layer %d (%s): %w", tmp.Len(), kind, err)
		}
	}

	n.layers = tmp.layers
	n.reset()
	return nil
}

// readDims reads count dimensions and rejects any above MaxElements.
func readDims(r *codec.Reader, names ...string) ([]int, error) {
	dims := make([]int, len(names))
	for i, name := range names {
		v, err := r.Int(name)
		if err != nil {
			return nil, err
		}
		if v > MaxElements {
			return nil, fmt.Errorf("%w: %s = %d", ErrLayerTooLarge, name, v)
		}
		dims[i] = v
	}
	return dims, nil
}

// product multiplies factors, rejecting totals above MaxElements.
func product(factors ...int) (int, error) {
	total := 1
	for _, f := range factors {
		if f != 0 && total > MaxElements/f {
			return 0, fmt.Errorf("%w: %v", ErrLayerTooLarge, factors)
		}
		total *= f
	}
	return total, nil
}

// checkPayload reports a DecodeError when fewer than count float64 values
// remain.
func checkPayload(r *codec.Reader, count int) error {
	if count > r.Remaining()/codec.Float64Size {
		return &codec.DecodeError{
			Field:  "payload",
			Offset: r.Offset(),
			Need:   count * codec.Float64Size,
			Have:   r.Remaining(),
		}
	}
	return nil
}

func (n *Network) last() layer.Layer {
	return n.layers[len(n.layers)-1]
}

func (n *Network) decodeLayer(r *codec.Reader, kind layer.Kind) error {
	switch kind {
	case layer.KindAffine:
		d, err := readDims(r, "input size", "output size")
		if err != nil {
			return err
		}
		in, out := d[0], d[1]
		count, err := product(out, in+1)
		if err != nil {
			return err
		}
		if err := checkPayload(r, count); err != nil {
			return err
		}
		if err := n.AddAffineLayer(in, out); err != nil {
			return err
		}
		a := n.last().(*layer.Affine)
		for o := 0; o < out; o++ {
			for i := 0; i < in; i++ {
				v, err := r.Float64("weight")
				if err != nil {
					return err
				}
				a.SetWeight(i, o, v)
			}
			v, err := r.Float64("bias")
			if err != nil {
				return err
			}
			a.SetBias(o, v)
		}
		return nil

	case layer.KindReLU, layer.KindSigmoid, layer.KindSoftMax:
		d, err := readDims(r, "input size")
		if err != nil {
			return err
		}
		switch kind {
		case layer.KindReLU:
			return n.AddReLULayer(d[0])
		case layer.KindSigmoid:
			return n.AddSigmoidLayer(d[0])
		default:
			return n.AddSoftMaxLayer(d[0])
		}

	case layer.KindRReLU:
		d, err := readDims(r, "input size")
		if err != nil {
			return err
		}
		if err := checkPayload(r, d[0]); err != nil {
			return err
		}
		if err := n.AddRReLULayer(d[0]); err != nil {
			return err
		}
		rr := n.last().(*layer.RReLU)
		for i := 0; i < d[0]; i++ {
			v, err := r.Float64("slope")
			if err != nil {
				return err
			}
			rr.SetAlpha(i, v)
		}
		return nil

	case layer.KindLReLU:
		d, err := readDims(r, "input size")
		if err != nil {
			return err
		}
		alpha, err := r.Float64("slope")
		if err != nil {
			return err
		}
		return n.AddLReLULayer(d[0], alpha)

	case layer.KindConvolution:
		d, err := readDims(r, "width", "height", "channel", "filter size", "filter count", "stride", "padding")
		if err != nil {
			return err
		}
		g := layer.Geometry{Width: d[0], Height: d[1], Channel: d[2], FilterSize: d[3], Stride: d[5], Padding: d[6]}
		filterNum := d[4]
		if err := g.Validate(); err != nil {
			return err
		}
		if _, err := product(g.Channel, g.Width, g.Height); err != nil {
			return err
		}
		if _, err := product(filterNum, g.OutWidth(), g.OutHeight()); err != nil {
			return err
		}
		k2, err := product(g.FilterSize, g.FilterSize)
		if err != nil {
			return err
		}
		count, err := product(g.Channel, filterNum, k2+1)
		if err != nil {
			return err
		}
		if err := checkPayload(r, count); err != nil {
			return err
		}
		if err := n.AddConvolutionLayer(g.Width, g.Height, g.Channel, g.FilterSize, filterNum, g.Stride, g.Padding); err != nil {
			return err
		}
		c := n.last().(*layer.Convolution)
		for ch := 0; ch < g.Channel; ch++ {
			for f := 0; f < filterNum; f++ {
				for x := 0; x < g.FilterSize; x++ {
					for y := 0; y < g.FilterSize; y++ {
						v, err := r.Float64("filter")
						if err != nil {
							return err
						}
						c.SetFilter(x, y, f, ch, v)
					}
				}
				v, err := r.Float64("bias")
				if err != nil {
					return err
				}
				c.SetBias(f, ch, v)
			}
		}
		return nil

	case layer.KindMaxPooling:
		d, err := readDims(r, "width", "height", "channel", "filter size", "stride", "padding")
		if err != nil {
			return err
		}
		g := layer.Geometry{Width: d[0], Height: d[1], Channel: d[2], FilterSize: d[3], Stride: d[4], Padding: d[5]}
		if err := g.Validate(); err != nil {
			return err
		}
		if _, err := product(g.Channel, g.Width, g.Height); err != nil {
			return err
		}
		if _, err := product(g.Channel, g.OutWidth(), g.OutHeight()); err != nil {
			return err
		}
		return n.AddMaxPoolingLayer(g.Width, g.Height, g.Channel, g.FilterSize, g.Stride, g.Padding)
	}

	return fmt.Errorf("%w: %#08x", ErrUnknownKind, uint32(kind))
}

// WriteTo writes the encoded network to w.
func (n *Network) WriteTo(w io.Writer) (int64, error) {
	data, err := n.MarshalBinary()
	if err != nil {
		return 0, err
	}
	written, err := w.Write(data)
	return int64(written), err
}

// ReadFrom reads r to EOF and decodes it into n.
func (n *Network) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), err
	}
	return int64(len(data)), n.UnmarshalBinary(data)
}

// Save writes the encoded network to filename.
func (n *Network) Save(filename string) error {
	data, err := n.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to save network: %w", err)
	}
	return nil
}

// Load reads a network saved with Save. Options apply to randomness used
// after loading, such as RReLU slope redraws.
func Load(filename string, opts ...Option) (*Network, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}
	n := New(opts...)
	if err := n.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return n, nil
}

// IsDecodeError reports whether err came from malformed data rather than
// from I/O.
func IsDecodeError(err error) bool {
	var de *codec.DecodeError
	return errors.As(err, &de) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrMissingTerminator) ||
		errors.Is(err, ErrLayerTooLarge) ||
		errors.Is(err, ErrIncompatibleLayer) ||
		errors.Is(err, layer.ErrInvalidShape)
}
