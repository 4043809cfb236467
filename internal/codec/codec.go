// Package codec encodes the fixed-width little-endian fields of the network
// file format: 4-byte unsigned integers and 8-byte IEEE-754 floats.
package codec

import (
	"encoding/binary"
	"math"
)

// Field widths in bytes.
const (
	Uint32Size  = 4
	Float64Size = 8
)

// Writer appends fields to a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer that appends to buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Uint32 appends v.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Int appends a non-negative int as a uint32.
func (w *Writer) Int(v int) {
	w.Uint32(uint32(v))
}

// Float64 appends the IEEE-754 bits of v.
func (w *Writer) Float64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// Float64s appends every value of vs.
func (w *Writer) Float64s(vs []float64) {
	for _, v := range vs {
		w.Float64(v)
	}
}

// Bytes returns the encoded data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of encoded bytes.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Reader consumes fields from a byte slice. Every read is bounds-checked;
// after the first failure all reads keep failing with the same error.
type Reader struct {
	data []byte
	off  int
	err  error
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if have := len(r.data) - r.off; have < n {
		r.err = &DecodeError{Field: field, Offset: r.off, Need: n, Have: have}
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Uint32 reads a 4-byte unsigned integer.
func (r *Reader) Uint32(field string) (uint32, error) {
	b := r.take(field, Uint32Size)
	if b == nil {
		return 0, r.err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int reads a 4-byte unsigned integer as an int.
func (r *Reader) Int(field string) (int, error) {
	v, err := r.Uint32(field)
	return int(v), err
}

// Float64 reads an 8-byte float.
func (r *Reader) Float64(field string) (float64, error) {
	b := r.take(field, Float64Size)
	if b == nil {
		return 0, r.err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
