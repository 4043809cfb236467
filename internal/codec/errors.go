package codec

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is wrapped by every DecodeError.
var ErrShortBuffer = errors.New("codec: unexpected end of data")

// DecodeError reports a read that would run past the end of the buffer.
type DecodeError struct {
	Field  string // What was being read (e.g. "kind", "weight")
	Offset int    // Byte offset of the read
	Need   int    // Bytes the read required
	Have   int    // Bytes left at Offset
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: reading %s at offset %d: need %d bytes, have %d",
		e.Field, e.Offset, e.Need, e.Have)
}

// Unwrap returns ErrShortBuffer.
func (e *DecodeError) Unwrap() error {
	return ErrShortBuffer
}
