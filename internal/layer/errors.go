package layer

import "errors"

// ErrInvalidShape is returned by constructors given dimensions that cannot
// describe a layer: zero sizes, a zero stride, or a filter wider than the
// padded input.
var ErrInvalidShape = errors.New("layer: invalid shape")
