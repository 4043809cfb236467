package net

import "errors"

var (
	// ErrIncompatibleLayer is returned when a layer's input size does not
	// match the output size of the current last layer.
	ErrIncompatibleLayer = errors.New("net: layer input does not match previous output")

	// ErrUnknownKind is returned for a kind tag outside the known set.
	ErrUnknownKind = errors.New("net: unknown layer kind")

	// ErrMissingTerminator is returned when data ends at a record boundary
	// without the Blank tag.
	ErrMissingTerminator = errors.New("net: missing terminator")

	// ErrLayerTooLarge is returned when decoded dimensions describe buffers
	// larger than MaxElements or than the remaining data.
	ErrLayerTooLarge = errors.New("net: layer too large")

	// ErrInvalidConfig is returned by TrainConfig.Validate.
	ErrInvalidConfig = errors.New("net: invalid train config")
)
