package hdrhistogram

import "errors"

var (
	// ErrInvalidConfig is returned by New when the construction parameters
	// cannot produce a usable bucket layout.
	ErrInvalidConfig = errors.New("invalid histogram configuration")

	// ErrIncompatibleLayout is returned by Merge when the two histograms were
	// built with different construction parameters.
	ErrIncompatibleLayout = errors.New("histogram layouts are not compatible")

	// ErrValueOutOfRange is returned by the recording methods for negative
	// values and for values above the highest trackable value.
	ErrValueOutOfRange = errors.New("value out of trackable range")
)
