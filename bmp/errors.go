package bmp

import "errors"

var (
	// ErrMalformedHeader means the buffer is too short for the headers or the
	// pixel offset points inside them.
	ErrMalformedHeader = errors.New("bmp: malformed header")
	// ErrInvalidDimensions means a zero width or height, or dimensions whose
	// pixel data size is not representable.
	ErrInvalidDimensions = errors.New("bmp: invalid dimensions")
	// ErrTruncatedPixelData means the buffer ends before the pixel payload does.
	ErrTruncatedPixelData = errors.New("bmp: truncated pixel data")
	// ErrAllocation means the pixel buffers could not be acquired, which
	// happens when they exceed the decoder's size limit.
	ErrAllocation = errors.New("bmp: pixel buffer allocation refused")
)
