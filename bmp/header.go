package bmp

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// FileHeaderSize is the size of the fixed leading block of a bitmap file.
	FileHeaderSize = 14
	// BytesPerPixel of the only supported pixel layout: blue, green, red.
	BytesPerPixel = 3

	// minFormatHeaderSize covers the width and height fields.
	minFormatHeaderSize = 12

	// CaptureWidth and CaptureHeight are the camera's fixed resolution.
	CaptureWidth  = 128
	CaptureHeight = 128
	// CaptureHeaderSize is file header plus a 40 byte info header.
	CaptureHeaderSize = FileHeaderSize + 40
	// CaptureSize is the length of a raw camera capture: 49206 bytes.
	CaptureSize = CaptureHeaderSize + CaptureWidth*CaptureHeight*BytesPerPixel
)

// Header holds the metadata of a bitmap file.
type Header struct {
	// Signature is the first two bytes of the file, "BM" for well-formed files.
	// It is not validated.
	Signature [2]byte
	// FileSize is the total file size declared in the file header.
	// It is not checked against the buffer length.
	FileSize uint32
	// PixelOffset is the byte offset at which pixel data begins.
	PixelOffset uint32
	Width       int
	// Height is always positive. The sign of the stored value is kept in TopDown.
	Height int
	// TopDown is true when the stored height was negative, meaning the first
	// row of pixel data is the top row of the picture.
	TopDown bool
	// BitsPerPixel as declared in the format header, 0 if the header is too short
	// to hold it. Decode assumes 24 regardless.
	BitsPerPixel uint16
}

// FormatHeaderSize returns the length of the format header block.
func (h Header) FormatHeaderSize() int {
	return int(h.PixelOffset) - FileHeaderSize
}

// PixelDataSize returns the length of the pixel payload, Width*Height*3.
func (h Header) PixelDataSize() int {
	return h.Width * h.Height * BytesPerPixel
}

// Size returns the number of bytes a buffer must hold to decode
// the header's image: the pixel offset plus the pixel payload.
func (h Header) Size() int {
	return int(h.PixelOffset) + h.PixelDataSize()
}

// ParseHeader reads and validates the file and format headers of raw.
// It checks that raw is long enough to hold both headers and that the
// pixel payload size is representable, but not that raw holds the payload.
func ParseHeader(raw []byte) (Header, error) {
	var h Header
	if len(raw) < FileHeaderSize {
		return h, fmt.Errorf("%w: %d bytes, need %d for file header", ErrMalformedHeader, len(raw), FileHeaderSize)
	}
	copy(h.Signature[:], raw[0:2])
	h.FileSize = binary.LittleEndian.Uint32(raw[2:6])
	h.PixelOffset = binary.LittleEndian.Uint32(raw[10:14])
	if h.PixelOffset < FileHeaderSize {
		return h, fmt.Errorf("%w: pixel offset %d inside file header", ErrMalformedHeader, h.PixelOffset)
	}
	formatLen := uint64(h.PixelOffset) - FileHeaderSize
	if formatLen < minFormatHeaderSize {
		return h, fmt.Errorf("%w: format header of %d bytes can not hold dimensions", ErrMalformedHeader, formatLen)
	}
	if uint64(len(raw)) < uint64(h.PixelOffset) {
		return h, fmt.Errorf("%w: %d bytes, pixel offset is %d", ErrMalformedHeader, len(raw), h.PixelOffset)
	}

	format := raw[FileHeaderSize:h.PixelOffset]
	width := uint64(binary.LittleEndian.Uint32(format[4:8]))
	height := int64(int32(binary.LittleEndian.Uint32(format[8:12])))
	if height < 0 {
		height = -height
		h.TopDown = true
	}
	if len(format) >= 16 {
		h.BitsPerPixel = binary.LittleEndian.Uint16(format[14:16])
	}
	if width == 0 || height == 0 {
		return h, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > math.MaxInt || uint64(height) > math.MaxInt ||
		width > uint64(math.MaxInt)/BytesPerPixel/uint64(height) ||
		uint64(h.PixelOffset) > uint64(math.MaxInt)-width*uint64(height)*BytesPerPixel {
		return h, fmt.Errorf("%w: %dx%d overflows pixel data size", ErrInvalidDimensions, width, height)
	}
	h.Width, h.Height = int(width), int(height)
	return h, nil
}
