// Package bmp decodes 24-bit uncompressed bitmaps into a [Bitmap] that keeps
// two copies of the pixels: a working buffer that transforms modify and a
// pristine snapshot taken at decode time that Reset restores from.
//
// Rows are expected without padding, as produced by the device camera.
//
//	b, err := bmp.Decode(raw)
//	if err != nil {
//	    return err
//	}
//	defer b.Release()
//	b.RemoveChannel(pix.ChannelRed)
//	render(b.Working(), b.Width(), b.Height())
//	b.Reset()
//
// A Bitmap has a single owner. It is not safe for concurrent use; use [Shared]
// to hand one between goroutines.
package bmp

import (
	"fmt"
	"io"

	"github.com/doorcam/pix"
	"github.com/doorcam/pix/filters"
)

// DefaultMaxPixelBytes is the pixel payload limit of [Decode].
const DefaultMaxPixelBytes = 64 << 20

// Bitmap is a decoded image. It owns copies of all headers and pixel data,
// so it does not depend on the buffer it was decoded from.
type Bitmap struct {
	fileHeader   [FileHeaderSize]byte
	formatHeader []byte
	hdr          Header
	working      []byte
	pristine     []byte
	released     bool
}

var _ pix.ImageBuffered = (*Bitmap)(nil)

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// MaxPixelBytes caps the pixel payload size. Each decoded bitmap
	// holds two buffers of this size. Zero selects [DefaultMaxPixelBytes].
	MaxPixelBytes int
}

// Decode decodes raw with default options. See [DecodeOptions.Decode].
func Decode(raw []byte) (*Bitmap, error) {
	return DecodeOptions{}.Decode(raw)
}

// Decode validates the headers of raw against its length and copies headers
// and pixel payload into a new Bitmap. raw may be longer than needed.
//
// Errors wrap one of [ErrMalformedHeader], [ErrInvalidDimensions],
// [ErrTruncatedPixelData] or [ErrAllocation]. A buffer too short for its
// declared pixels is truncated whatever the size limit. No pixel data is
// copied before validation succeeds.
func (o DecodeOptions) Decode(raw []byte) (*Bitmap, error) {
	hdr, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	maxBytes := o.MaxPixelBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPixelBytes
	}
	if len(raw) < hdr.Size() {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncatedPixelData, len(raw), hdr.Size())
	}
	size := hdr.PixelDataSize()
	if size > maxBytes {
		return nil, fmt.Errorf("%w: %d byte pixel data exceeds limit of %d", ErrAllocation, size, maxBytes)
	}

	b := &Bitmap{
		hdr:          hdr,
		formatHeader: make([]byte, hdr.FormatHeaderSize()),
		working:      make([]byte, size),
		pristine:     make([]byte, size),
	}
	copy(b.fileHeader[:], raw)
	copy(b.formatHeader, raw[FileHeaderSize:hdr.PixelOffset])
	copy(b.working, raw[hdr.PixelOffset:hdr.Size()])
	copy(b.pristine, b.working)
	return b, nil
}

func (b *Bitmap) mustLive() {
	if b.released {
		panic("bmp: use of released Bitmap")
	}
}

// Release drops the pixel buffers and headers of b. b must not be used
// afterwards: every method, including Release, panics on a released Bitmap.
func (b *Bitmap) Release() {
	b.mustLive()
	b.released = true
	b.formatHeader = nil
	b.working = nil
	b.pristine = nil
}

// Header returns the decoded header metadata.
func (b *Bitmap) Header() Header {
	b.mustLive()
	return b.hdr
}

// Width returns the image width in pixels.
func (b *Bitmap) Width() int {
	b.mustLive()
	return b.hdr.Width
}

// Height returns the number of pixel rows, always positive.
// The sign of the stored height is reported by TopDown.
func (b *Bitmap) Height() int {
	b.mustLive()
	return b.hdr.Height
}

// TopDown reports whether the first row of pixel data is the top of the picture.
// Pixel buffers keep the row order of the file; renderers decide how to flip.
func (b *Bitmap) TopDown() bool {
	b.mustLive()
	return b.hdr.TopDown
}

// PixelDataSize returns the length of both pixel buffers.
func (b *Bitmap) PixelDataSize() int {
	b.mustLive()
	return len(b.working)
}

// FileHeader returns a copy of the file header bytes.
func (b *Bitmap) FileHeader() [FileHeaderSize]byte {
	b.mustLive()
	return b.fileHeader
}

// FormatHeader returns a copy of the format header bytes.
func (b *Bitmap) FormatHeader() []byte {
	b.mustLive()
	return append([]byte(nil), b.formatHeader...)
}

// Dims implements [pix.Image].
func (b *Bitmap) Dims() pix.Dims {
	b.mustLive()
	return pix.Dims{
		Width:  b.hdr.Width,
		Height: b.hdr.Height,
		Stride: b.hdr.Width * BytesPerPixel,
		Shape:  pix.ShapeBGR888,
	}
}

// ReadAt implements [io.ReaderAt] over the working buffer.
func (b *Bitmap) ReadAt(p []byte, off int64) (int, error) {
	b.mustLive()
	return readAt(b.working, p, off)
}

// Buffer implements [pix.ImageBuffered], returning the working buffer.
func (b *Bitmap) Buffer() []byte {
	b.mustLive()
	return b.working
}

// Working returns the working buffer. Writes to it modify the image.
// The slice must not be used after Release.
func (b *Bitmap) Working() []byte {
	b.mustLive()
	return b.working
}

// Pristine returns a read-only view of the pixels as decoded.
func (b *Bitmap) Pristine() Snapshot {
	b.mustLive()
	return Snapshot{b: b}
}

// Reset discards all transforms by copying the pristine pixels into the working buffer.
func (b *Bitmap) Reset() {
	b.mustLive()
	copy(b.working, b.pristine)
}

// RemoveChannel zeroes ch in every pixel of the working buffer. Removals
// accumulate until Reset. Channels other than blue, green and red are ignored.
func (b *Bitmap) RemoveChannel(ch pix.Channel) {
	if err := b.Apply(filters.NewChannelRemover(ch)); err != nil {
		panic("bmp: channel removal: " + err.Error())
	}
}

// NeighborOr rewrites every working pixel as the OR of the pristine pixel
// and its pristine vertical neighbors, channel by channel. Because it reads only
// pristine pixels it replaces any earlier transform and repeated calls are idempotent.
func (b *Bitmap) NeighborOr() {
	if err := b.ApplyPristine(&filters.VerticalOr{Reach: 1}); err != nil {
		panic("bmp: neighbor filter: " + err.Error())
	}
}

// Apply runs f in-place over the working buffer. f must take and produce
// [pix.ShapeBGR888] pixels.
func (b *Bitmap) Apply(f pix.Filter) error {
	b.mustLive()
	_, err := f.Process(nil, b, nil)
	return err
}

// ApplyPristine runs f with the pristine pixels as input and the working
// buffer as output. f must take and produce [pix.ShapeBGR888] pixels.
func (b *Bitmap) ApplyPristine(f pix.Filter) error {
	b.mustLive()
	out, in := f.ShapeIO()
	if out != pix.ShapeBGR888 || in != pix.ShapeBGR888 {
		return fmt.Errorf("bmp: filter shape %v->%v, want %v", in, out, pix.ShapeBGR888)
	}
	_, err := f.Process(b.working, b.Pristine(), nil)
	return err
}

// Snapshot is a read-only view of the pristine pixels of a [Bitmap].
// It implements [pix.Image] but not [pix.ImageBuffered], so filters can read
// it but never write it. A Snapshot is valid until its Bitmap is released.
type Snapshot struct {
	b *Bitmap
}

var _ pix.Image = Snapshot{}

func (s Snapshot) buf() []byte {
	s.b.mustLive()
	return s.b.pristine
}

// Dims implements [pix.Image].
func (s Snapshot) Dims() pix.Dims { return s.b.Dims() }

// ReadAt implements [io.ReaderAt].
func (s Snapshot) ReadAt(p []byte, off int64) (int, error) {
	return readAt(s.buf(), p, off)
}

// Len returns the number of pixel bytes.
func (s Snapshot) Len() int { return len(s.buf()) }

// At returns the byte at index i.
func (s Snapshot) At(i int) byte { return s.buf()[i] }

// AppendTo appends the pristine pixels to dst.
func (s Snapshot) AppendTo(dst []byte) []byte {
	return append(dst, s.buf()...)
}

// WriteTo writes the pristine pixels to w.
func (s Snapshot) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.buf())
	return int64(n), err
}

func readAt(buf, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("bmp: negative offset %d", off)
	}
	if off >= int64(len(buf)) {
		return 0, io.EOF
	}
	n := copy(p, buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
