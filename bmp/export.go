package bmp

import (
	"image"
	"image/color"
	"io"
)

// Bytes returns the bitmap file for the working pixels: the original headers
// followed by the working buffer, byte for byte.
func (b *Bitmap) Bytes() []byte {
	b.mustLive()
	out := make([]byte, 0, int(b.hdr.PixelOffset)+len(b.working))
	out = append(out, b.fileHeader[:]...)
	out = append(out, b.formatHeader...)
	return append(out, b.working...)
}

// WriteTo writes the same bytes as [Bitmap.Bytes] to w.
func (b *Bitmap) WriteTo(w io.Writer) (n int64, err error) {
	b.mustLive()
	for _, chunk := range [][]byte{b.fileHeader[:], b.formatHeader, b.working} {
		nw, err := w.Write(chunk)
		n += int64(nw)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Image returns a copy of the working pixels as an [image.Image] with the
// top row of the picture at Y=0, flipping bottom-up bitmaps.
func (b *Bitmap) Image() *BGR {
	b.mustLive()
	w, h := b.hdr.Width, b.hdr.Height
	stride := w * BytesPerPixel
	img := &BGR{
		Pix:    make([]byte, len(b.working)),
		Stride: stride,
		Rect:   image.Rect(0, 0, w, h),
	}
	if b.hdr.TopDown {
		copy(img.Pix, b.working)
		return img
	}
	for y := 0; y < h; y++ {
		src := b.working[(h-1-y)*stride : (h-y)*stride]
		copy(img.Pix[y*stride:], src)
	}
	return img
}

// BGR is an in-memory image of opaque pixels stored blue, green, red.
type BGR struct {
	// Pix holds the image's pixels in B, G, R order. The pixel at
	// (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8
	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

var _ image.Image = (*BGR)(nil)

func (p *BGR) ColorModel() color.Model { return color.RGBAModel }

func (p *BGR) Bounds() image.Rectangle { return p.Rect }

func (p *BGR) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

func (p *BGR) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return color.RGBA{R: s[2], G: s[1], B: s[0], A: 0xff}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *BGR) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// Opaque reports that every pixel is fully opaque.
func (p *BGR) Opaque() bool { return true }
