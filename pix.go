package pix

import (
	"errors"
	"image"
	"io"
)

// Image is whole-buffer, read-only access to raw pixel memory.
// Rows are homogenously spaced by Dims().Stride bytes.
type Image interface {
	// Dims returns the in-memory layout of the image.
	Dims() Dims
	// ReadAt copies bytes of the pixel buffer starting at a byte offset.
	// Images that must not be written to expose only this method.
	//
	// Callers should first try casting to [ImageBuffered]
	// which avoids the copy.
	io.ReaderAt
}

// ImageBuffered is an [Image] whose pixel buffer lives in memory and may be
// written to directly. Filters run in-place on an ImageBuffered.
type ImageBuffered interface {
	Image
	// Buffer returns the entire pixel buffer, or nil if it is not available.
	// Writes to the returned slice modify the image.
	Buffer() []byte
}

// Filter transforms the pixels of a source image into a destination buffer.
//
// Filters that need more than one input, such as the pristine and
// working buffers of a bitmap, read one through src and write the other through dst.
type Filter interface {
	// ShapeIO returns the output and input [Shape] of the filter.
	// output shape MUST match the Shape of the Dims returned by Process.
	ShapeIO() (output, input Shape)
	// Process reads src and writes the result to dst, returning the
	// dimensions of the written image.
	//
	// A nil dst requests in-place processing: src must be an [ImageBuffered]
	// and its buffer becomes the destination. In-place does not support ROI.
	// Use [ValidateProcessArgs] to acquire dst and validate arguments.
	Process(dstOrNilForInPlace []byte, src Image, roi *image.Rectangle) (Dims, error)
	// Controls returns the editable parameters of the filter.
	Controls() []Control
}

type Shape int

const (
	// Negative values can encode application defined shapes.

	shapeUndefined     Shape = iota // undefined
	ShapeRGB888                     // rgb888
	ShapeRGBA8888                   // rgba8888
	ShapeRGB565BE                   // rgb565be
	ShapeRGB555                     // rgb555
	ShapeRGB444BE                   // rgb444be
	ShapeGrayscale2bit              // gray2
	ShapeMonochrome                 // monochrome
	// ShapeBGR888 is the 24-bit bitmap layout: blue, green then red, one byte each.
	ShapeBGR888 // bgr888
)

func (sh Shape) String() string {
	switch sh {
	case ShapeRGB888:
		return "rgb888"
	case ShapeRGBA8888:
		return "rgba8888"
	case ShapeRGB565BE:
		return "rgb565be"
	case ShapeRGB555:
		return "rgb555"
	case ShapeRGB444BE:
		return "rgb444be"
	case ShapeGrayscale2bit:
		return "gray2"
	case ShapeMonochrome:
		return "monochrome"
	case ShapeBGR888:
		return "bgr888"
	}
	return "undefined"
}

func (sh Shape) BitsPerPixel() (bits int) {
	switch sh {
	default:
		bits = -1
	case ShapeRGBA8888:
		bits = 32
	case ShapeRGB888, ShapeBGR888:
		bits = 24
	case ShapeGrayscale2bit:
		bits = 2
	case ShapeMonochrome:
		bits = 1
	case ShapeRGB444BE:
		bits = 12
	case ShapeRGB555:
		bits = 15
	case ShapeRGB565BE:
		bits = 16
	}
	return bits
}

// BytesPerPixel returns the number of whole bytes one pixel spans.
func (sh Shape) BytesPerPixel() int {
	return (sh.BitsPerPixel() + 7) / 8
}

// Channel selects one color byte of a three byte pixel.
type Channel uint8

const (
	ChannelBlue Channel = iota
	ChannelGreen
	ChannelRed
)

func (c Channel) String() string {
	switch c {
	case ChannelBlue:
		return "Blue"
	case ChannelGreen:
		return "Green"
	case ChannelRed:
		return "Red"
	default:
		return "Unknown"
	}
}

// Offset returns the byte offset of the channel within a pixel of shape sh,
// or -1 if sh does not carry the channel as a whole byte.
func (c Channel) Offset(sh Shape) int {
	if c > ChannelRed {
		return -1
	}
	switch sh {
	case ShapeBGR888:
		return int(c)
	case ShapeRGB888, ShapeRGBA8888:
		return int(ChannelRed - c)
	}
	return -1
}

type Dims struct {
	Width  int
	Height int
	Stride int
	Shape  Shape
}

func (d Dims) Validate() error {
	pixbits := d.Shape.BitsPerPixel()
	if d.Height <= 0 || d.Width <= 0 {
		return errors.New("empty image")
	} else if pixbits < 1 {
		return errors.New("bad pixel shape")
	} else if (d.Width*pixbits+7)/8 > d.Stride {
		return errors.New("stride smaller than pixel row size")
	}
	return nil
}

func (d Dims) NumPixels() int64 {
	return int64(d.Height) * int64(d.Width)
}

// Size returns the readable section size of raw image in bytes.
func (d Dims) Size() int64 {
	if d.Height == 0 || d.Width == 0 {
		return 0
	}
	return int64(d.Height-1)*int64(d.Stride) + int64(d.SizeRow())
}

func (d Dims) SizeRow() int {
	return (d.Width*d.Shape.BitsPerPixel() + 7) / 8
}

// ImageRow returns row of img. For an [ImageBuffered] with a live buffer the
// result aliases the image memory, otherwise the row is read into dst.
// dst must be at least one row long either way.
func ImageRow(dst []byte, img Image, row int) (resultSized []byte, err error) {
	d := img.Dims()
	err = d.Validate()
	if err != nil {
		return nil, err
	}
	rowLenBytes := d.SizeRow()
	if len(dst) < rowLenBytes {
		// Checked before trying ImageBuffered so callers handle the unbuffered case too.
		return nil, io.ErrShortBuffer
	} else if row < 0 || row >= d.Height {
		return nil, errors.New("row out of bounds")
	}
	off := int64(row) * int64(d.Stride)
	if buffered, ok := img.(ImageBuffered); ok {
		buf := buffered.Buffer()
		if buf != nil {
			return buf[off : off+int64(rowLenBytes)], nil
		}
	}
	resultSized = dst[:rowLenBytes]
	n, err := img.ReadAt(resultSized, off)
	if n != rowLenBytes {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return resultSized, nil
}

// ValidateProcessArgs gets the write destination of a [Filter] and checks its inputs:
//   - Source [Dims.Validate]. srcDims is always returned as reported by src.Dims.
//   - ROI lies within the source and is not empty.
//   - In-place (nil dst) needs a buffered src of matching shape and rejects ROI.
//   - dst holds dstDims.Stride*rows bytes. Use dstDims.Stride=0 to omit this check.
//
// dstDims.Shape must be set to support in-place operations.
func ValidateProcessArgs(dst []byte, dstDims Dims, src Image, roi *image.Rectangle) (_ []byte, srcDims Dims, err error) {
	srcDims = src.Dims()
	if err = srcDims.Validate(); err != nil {
		return nil, srcDims, err
	}
	var requiredMinDstSize int64
	if roi != nil {
		if roi.Max.X < 0 || roi.Min.X < 0 || roi.Min.Y < 0 || roi.Max.Y < 0 {
			return nil, srcDims, errors.New("negative ROI")
		} else if roi.Max.X > srcDims.Width || roi.Max.Y > srcDims.Height {
			return nil, srcDims, errors.New("ROI exceeds image bounds")
		} else if roi.Empty() {
			return nil, srcDims, errors.New("empty ROI")
		}
		requiredMinDstSize = int64(dstDims.Stride) * int64(roi.Dy())
	} else {
		requiredMinDstSize = int64(dstDims.Stride) * int64(dstDims.Height)
	}
	if dst == nil {
		if roi != nil {
			return nil, srcDims, errors.New("in-place operation does not support ROI")
		}
		if dstDims.Shape != srcDims.Shape {
			return nil, srcDims, errors.New("src must match filter output shape for in-place op")
		}
		buffered, ok := src.(ImageBuffered)
		if !ok {
			return nil, srcDims, errors.New("src does not implement ImageBuffered for in-place op")
		}
		buf := buffered.Buffer()
		if buf == nil {
			return nil, srcDims, errors.New("src returned nil buffer on in-place op")
		} else if len(buf) < int(srcDims.Size()) {
			return nil, srcDims, errors.New("src ImageBuffered returned a buffer too small to represent complete image")
		}
		dst = buf
	}
	if int64(len(dst)) < requiredMinDstSize {
		return dst, srcDims, errors.New("destination buffer not large enough to store output")
	}
	return dst, srcDims, nil
}
