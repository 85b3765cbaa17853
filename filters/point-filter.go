package filters

import (
	"errors"
	"image"

	"github.com/doorcam/pix"
)

var errShapeMismatch = errors.New("pixel shape mismatch")

// PointFunc processes a contiguous row of pixels.
// dst and src contain rowWidth pixels worth of bytes and may be the same slice
// when the filter runs in-place.
// The function should iterate through pixels: for i := 0; i < len(src); i += bytesPerPixel { ... }
type PointFunc func(dst, src []byte)

// PointFilter applies a per-pixel transformation using a callback function.
// It handles the iteration, buffering, and ROI logic common to all per-pixel filters.
// The callback is invoked once per row with contiguous pixel data.
type PointFilter struct {
	In    pix.Shape
	Out   pix.Shape
	Fn    PointFunc
	Ctrls []pix.Control // User-defined controls for this filter.
}

// ShapeIO implements [pix.Filter].
func (f *PointFilter) ShapeIO() (output, input pix.Shape) {
	return f.Out, f.In
}

// Controls implements [pix.Filter].
func (f *PointFilter) Controls() []pix.Control {
	return f.Ctrls
}

// Process implements [pix.Filter].
func (f *PointFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	if f.Fn == nil {
		return pix.Dims{}, errNilPixelFunc
	}

	outShape, inShape := f.ShapeIO()
	srcDims := src.Dims()
	if srcDims.Shape != inShape {
		return pix.Dims{}, errShapeMismatch
	}
	inBytesPerPixel := inShape.BytesPerPixel()
	outBytesPerPixel := outShape.BytesPerPixel()

	// Output covers the ROI or the full image.
	startX, startY := 0, 0
	endX, endY := srcDims.Width, srcDims.Height
	if roi != nil {
		startX, startY = roi.Min.X, roi.Min.Y
		endX, endY = roi.Max.X, roi.Max.Y
	}
	dstDims := pix.Dims{
		Width:  endX - startX,
		Height: endY - startY,
		Stride: (endX - startX) * outBytesPerPixel,
		Shape:  outShape,
	}
	inPlace := dst == nil
	dst, _, err := pix.ValidateProcessArgs(dst, dstDims, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	if inPlace {
		// Rows keep the source spacing when written back into the source buffer.
		dstDims.Stride = srcDims.Stride
	}

	rowBuf := make([]byte, srcDims.SizeRow()) // Fallback for unbuffered sources.
	for y := startY; y < endY; y++ {
		srcRow, err := pix.ImageRow(rowBuf, src, y)
		if err != nil {
			return pix.Dims{}, err
		}
		dstRowStart := (y - startY) * dstDims.Stride
		f.Fn(dst[dstRowStart:dstRowStart+dstDims.Width*outBytesPerPixel],
			srcRow[startX*inBytesPerPixel:endX*inBytesPerPixel])
	}
	return dstDims, nil
}

var errNilPixelFunc = errorString("nil PixelFunc")

type errorString string

func (e errorString) Error() string { return string(e) }
