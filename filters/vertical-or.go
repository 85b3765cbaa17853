package filters

import (
	"image"

	"github.com/doorcam/pix"
)

const (
	errInPlaceNeighbors = errorString("neighbor filter can not run in-place")
	errPartialBytePixel = errorString("ROI requires whole byte pixels")
)

// VerticalOr sets every output pixel to the bitwise OR of the source pixel
// and the source pixels up to Reach rows above and below it, channel by channel.
// Horizontal neighbors are never considered. Rows past the top or bottom edge
// are skipped, so edge rows OR with fewer neighbors.
//
// The filter reads only from src, so applying it to the same source twice
// yields the same output. Since it must read neighbors that a write would
// clobber it does not support in-place operation.
type VerticalOr struct {
	// Shape of input and output. Zero value selects [pix.ShapeBGR888].
	Shape pix.Shape
	// Reach is the number of rows considered on each side. Values below 1 mean 1.
	Reach int
	ctrls []pix.Control
}

func (f *VerticalOr) shape() pix.Shape {
	if f.Shape == 0 {
		return pix.ShapeBGR888
	}
	return f.Shape
}

func (f *VerticalOr) reach() int {
	return max(f.Reach, 1)
}

// ShapeIO implements [pix.Filter].
func (f *VerticalOr) ShapeIO() (output, input pix.Shape) {
	sh := f.shape()
	return sh, sh
}

// Controls implements [pix.Filter].
func (f *VerticalOr) Controls() []pix.Control {
	if f.ctrls == nil {
		f.ctrls = []pix.Control{
			&pix.ControlOrdered[int]{
				Name:        "Reach",
				Description: "Rows above and below OR'd into each pixel",
				Value:       f.reach(),
				Min:         1,
				Max:         8,
				Step:        1,
				OnChange: func(r int) error {
					f.Reach = r
					return nil
				},
			},
		}
	}
	return f.ctrls
}

// Process implements [pix.Filter]. dst must not be nil nor alias the source buffer.
func (f *VerticalOr) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	if dst == nil {
		return pix.Dims{}, errInPlaceNeighbors
	}
	shape := f.shape()
	srcDims := src.Dims()
	if srcDims.Shape != shape {
		return pix.Dims{}, errShapeMismatch
	}
	if buffered, ok := src.(pix.ImageBuffered); ok {
		buf := buffered.Buffer()
		if len(buf) > 0 && len(dst) > 0 && &buf[0] == &dst[0] {
			return pix.Dims{}, errInPlaceNeighbors
		}
	}

	startY, endY := 0, srcDims.Height
	startB, endB := 0, srcDims.SizeRow() // Byte span of the processed section of each row.
	if roi != nil {
		if shape.BitsPerPixel()%8 != 0 {
			return pix.Dims{}, errPartialBytePixel
		}
		bpp := shape.BytesPerPixel()
		startY, endY = roi.Min.Y, roi.Max.Y
		startB, endB = roi.Min.X*bpp, roi.Max.X*bpp
	}
	width := srcDims.Width
	if roi != nil {
		width = roi.Dx()
	}
	dstDims := pix.Dims{
		Width:  width,
		Height: endY - startY,
		Stride: endB - startB,
		Shape:  shape,
	}
	dst, _, err := pix.ValidateProcessArgs(dst, dstDims, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}

	reach := f.reach()
	rowBuf := make([]byte, srcDims.SizeRow())
	for y := startY; y < endY; y++ {
		off := (y - startY) * dstDims.Stride
		out := dst[off : off+dstDims.Stride]
		row, err := pix.ImageRow(rowBuf, src, y)
		if err != nil {
			return pix.Dims{}, err
		}
		copy(out, row[startB:endB])
		for k := 1; k <= reach; k++ {
			for _, ny := range [2]int{y - k, y + k} {
				if ny < 0 || ny >= srcDims.Height {
					continue
				}
				row, err = pix.ImageRow(rowBuf, src, ny)
				if err != nil {
					return pix.Dims{}, err
				}
				orBytes(out, row[startB:endB])
			}
		}
	}
	return dstDims, nil
}

func orBytes(dst, src []byte) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] |= src[i]
	}
}
