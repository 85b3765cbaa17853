package filters

import "github.com/doorcam/pix"

// GrayscaleMode determines the algorithm for RGB to grayscale conversion.
type GrayscaleMode int

const (
	// GrayscaleLuminance uses standard luminance weights: 0.299*R + 0.587*G + 0.114*B
	GrayscaleLuminance GrayscaleMode = iota
	// GrayscaleAverage uses simple average: (R + G + B) / 3
	GrayscaleAverage
	// GrayscaleLightness uses min/max average: (max(R,G,B) + min(R,G,B)) / 2
	GrayscaleLightness
)

func (m GrayscaleMode) String() string {
	switch m {
	case GrayscaleLuminance:
		return "Luminance"
	case GrayscaleAverage:
		return "Average"
	case GrayscaleLightness:
		return "Lightness"
	default:
		return "Unknown"
	}
}

// gray converts one pixel with the given mode.
func (m GrayscaleMode) gray(r, g, b uint8) uint8 {
	switch m {
	case GrayscaleAverage:
		return uint8((uint32(r) + uint32(g) + uint32(b)) / 3)
	case GrayscaleLightness:
		return uint8((uint32(min(r, g, b)) + uint32(max(r, g, b))) / 2)
	default: // GrayscaleLuminance
		return uint8((77*uint32(r) + 150*uint32(g) + 29*uint32(b)) >> 8)
	}
}

// NewGrayscalePerPixel creates a grayscale filter for 3 byte pixel shapes,
// [pix.ShapeBGR888] or [pix.ShapeRGB888]. It returns nil for other shapes.
func NewGrayscalePerPixel(shape pix.Shape, mode GrayscaleMode) *PointFilter {
	if shape != pix.ShapeBGR888 && shape != pix.ShapeRGB888 {
		return nil
	}
	ri := pix.ChannelRed.Offset(shape)
	gi := pix.ChannelGreen.Offset(shape)
	bi := pix.ChannelBlue.Offset(shape)
	filterMode := mode
	return &PointFilter{
		In:  shape,
		Out: shape,
		Fn: func(dst, src []byte) {
			for i := 0; i+2 < len(src); i += 3 {
				gray := filterMode.gray(src[i+ri], src[i+gi], src[i+bi])
				dst[i], dst[i+1], dst[i+2] = gray, gray, gray
			}
		},
		Ctrls: []pix.Control{
			&pix.ControlEnum[GrayscaleMode]{
				Name:        "Conversion Mode",
				Description: "Algorithm for RGB to grayscale conversion",
				Value:       filterMode,
				ValidValues: []GrayscaleMode{GrayscaleLuminance, GrayscaleAverage, GrayscaleLightness},
				OnChange: func(m GrayscaleMode) error {
					filterMode = m // Closure will assign and Fn above pick up.
					return nil
				},
			},
		},
	}
}

// NewInvertedPerPixel creates a filter that inverts every byte of a pixel.
// Works on any whole-byte shape; applying it twice restores the input.
func NewInvertedPerPixel(shape pix.Shape) *PointFilter {
	return &PointFilter{
		In:  shape,
		Out: shape,
		Fn: func(dst, src []byte) {
			for i := 0; i < len(src); i++ {
				dst[i] = 255 - src[i]
			}
		},
	}
}
