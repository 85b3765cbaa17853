package filters

import "github.com/doorcam/pix"

// NewChannelRemover creates a filter that zeroes one color channel of
// every BGR888 pixel and leaves the other two untouched.
// Running it again with the same channel changes nothing.
func NewChannelRemover(ch pix.Channel) *PointFilter {
	off := ch.Offset(pix.ShapeBGR888)
	return &PointFilter{
		In:  pix.ShapeBGR888,
		Out: pix.ShapeBGR888,
		Fn: func(dst, src []byte) {
			copy(dst, src)
			if off < 0 {
				return
			}
			for i := off; i < len(dst); i += 3 {
				dst[i] = 0
			}
		},
		Ctrls: []pix.Control{
			&pix.ControlEnum[pix.Channel]{
				Name:        "Channel",
				Description: "Color channel set to zero",
				Value:       ch,
				ValidValues: []pix.Channel{pix.ChannelBlue, pix.ChannelGreen, pix.ChannelRed},
				OnChange: func(c pix.Channel) error {
					off = c.Offset(pix.ShapeBGR888) // Picked up by Fn through the closure.
					return nil
				},
			},
		},
	}
}
