package filters

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/doorcam/pix"
)

const channelMaskTransform = `
fn transform(i: u32, x: u32, y: u32) -> u32 {
    return src[i] & u.param0;
}
`

// ChannelRemoverGPU zeroes one channel of every pixel using GPU compute.
type ChannelRemoverGPU struct {
	WordFilterGPU
	channel pix.Channel
	ctrls   []pix.Control
}

// NewChannelRemoverGPU creates a GPU channel removal filter.
func NewChannelRemoverGPU(device *wgpu.Device, queue *wgpu.Queue, shape pix.Shape, ch pix.Channel) (*ChannelRemoverGPU, error) {
	f := &ChannelRemoverGPU{}
	if err := f.Init(device, queue, shape, channelMaskTransform); err != nil {
		return nil, err
	}
	f.SetChannel(ch)
	f.ctrls = []pix.Control{
		&pix.ControlEnum[pix.Channel]{
			Name:        "Channel",
			Description: "Color channel set to zero",
			Value:       ch,
			ValidValues: []pix.Channel{pix.ChannelBlue, pix.ChannelGreen, pix.ChannelRed},
			OnChange: func(c pix.Channel) error {
				f.SetChannel(c)
				return nil
			},
		},
	}
	return f, nil
}

// SetChannel sets the channel to remove.
func (f *ChannelRemoverGPU) SetChannel(ch pix.Channel) {
	f.channel = ch
	f.SetParam(0, channelMask(f.shape, ch))
}

// Channel returns the channel being removed.
func (f *ChannelRemoverGPU) Channel() pix.Channel {
	return f.channel
}

// Controls returns the filter's adjustable parameters.
func (f *ChannelRemoverGPU) Controls() []pix.Control {
	return f.ctrls
}

// channelMask returns the word mask that keeps every byte except the one of ch.
func channelMask(shape pix.Shape, ch pix.Channel) uint32 {
	off := ch.Offset(shape)
	if off < 0 {
		return 0x00ffffff
	}
	return 0x00ffffff &^ (0xff << (8 * off))
}
