package filters

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/doorcam/pix"
)

// A word OR is a per-channel OR since channels occupy disjoint bits.
const verticalOrTransform = `
fn transform(i: u32, x: u32, y: u32) -> u32 {
    var v = src[i];
    let reach = max(u.param0, 1u);
    for (var k = 1u; k <= reach; k = k + 1u) {
        if (y >= k) {
            v = v | src[i - k * u.width];
        }
        if (y + k < u.height) {
            v = v | src[i + k * u.width];
        }
    }
    return v;
}
`

// VerticalOrGPU is the GPU counterpart of [VerticalOr].
// Unlike the CPU filter it may run in-place.
type VerticalOrGPU struct {
	WordFilterGPU
	reach int
	ctrls []pix.Control
}

// NewVerticalOrGPU creates a GPU vertical neighbor OR filter.
func NewVerticalOrGPU(device *wgpu.Device, queue *wgpu.Queue, shape pix.Shape, reach int) (*VerticalOrGPU, error) {
	f := &VerticalOrGPU{}
	if err := f.Init(device, queue, shape, verticalOrTransform); err != nil {
		return nil, err
	}
	f.SetReach(reach)
	f.ctrls = []pix.Control{
		&pix.ControlOrdered[int]{
			Name:        "Reach",
			Description: "Rows above and below OR'd into each pixel",
			Value:       f.reach,
			Min:         1,
			Max:         8,
			Step:        1,
			OnChange: func(r int) error {
				f.SetReach(r)
				return nil
			},
		},
	}
	return f, nil
}

// SetReach sets the number of rows considered on each side. Values below 1 mean 1.
func (f *VerticalOrGPU) SetReach(reach int) {
	f.reach = max(reach, 1)
	f.SetParam(0, uint32(f.reach))
}

// Controls returns the filter's adjustable parameters.
func (f *VerticalOrGPU) Controls() []pix.Control {
	return f.ctrls
}
