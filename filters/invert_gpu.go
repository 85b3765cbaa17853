package filters

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/doorcam/pix"
)

const invertTransform = `
fn transform(i: u32, x: u32, y: u32) -> u32 {
    return (~src[i]) & 0x00ffffffu;
}
`

// InvertFilterGPU inverts image colors using GPU compute.
type InvertFilterGPU struct {
	WordFilterGPU
}

// NewInvertGPU creates a GPU-accelerated color inversion filter.
func NewInvertGPU(device *wgpu.Device, queue *wgpu.Queue, shape pix.Shape) (*InvertFilterGPU, error) {
	f := &InvertFilterGPU{}
	if err := f.Init(device, queue, shape, invertTransform); err != nil {
		return nil, err
	}
	return f, nil
}
