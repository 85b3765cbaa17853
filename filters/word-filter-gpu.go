package filters

import (
	_ "embed"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/doorcam/pix"
)

//go:embed word-filter-gpu.wgsl
var baseShaderWGSL string

const errGPUROI = errorString("GPU filters process whole images, ROI not supported")

// WordFilterGPU runs a WGSL compute shader over an image of 3 byte pixels.
// Each pixel is uploaded as one u32 word with its bytes in buffer order, so
// bitwise shader operations act on all channels at once.
// Embed this in concrete filter implementations and provide a transform function in WGSL.
type WordFilterGPU struct {
	mu     sync.Mutex
	gpu    gpuResources
	shape  pix.Shape
	Params [4]uint32 // Uniform params: [0]=width, [1]=height, [2..3]=user params
	inited bool
}

type gpuResources struct {
	device        *wgpu.Device
	queue         *wgpu.Queue
	shaderModule  *wgpu.ShaderModule
	pipeline      *wgpu.ComputePipeline
	bindLayout    *wgpu.BindGroupLayout
	uniformBuffer *wgpu.Buffer
	inputBuffer   *wgpu.Buffer
	outputBuffer  *wgpu.Buffer
	width, height int
	words         []uint32
}

// Init initializes GPU resources with the given transform WGSL code.
// transformCode should define: fn transform(i: u32, x: u32, y: u32) -> u32
// where i indexes the src word array at pixel (x,y).
func (f *WordFilterGPU) Init(device *wgpu.Device, queue *wgpu.Queue, shape pix.Shape, transformCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if shape.BitsPerPixel() != 24 {
		return errShapeMismatch
	}
	f.shape = shape

	fullShader := strings.Replace(baseShaderWGSL, "// TRANSFORM_PLACEHOLDER", transformCode, 1)

	f.gpu.device = device
	f.gpu.queue = queue

	var err error
	f.gpu.shaderModule, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fullShader},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}

	f.gpu.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     f.gpu.shaderModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("compute pipeline: %w", err)
	}

	f.gpu.bindLayout = f.gpu.pipeline.GetBindGroupLayout(0)

	f.gpu.uniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  16, // 4 x uint32
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("uniform buffer: %w", err)
	}

	f.inited = true
	return nil
}

// ShapeIO implements [pix.Filter].
func (f *WordFilterGPU) ShapeIO() (output, input pix.Shape) {
	return f.shape, f.shape
}

// Controls returns nil - concrete implementations should override.
func (f *WordFilterGPU) Controls() []pix.Control { return nil }

// Process implements [pix.Filter]. In-place is supported since the shader
// reads and writes separate GPU buffers.
func (f *WordFilterGPU) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.inited {
		return pix.Dims{}, errorString("filter not initialized")
	}
	if roi != nil {
		return pix.Dims{}, errGPUROI
	}
	srcDims := src.Dims()
	if srcDims.Shape != f.shape {
		return pix.Dims{}, errShapeMismatch
	}
	w, h := srcDims.Width, srcDims.Height
	dstDims := pix.Dims{Width: w, Height: h, Stride: w * 3, Shape: f.shape}
	inPlace := dst == nil
	dst, _, err := pix.ValidateProcessArgs(dst, dstDims, src, nil)
	if err != nil {
		return pix.Dims{}, err
	}
	if inPlace {
		dstDims.Stride = srcDims.Stride
	}
	if err := f.ensureBuffers(w, h); err != nil {
		return pix.Dims{}, err
	}

	// Pack rows into words and upload.
	rowBuf := make([]byte, srcDims.SizeRow())
	for y := 0; y < h; y++ {
		row, err := pix.ImageRow(rowBuf, src, y)
		if err != nil {
			return pix.Dims{}, err
		}
		words := f.gpu.words[y*w : (y+1)*w]
		for x := range words {
			words[x] = uint32(row[3*x]) | uint32(row[3*x+1])<<8 | uint32(row[3*x+2])<<16
		}
	}
	f.gpu.queue.WriteBuffer(f.gpu.inputBuffer, 0, wgpu.ToBytes(f.gpu.words))

	f.Params[0], f.Params[1] = uint32(w), uint32(h)
	f.gpu.queue.WriteBuffer(f.gpu.uniformBuffer, 0, wgpu.ToBytes(f.Params[:]))

	if err := f.dispatch(w, h); err != nil {
		return pix.Dims{}, err
	}
	if err := f.readback(); err != nil {
		return pix.Dims{}, err
	}

	for y := 0; y < h; y++ {
		out := dst[y*dstDims.Stride : y*dstDims.Stride+w*3]
		for x, word := range f.gpu.words[y*w : (y+1)*w] {
			out[3*x], out[3*x+1], out[3*x+2] = byte(word), byte(word>>8), byte(word>>16)
		}
	}
	return dstDims, nil
}

func (f *WordFilterGPU) ensureBuffers(w, h int) error {
	if w == f.gpu.width && h == f.gpu.height {
		return nil
	}

	f.releaseImageBuffers()

	size := uint64(w * h * 4)
	var err error

	f.gpu.inputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("input buffer: %w", err)
	}

	f.gpu.outputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("output buffer: %w", err)
	}

	f.gpu.words = make([]uint32, w*h)
	f.gpu.width, f.gpu.height = w, h
	return nil
}

func (f *WordFilterGPU) dispatch(w, h int) error {
	bindGroup, err := f.gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: f.gpu.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: f.gpu.uniformBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: f.gpu.inputBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: f.gpu.outputBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := f.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(f.gpu.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((w+7)/8), uint32((h+7)/8), 1)
	pass.End()
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	f.gpu.queue.Submit(cmd)
	return nil
}

func (f *WordFilterGPU) readback() error {
	size := uint64(f.gpu.width * f.gpu.height * 4)

	staging, err := f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := f.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(f.gpu.outputBuffer, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	f.gpu.queue.Submit(cmd)
	f.gpu.device.Poll(true, nil)

	done := make(chan error, 1)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("map failed: %v", status)
			return
		}
		done <- nil
	})

	f.gpu.device.Poll(true, nil)
	if err := <-done; err != nil {
		return err
	}

	copy(wgpu.ToBytes(f.gpu.words), staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return nil
}

func (f *WordFilterGPU) releaseImageBuffers() {
	if f.gpu.inputBuffer != nil {
		f.gpu.inputBuffer.Release()
		f.gpu.inputBuffer = nil
	}
	if f.gpu.outputBuffer != nil {
		f.gpu.outputBuffer.Release()
		f.gpu.outputBuffer = nil
	}
	f.gpu.width, f.gpu.height = 0, 0
}

// Cleanup releases all GPU resources.
func (f *WordFilterGPU) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseImageBuffers()
	if f.gpu.uniformBuffer != nil {
		f.gpu.uniformBuffer.Release()
	}
	if f.gpu.bindLayout != nil {
		f.gpu.bindLayout.Release()
	}
	if f.gpu.pipeline != nil {
		f.gpu.pipeline.Release()
	}
	if f.gpu.shaderModule != nil {
		f.gpu.shaderModule.Release()
	}
	f.inited = false
}

// SetParam sets a user parameter (index 0 or 1, mapped to Params[2] and Params[3]).
func (f *WordFilterGPU) SetParam(index int, value uint32) {
	if index >= 0 && index < 2 {
		f.mu.Lock()
		f.Params[2+index] = value
		f.mu.Unlock()
	}
}

var _ pix.Filter = (*WordFilterGPU)(nil)
