// Command bmpfilter loads a stored capture, applies a pipeline of transforms
// and writes the result.
//
//	bmpfilter -ops red,or -out viewer/filtered.bmp viewer/doorbell.bmp
//
// Operations run in order against one bitmap:
//
//	blue, green, red   remove the channel
//	or                 vertical neighbor OR filter from the pristine pixels
//	gray, invert       grayscale and color inversion of the working pixels
//	reset              restore the pristine pixels
//
// The output format follows the extension of -out: .bmp re-encodes the
// picture, .png converts it, anything else writes the original headers
// followed by the working pixels. A trailing .zst compresses the file.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/doorcam/pix"
	"github.com/doorcam/pix/bmp"
	"github.com/doorcam/pix/device"
	"github.com/doorcam/pix/filters"
	xbmp "golang.org/x/image/bmp"
)

func main() {
	err := run(context.Background(), os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	} else if err != nil {
		slog.Error("bmpfilter failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bmpfilter", flag.ContinueOnError)
	ops := fs.String("ops", "", "comma separated operations: blue,green,red,or,gray,invert,reset")
	out := fs.String("out", "", "output path, .bmp, .png or raw, optionally ending in .zst")
	useGPU := fs.Bool("gpu", false, "run filters with WebGPU compute")
	maxBytes := fs.Int("max", bmp.DefaultMaxPixelBytes, "maximum pixel data size in bytes")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("need exactly one input capture")
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	raw, err := device.FileCamera{Path: fs.Arg(0)}.Capture(ctx)
	if err != nil {
		return err
	}
	b, err := bmp.DecodeOptions{MaxPixelBytes: *maxBytes}.Decode(raw)
	if err != nil {
		return err
	}
	defer b.Release()
	hdr := b.Header()
	slog.Debug("decoded", slog.Int("width", hdr.Width), slog.Int("height", hdr.Height),
		slog.Bool("topdown", hdr.TopDown), slog.Uint64("offset", uint64(hdr.PixelOffset)))

	var eng engine = cpuEngine{}
	if *useGPU {
		g, err := newGPUEngine()
		if err != nil {
			return err
		}
		defer g.cleanup()
		eng = g
	}
	for _, op := range strings.Split(*ops, ",") {
		op = strings.TrimSpace(op)
		if op == "" {
			continue
		}
		if err := eng.apply(b, op); err != nil {
			return fmt.Errorf("op %q: %w", op, err)
		}
		slog.Debug("applied", slog.String("op", op))
	}

	if *out == "" {
		return nil
	}
	data, err := encode(b, *out)
	if err != nil {
		return err
	}
	return device.SaveCapture(*out, data)
}

func encode(b *bmp.Bitmap, path string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch filepath.Ext(strings.TrimSuffix(path, ".zst")) {
	case ".bmp":
		err = xbmp.Encode(&buf, b.Image())
	case ".png":
		err = png.Encode(&buf, b.Image())
	default:
		_, err = b.WriteTo(&buf)
	}
	return buf.Bytes(), err
}

type engine interface {
	apply(b *bmp.Bitmap, op string) error
}

func parseChannel(op string) (pix.Channel, bool) {
	switch op {
	case "blue":
		return pix.ChannelBlue, true
	case "green":
		return pix.ChannelGreen, true
	case "red":
		return pix.ChannelRed, true
	}
	return 0, false
}

type cpuEngine struct{}

func (cpuEngine) apply(b *bmp.Bitmap, op string) error {
	if ch, ok := parseChannel(op); ok {
		b.RemoveChannel(ch)
		return nil
	}
	switch op {
	case "or":
		b.NeighborOr()
	case "reset":
		b.Reset()
	case "gray":
		return b.Apply(filters.NewGrayscalePerPixel(pix.ShapeBGR888, filters.GrayscaleLuminance))
	case "invert":
		return b.Apply(filters.NewInvertedPerPixel(pix.ShapeBGR888))
	default:
		return errors.New("unknown operation")
	}
	return nil
}

type gpuEngine struct {
	or      *filters.VerticalOrGPU
	channel *filters.ChannelRemoverGPU
	gray    *filters.GrayscaleFilterGPU
	invert  *filters.InvertFilterGPU
}

func newGPUEngine() (*gpuEngine, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, errors.New("WebGPU not available")
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceLowPower,
	})
	if err != nil {
		return nil, fmt.Errorf("GPU adapter: %w", err)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("GPU device: %w", err)
	}
	queue := dev.GetQueue()

	g := &gpuEngine{}
	if g.or, err = filters.NewVerticalOrGPU(dev, queue, pix.ShapeBGR888, 1); err != nil {
		return nil, err
	}
	if g.channel, err = filters.NewChannelRemoverGPU(dev, queue, pix.ShapeBGR888, pix.ChannelRed); err != nil {
		g.cleanup()
		return nil, err
	}
	if g.gray, err = filters.NewGrayscaleGPU(dev, queue, pix.ShapeBGR888, filters.GrayscaleLuminance); err != nil {
		g.cleanup()
		return nil, err
	}
	if g.invert, err = filters.NewInvertGPU(dev, queue, pix.ShapeBGR888); err != nil {
		g.cleanup()
		return nil, err
	}
	return g, nil
}

func (g *gpuEngine) apply(b *bmp.Bitmap, op string) error {
	if ch, ok := parseChannel(op); ok {
		g.channel.SetChannel(ch)
		return b.Apply(g.channel)
	}
	switch op {
	case "or":
		return b.ApplyPristine(g.or)
	case "reset":
		b.Reset()
	case "gray":
		return b.Apply(g.gray)
	case "invert":
		return b.Apply(g.invert)
	default:
		return errors.New("unknown operation")
	}
	return nil
}

func (g *gpuEngine) cleanup() {
	if g.or != nil {
		g.or.Cleanup()
	}
	if g.channel != nil {
		g.channel.Cleanup()
	}
	if g.gray != nil {
		g.gray.Cleanup()
	}
	if g.invert != nil {
		g.invert.Cleanup()
	}
}
