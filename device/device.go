// Package device connects bitmaps to the hardware around them: the camera
// that produces raw captures, the display that shows pixels, the server
// captures are uploaded to, and the folder of stored captures.
package device

import (
	"context"
	"fmt"

	"github.com/doorcam/pix/bmp"
)

// Camera captures a raw bitmap file, [bmp.CaptureSize] bytes for the device camera.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Renderer paints a buffer of BGR pixels, rows in buffer order.
type Renderer interface {
	Render(pix []byte, width, height int) error
}

// Uploader sends an opaque payload to the server and returns its short
// text response.
type Uploader interface {
	Upload(ctx context.Context, payload []byte) (response string, err error)
}

// Lister lists the names of the stored captures and logs.
type Lister interface {
	List() ([]string, error)
}

// Show renders the working pixels of b.
func Show(r Renderer, b *bmp.Bitmap) error {
	return r.Render(b.Working(), b.Width(), b.Height())
}

// CaptureBitmap captures and decodes one frame.
func CaptureBitmap(ctx context.Context, cam Camera) (*bmp.Bitmap, error) {
	raw, err := cam.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return bmp.Decode(raw)
}

// Store captures one frame, saves it to path and uploads it, returning the
// server response. The capture is saved before the upload is attempted.
func Store(ctx context.Context, cam Camera, path string, up Uploader) (response string, err error) {
	raw, err := cam.Capture(ctx)
	if err != nil {
		return "", err
	}
	if err := SaveCapture(path, raw); err != nil {
		return "", fmt.Errorf("save capture: %w", err)
	}
	response, err = up.Upload(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	return response, nil
}
