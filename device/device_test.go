package device

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/doorcam/pix"
	"github.com/doorcam/pix/bmp"
)

func captureFile(width, height int) []byte {
	pixels := make([]byte, width*height*3)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	buf := make([]byte, bmp.CaptureHeaderSize, bmp.CaptureHeaderSize+len(pixels))
	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:], uint32(len(buf)+len(pixels)))
	binary.LittleEndian.PutUint32(buf[10:], bmp.CaptureHeaderSize)
	binary.LittleEndian.PutUint32(buf[14:], 40)
	binary.LittleEndian.PutUint32(buf[18:], uint32(width))
	binary.LittleEndian.PutUint32(buf[22:], uint32(height))
	binary.LittleEndian.PutUint16(buf[28:], 24)
	return append(buf, pixels...)
}

func TestSaveAndReplayCapture(t *testing.T) {
	raw := captureFile(bmp.CaptureWidth, bmp.CaptureHeight)
	if len(raw) != bmp.CaptureSize {
		t.Fatalf("capture is %d bytes, want %d", len(raw), bmp.CaptureSize)
	}
	dir := t.TempDir()
	for _, name := range []string{"viewer/doorbell.bmp", "viewer/doorbell.bmp.zst"} {
		path := filepath.Join(dir, name)
		if err := SaveCapture(path, raw); err != nil {
			t.Fatalf("SaveCapture(%s): %v", name, err)
		}
		got, err := FileCamera{Path: path}.Capture(context.Background())
		if err != nil {
			t.Fatalf("Capture(%s): %v", name, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("%s: replayed capture differs", name)
		}
	}
	compressed, err := os.ReadFile(filepath.Join(dir, "viewer/doorbell.bmp.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) >= len(raw) {
		t.Errorf("compressed capture is %d bytes, raw %d", len(compressed), len(raw))
	}
}

func TestFileCameraCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (FileCamera{Path: "unused"}).Capture(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestDirLister(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.bmp", "a.bmp", "notes.log", "readme.txt", "c.bmp.zst"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.bmp"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := DirLister{Dir: dir}.List()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a.bmp", "b.bmp", "notes.log"}; !slices.Equal(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}

	names, _ = DirLister{Dir: dir, Max: 1}.List()
	if len(names) != 1 {
		t.Errorf("Max 1 listed %v", names)
	}
	names, _ = DirLister{Dir: dir, Exts: []string{".zst"}}.List()
	if !slices.Equal(names, []string{"c.bmp.zst"}) {
		t.Errorf("zst listing %v", names)
	}
	names, err = DirLister{Dir: filepath.Join(dir, "missing")}.List()
	if err != nil || len(names) != 0 {
		t.Errorf("missing folder: %v %v", names, err)
	}
}

type fakeCamera struct{ raw []byte }

func (c fakeCamera) Capture(context.Context) ([]byte, error) { return bytes.Clone(c.raw), nil }

type recordRenderer struct {
	pix           []byte
	width, height int
}

func (r *recordRenderer) Render(p []byte, width, height int) error {
	r.pix = bytes.Clone(p)
	r.width, r.height = width, height
	return nil
}

func TestCaptureAndShow(t *testing.T) {
	raw := captureFile(4, 2)
	b, err := CaptureBitmap(context.Background(), fakeCamera{raw: raw})
	if err != nil {
		t.Fatalf("CaptureBitmap: %v", err)
	}
	defer b.Release()

	b.RemoveChannel(pix.ChannelRed)
	var r recordRenderer
	if err := Show(&r, b); err != nil {
		t.Fatal(err)
	}
	if r.width != 4 || r.height != 2 || !bytes.Equal(r.pix, b.Working()) {
		t.Errorf("rendered %dx%d %v", r.width, r.height, r.pix)
	}
	if r.pix[2] != 0 || r.pix[1] != raw[bmp.CaptureHeaderSize+1] {
		t.Errorf("renderer did not get working pixels: %v", r.pix[:3])
	}
}

func TestCaptureBitmapTruncated(t *testing.T) {
	raw := captureFile(4, 2)
	_, err := CaptureBitmap(context.Background(), fakeCamera{raw: raw[:len(raw)-3]})
	if !errors.Is(err, bmp.ErrTruncatedPixelData) {
		t.Errorf("got %v, want %v", err, bmp.ErrTruncatedPixelData)
	}
}

type recordUploader struct {
	payload []byte
	err     error
}

func (u *recordUploader) Upload(_ context.Context, payload []byte) (string, error) {
	u.payload = bytes.Clone(payload)
	if u.err != nil {
		return "", u.err
	}
	return "OK 1", nil
}

func TestStore(t *testing.T) {
	raw := captureFile(bmp.CaptureWidth, bmp.CaptureHeight)
	path := filepath.Join(t.TempDir(), "viewer", "doorbell.bmp")
	var up recordUploader
	resp, err := Store(context.Background(), fakeCamera{raw: raw}, path, &up)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if resp != "OK 1" {
		t.Errorf("response %q", resp)
	}
	if !bytes.Equal(up.payload, raw) {
		t.Error("uploaded payload differs from capture")
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(saved, raw) {
		t.Error("saved capture differs")
	}
}

func TestStoreUploadFails(t *testing.T) {
	raw := captureFile(4, 2)
	path := filepath.Join(t.TempDir(), "doorbell.bmp")
	errRefused := errors.New("connection refused")
	_, err := Store(context.Background(), fakeCamera{raw: raw}, path, &recordUploader{err: errRefused})
	if !errors.Is(err, errRefused) {
		t.Errorf("got %v, want %v", err, errRefused)
	}
	// The capture is kept even when the server is unreachable.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("capture not saved: %v", err)
	}
}
