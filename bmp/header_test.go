package bmp

import (
	"encoding/binary"
	"errors"
	"strconv"
	"testing"
)

func TestParseHeaderMinimalFormatHeader(t *testing.T) {
	// 12 byte format header: size, width, height and nothing else.
	raw := make([]byte, FileHeaderSize+12+3)
	binary.LittleEndian.PutUint32(raw[10:], FileHeaderSize+12)
	binary.LittleEndian.PutUint32(raw[FileHeaderSize+4:], 1)
	binary.LittleEndian.PutUint32(raw[FileHeaderSize+8:], 0xffffffff) // -1

	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Width != 1 || h.Height != 1 || !h.TopDown {
		t.Errorf("got %dx%d topdown=%v, want 1x1 top-down", h.Width, h.Height, h.TopDown)
	}
	if h.BitsPerPixel != 0 {
		t.Errorf("bits per pixel %d read from missing field", h.BitsPerPixel)
	}
	if h.FormatHeaderSize() != 12 || h.PixelDataSize() != 3 || h.Size() != len(raw) {
		t.Errorf("sizes format=%d pixels=%d total=%d", h.FormatHeaderSize(), h.PixelDataSize(), h.Size())
	}

	b, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer b.Release()
	if len(b.FormatHeader()) != 12 {
		t.Errorf("format header length %d", len(b.FormatHeader()))
	}
}

func TestParseHeaderMostNegativeHeight(t *testing.T) {
	if strconv.IntSize == 32 {
		t.Skip("height 2^31 is not representable")
	}
	raw := bitmapFile(1, -0x80000000, nil)
	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if int64(h.Height) != 1<<31 || !h.TopDown {
		t.Errorf("height %d topdown=%v", h.Height, h.TopDown)
	}
	if _, err := Decode(raw); !errors.Is(err, ErrTruncatedPixelData) {
		t.Errorf("Decode: got %v, want %v", err, ErrTruncatedPixelData)
	}
}
