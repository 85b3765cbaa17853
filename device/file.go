package device

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdExt marks compressed captures on disk.
const zstdExt = ".zst"

// FileCamera replays a stored capture as if taken by the camera.
// Files ending in .zst are decompressed.
type FileCamera struct {
	Path string
}

// Capture implements [Camera].
func (c FileCamera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCapture(c.Path)
}

// ReadCapture reads the capture stored at path, decompressing .zst files.
func ReadCapture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, zstdExt) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode %s: %w", path, err)
	}
	return raw, nil
}

// SaveCapture writes buf to path, creating the parent folder if needed.
// Paths ending in .zst are zstd compressed.
func SaveCapture(path string, buf []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var r io.Reader = bytes.NewReader(buf)
	if strings.HasSuffix(path, zstdExt) {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			return fmt.Errorf("zstd encoder: %w", err)
		}
		r = bytes.NewReader(enc.EncodeAll(buf, nil))
		enc.Close()
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	slog.Info("saved capture", slog.String("path", path), slog.Int("bytes", len(buf)))
	return nil
}

// DefaultMaxEntries is the number of entries the display menu can show.
const DefaultMaxEntries = 8

// DirLister lists files of a folder whose extension is one of Exts.
type DirLister struct {
	Dir string
	// Exts to keep, with leading dot. Empty means .bmp and .log.
	Exts []string
	// Max number of names returned. Zero means [DefaultMaxEntries].
	Max int
}

// List implements [Lister]. Names are sorted. A missing folder lists nothing.
func (l DirLister) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	exts := l.Exts
	if len(exts) == 0 {
		exts = []string{".bmp", ".log"}
	}
	limit := l.Max
	if limit <= 0 {
		limit = DefaultMaxEntries
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(exts, filepath.Ext(e.Name())) {
			continue
		}
		names = append(names, e.Name())
		if len(names) == limit {
			break
		}
	}
	return names, nil
}
