package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lichtwerk/internal/backend"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// PNG encodes a w×h image whose pixels are derived from seed, so distinct
// seeds yield distinct content.
func PNG(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x), B: uint8(y), A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Photo returns an upload file holding a small PNG captured at the given time.
func Photo(t testing.TB, name string, seed uint8, capturedAt time.Time) backend.File {
	t.Helper()
	return backend.FileFromBytes(name, PNG(t, 8, 6, seed), capturedAt)
}

// Panorama returns an upload file holding a 2:1 PNG wide enough to count as
// a 360° capture.
func Panorama(t testing.TB, name string, seed uint8, capturedAt time.Time) backend.File {
	t.Helper()
	return backend.FileFromBytes(name, PNG(t, 3000, 1500, seed), capturedAt)
}

// Text returns an upload file whose content is plain text.
func Text(name string) backend.File {
	return backend.FileFromBytes(name, []byte("this is not a photo at all\n"), time.Time{})
}
