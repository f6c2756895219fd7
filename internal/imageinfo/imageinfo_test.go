package imageinfo

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestReadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 12, 7)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Format != "png" || info.Width != 12 || info.Height != 7 {
		t.Errorf("info = %+v, want png 12x7", info)
	}
	if info.Size == 0 {
		t.Error("expected non-zero size")
	}
	if info.HasTaken {
		t.Error("PNG without EXIF should not report a capture time")
	}
}

func TestReadNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.jpg")
	os.WriteFile(path, []byte("not really a jpeg"), 0o644)

	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Format != "" || info.Width != 0 {
		t.Errorf("expected no dimensions, got %+v", info)
	}
	if info.Size != int64(len("not really a jpeg")) {
		t.Errorf("Size = %d", info.Size)
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTakenAtFallsBackToModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 1, 1)
	mt := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}

	got, ok := TakenAt(path)
	if !ok {
		t.Fatal("TakenAt returned ok=false")
	}
	if !got.Equal(mt) {
		t.Errorf("TakenAt = %v, want %v", got, mt)
	}

	if _, ok := TakenAt(filepath.Join(t.TempDir(), "missing.png")); ok {
		t.Error("TakenAt on missing file should return ok=false")
	}
}
