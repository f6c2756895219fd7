package imageinfo

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
)

type Info struct {
	Path      string    `json:"path"`
	Format    string    `json:"format,omitempty"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	TakenAt   time.Time `json:"taken_at,omitempty"`
	HasTaken  bool      `json:"has_taken"`
	HasGPS    bool      `json:"has_gps"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
}

// Read collects size, dimensions and EXIF metadata for path. A file that
// cannot be decoded as an image still yields its size and mod time.
func Read(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	info := Info{Path: path, Size: fi.Size(), ModTime: fi.ModTime()}

	f, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if cfg, format, err := image.DecodeConfig(f); err == nil {
		info.Format = format
		info.Width = cfg.Width
		info.Height = cfg.Height
	}

	if _, err := f.Seek(0, 0); err != nil {
		return info, nil
	}
	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block; most PNG/GIF/BMP files land here.
		return info, nil
	}
	if t, err := x.DateTime(); err == nil {
		info.TakenAt = t
		info.HasTaken = true
	}
	if lat, long, err := x.LatLong(); err == nil {
		info.HasGPS = true
		info.Latitude = lat
		info.Longitude = long
	}
	return info, nil
}

// TakenAt returns the EXIF capture time of path, falling back to the file's
// modification time. ok is false only when the file cannot be stat'ed.
func TakenAt(path string) (t time.Time, ok bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}

	f, err := os.Open(path)
	if err != nil {
		return fi.ModTime(), true
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return fi.ModTime(), true
	}
	if dt, err := x.DateTime(); err == nil {
		return dt, true
	}
	return fi.ModTime(), true
}
