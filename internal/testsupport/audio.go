package testsupport

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FakePrimitive stands in for the ffmpeg-backed audio primitive. Slice
// writes a marker describing the requested range and Concat joins the
// markers, so tests can assert which ranges survived without real audio.
type FakePrimitive struct {
	FixedDuration float64
	SliceErr      error
	SliceCalls    int
}

func (f *FakePrimitive) Duration(ctx context.Context, path string) (float64, error) {
	return f.FixedDuration, nil
}

func (f *FakePrimitive) Slice(ctx context.Context, src string, start, end float64, dest string) error {
	if f.SliceErr != nil {
		return f.SliceErr
	}
	f.SliceCalls++
	return os.WriteFile(dest, []byte(fmt.Sprintf("[%.3f-%.3f]", start, end)), 0o644)
}

func (f *FakePrimitive) Concat(ctx context.Context, parts []string, dest string) error {
	var joined strings.Builder
	for _, part := range parts {
		data, err := os.ReadFile(part)
		if err != nil {
			return err
		}
		joined.Write(data)
	}
	return os.WriteFile(dest, []byte(joined.String()), 0o644)
}

func (f *FakePrimitive) ExtractWAV(ctx context.Context, src, dest string) error {
	return os.WriteFile(dest, []byte("wav"), 0o644)
}
