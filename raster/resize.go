package raster

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	MinResizeRatio     = 1.0
	MaxResizeRatio     = 5.0
	DefaultResizeRatio = 2.2
)

var filters = map[string]imaging.ResampleFilter{
	"nearest": imaging.NearestNeighbor,
	"box":     imaging.Box,
	"linear":  imaging.Linear,
	"lanczos": imaging.Lanczos,
}

// ParseFilter maps a filter name to an imaging resample filter.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	f, ok := filters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return f, nil
}

func ValidateRatio(ratio float64) error {
	if ratio < MinResizeRatio || ratio > MaxResizeRatio {
		return fmt.Errorf("%w: %g outside [%g, %g]", ErrInvalidRatio, ratio, MinResizeRatio, MaxResizeRatio)
	}
	return nil
}

// ReducedSize divides both dimensions by ratio and rounds each down to an
// even number. A dimension never drops below 1.
func ReducedSize(width, height int, ratio float64) (int, int, error) {
	if err := ValidateRatio(ratio); err != nil {
		return 0, 0, err
	}
	return reduce(width, ratio), reduce(height, ratio), nil
}

func reduce(n int, ratio float64) int {
	r := int(float64(n) / ratio)
	if r >= 2 && r%2 != 0 {
		r--
	}
	if r < 1 {
		r = 1
	}
	return r
}

// Shrink scales img down by ratio. A ratio of 1 returns an NRGBA copy at
// the original size.
func Shrink(img image.Image, ratio float64, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	b := img.Bounds()
	if ratio == MinResizeRatio {
		return imaging.Clone(img), nil
	}

	w, h, err := ReducedSize(b.Dx(), b.Dy(), ratio)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, w, h, filter), nil
}

// Restore scales img back up to width x height.
func Restore(img image.Image, width, height int, filter imaging.ResampleFilter) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, filter)
}
