// Package raster moves images in and out of the packed ARGB layout the
// blur works on, and does the decoding, shrinking and encoding around it.
package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	ErrInvalidRatio  = errors.New("invalid resize ratio")
	ErrInvalidBuffer = errors.New("pixel buffer does not match size")
	ErrUnknownFormat = errors.New("unknown image format")
	ErrUnknownFilter = errors.New("unknown resize filter")
)

// ToPixels packs img into non-premultiplied 0xAARRGGBB words, row-major.
func ToPixels(img image.Image) (pix []uint32, width, height int) {
	nrgba := imaging.Clone(img)
	width, height = nrgba.Rect.Dx(), nrgba.Rect.Dy()

	pix = make([]uint32, width*height)
	for y := 0; y < height; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
		for x := 0; x < width; x++ {
			s := row[x*4 : x*4+4 : x*4+4]
			pix[y*width+x] = uint32(s[3])<<24 | uint32(s[0])<<16 | uint32(s[1])<<8 | uint32(s[2])
		}
	}
	return pix, width, height
}

// FromPixels is the inverse of ToPixels.
func FromPixels(pix []uint32, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidBuffer, len(pix), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			px := pix[y*width+x]
			d := row[x*4 : x*4+4 : x*4+4]
			d[0] = uint8(px >> 16)
			d[1] = uint8(px >> 8)
			d[2] = uint8(px)
			d[3] = uint8(px >> 24)
		}
	}
	return img, nil
}
