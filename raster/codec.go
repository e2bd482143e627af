package raster

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

type Format struct {
	Name        string
	ContentType string
	format      imaging.Format
}

var (
	PNG  = Format{Name: "png", ContentType: "image/png", format: imaging.PNG}
	JPEG = Format{Name: "jpeg", ContentType: "image/jpeg", format: imaging.JPEG}
)

// ParseFormat accepts png, jpeg or jpg.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	default:
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Decode reads any format imaging or x/image/webp registers, applying the
// EXIF orientation tag.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img in the given format. quality only applies to JPEG.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	if err := imaging.Encode(w, img, f.format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode %s: %w", f.Name, err)
	}
	return nil
}
