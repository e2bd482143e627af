package main

import (
	"context"
	"image"
	"time"

	"github.com/Tutortoise/stackblur-service/models"
	"github.com/Tutortoise/stackblur-service/raster"
	"github.com/Tutortoise/stackblur-service/stackblur"
	"github.com/disintegration/imaging"
)

// processImage shrinks img, blurs it and optionally scales it back up.
func processImage(ctx context.Context, blurrer *stackblur.Blurrer, filter imaging.ResampleFilter, img image.Image, opts models.BlurOptions, timings *models.ProcessingTimings) (*image.NRGBA, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// reject bad parameters before paying for the resize
	if _, _, err := stackblur.Weights(opts.Radius); err != nil {
		return nil, err
	}

	resizeStart := time.Now()
	small, err := raster.Shrink(img, opts.ResizeRatio, filter)
	if err != nil {
		return nil, err
	}
	timings.Resize = time.Since(resizeStart)

	packStart := time.Now()
	pix, width, height := raster.ToPixels(small)
	timings.Pack = time.Since(packStart)

	blurStart := time.Now()
	if err := blurrer.Blur(ctx, pix, opts.Radius, width, height); err != nil {
		return nil, err
	}
	timings.Blur = time.Since(blurStart)

	out, err := raster.FromPixels(pix, width, height)
	if err != nil {
		return nil, err
	}

	if opts.Restore {
		restoreStart := time.Now()
		b := img.Bounds()
		out = raster.Restore(out, b.Dx(), b.Dy(), filter)
		timings.Restore = time.Since(restoreStart)
	}
	return out, nil
}
