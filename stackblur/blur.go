package stackblur

import (
	"context"
	"fmt"
	"time"

	"github.com/Tutortoise/stackblur-service/workerpool"
	"go.uber.org/zap"
)

// Blurrer runs the two blur passes on a worker pool. It is safe for
// concurrent use; invocations share the pool's queue.
type Blurrer struct {
	pool    *workerpool.Pool
	ownPool bool
	threads int
	logger  *zap.Logger
}

type Option func(*Blurrer)

// WithThreads sets how many bands each pass is split into. When the
// Blurrer creates its own pool it also sets the pool size.
func WithThreads(n int) Option {
	return func(b *Blurrer) {
		b.threads = n
	}
}

// WithPool makes the Blurrer submit to an existing pool. The caller keeps
// ownership and must close it.
func WithPool(pool *workerpool.Pool) Option {
	return func(b *Blurrer) {
		b.pool = pool
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Blurrer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBlurrer(opts ...Option) *Blurrer {
	b := &Blurrer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	if b.threads <= 0 {
		if b.pool != nil {
			b.threads = b.pool.Size()
		} else {
			b.threads = workerpool.AvailableParallelism()
		}
	}
	if b.pool == nil {
		b.pool = workerpool.New(b.threads, workerpool.WithLogger(b.logger))
		b.ownPool = true
	}
	return b
}

// Threads returns the number of bands per pass.
func (b *Blurrer) Threads() int {
	return b.threads
}

// Pool returns the pool jobs are submitted to.
func (b *Blurrer) Pool() *workerpool.Pool {
	return b.pool
}

// Close shuts down the pool if the Blurrer created it.
func (b *Blurrer) Close() {
	if b.ownPool {
		b.pool.Close()
	}
}

// Blur blurs pixels, a row-major width*height ARGB raster, in place. Alpha
// is left untouched. On a validation error pixels is not modified.
//
// Cancelling ctx makes Blur return ctx.Err() without waiting; bands already
// running finish in the background, and the column pass is never started
// after the row pass was abandoned.
func (b *Blurrer) Blur(ctx context.Context, pixels []uint32, radius, width, height int) error {
	p, err := validate(pixels, radius, width, height)
	if err != nil {
		return err
	}
	if radius == 0 {
		return nil
	}

	start := time.Now()
	rows := splitBands(height, b.threads)
	cols := splitBands(width, b.threads)

	if err := b.runPhase(ctx, "row", rows, func(bd band) {
		blurRows(p, pixels, bd.start, bd.end)
	}); err != nil {
		return err
	}
	if err := b.runPhase(ctx, "column", cols, func(bd band) {
		blurColumns(p, pixels, bd.start, bd.end)
	}); err != nil {
		return err
	}

	b.logger.Debug("blur finished",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("radius", radius),
		zap.Int("row_bands", len(rows)),
		zap.Int("column_bands", len(cols)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// runPhase submits one job per band and waits for all of them.
func (b *Blurrer) runPhase(ctx context.Context, pass string, bands []band, fn func(band)) error {
	handles := make([]*workerpool.Handle, 0, len(bands))
	for _, bd := range bands {
		bd := bd
		h, err := b.pool.Submit(func() {
			b.logger.Debug("band started", zap.String("pass", pass), zap.Int("start", bd.start), zap.Int("end", bd.end))
			fn(bd)
		})
		if err != nil {
			// nothing may still be writing to the buffer once we return
			for _, submitted := range handles {
				<-submitted.Done()
			}
			return &ProcessingError{
				Message: fmt.Sprintf("%s pass: %v", pass, err),
				Cause:   ErrPoolUnavailable,
			}
		}
		handles = append(handles, h)
	}

	var failed error
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if failed == nil {
				failed = err
			}
		}
	}
	if failed != nil {
		b.logger.Error("blur band failed", zap.String("pass", pass), zap.Error(failed))
		return &ProcessingError{
			Message: fmt.Sprintf("%s pass: %v", pass, failed),
			Cause:   ErrJobFailed,
		}
	}
	return nil
}

func validate(pixels []uint32, radius, width, height int) (Params, error) {
	if width <= 0 || height <= 0 {
		return Params{}, &ProcessingError{
			Message: fmt.Sprintf("size %dx%d must be positive", width, height),
			Cause:   ErrInvalidDimensions,
		}
	}
	if len(pixels) != width*height {
		return Params{}, &ProcessingError{
			Message: fmt.Sprintf("buffer holds %d pixels, %dx%d needs %d", len(pixels), width, height, width*height),
			Cause:   ErrInvalidDimensions,
		}
	}
	return newParams(radius, width, height)
}

// Blur is a one-shot Blurrer.Blur that spawns a pool sized to the available
// CPUs and shuts it down before returning.
func Blur(pixels []uint32, radius, width, height int) error {
	if _, err := validate(pixels, radius, width, height); err != nil {
		return err
	}

	b := NewBlurrer()
	defer b.Close()
	return b.Blur(context.Background(), pixels, radius, width, height)
}
