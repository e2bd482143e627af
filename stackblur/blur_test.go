package stackblur

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/Tutortoise/stackblur-service/workerpool"
)

const (
	opaqueBlack = 0xff000000
	opaqueWhite = 0xffffffff
)

func newTestBlurrer(t *testing.T, threads int) *Blurrer {
	t.Helper()
	b := NewBlurrer(WithThreads(threads))
	t.Cleanup(b.Close)
	return b
}

func randomPixels(seed int64, n int) []uint32 {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]uint32, n)
	for i := range pix {
		pix[i] = rng.Uint32()
	}
	return pix
}

func checkerboard(width, height int) []uint32 {
	pix := make([]uint32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 1 {
				pix[y*width+x] = opaqueWhite
			} else {
				pix[y*width+x] = opaqueBlack
			}
		}
	}
	return pix
}

func TestBlur_IdentityAtRadiusZero(t *testing.T) {
	b := newTestBlurrer(t, 4)
	pix := randomPixels(1, 37*23)
	want := slices.Clone(pix)

	if err := b.Blur(context.Background(), pix, 0, 37, 23); err != nil {
		t.Fatalf("Blur() error = %v", err)
	}
	if !slices.Equal(pix, want) {
		t.Error("radius 0 changed the buffer")
	}
}

func TestBlur_PreservesAlpha(t *testing.T) {
	b := newTestBlurrer(t, 3)

	for _, radius := range []int{1, 2, 7, 40, MaxRadius} {
		pix := randomPixels(int64(radius), 31*17)
		orig := slices.Clone(pix)

		if err := b.Blur(context.Background(), pix, radius, 31, 17); err != nil {
			t.Fatalf("radius %d: Blur() error = %v", radius, err)
		}
		for i := range pix {
			if pix[i]&alphaMask != orig[i]&alphaMask {
				t.Fatalf("radius %d: pixel %d alpha %08x, want %08x", radius, i, pix[i]&alphaMask, orig[i]&alphaMask)
			}
		}
	}
}

func TestBlur_UniformColor(t *testing.T) {
	b := newTestBlurrer(t, 4)
	const color = 0x7f3a91c4

	for _, radius := range []int{1, 3, 15, 100, MaxRadius} {
		pix := make([]uint32, 20*9)
		for i := range pix {
			pix[i] = color
		}

		if err := b.Blur(context.Background(), pix, radius, 20, 9); err != nil {
			t.Fatalf("radius %d: Blur() error = %v", radius, err)
		}

		wr, wg, wb := unpack(color)
		for i, px := range pix {
			cr, cg, cb := unpack(px)
			if abs(cr-wr) > 1 || abs(cg-wg) > 1 || abs(cb-wb) > 1 {
				t.Fatalf("radius %d: pixel %d = %08x, want ~%08x", radius, i, px, uint32(color))
			}
			if px&alphaMask != color&alphaMask {
				t.Fatalf("radius %d: pixel %d alpha changed", radius, i)
			}
		}
	}
}

func TestBlur_DeterministicAcrossThreadCounts(t *testing.T) {
	const width, height = 53, 41
	input := randomPixels(42, width*height)

	var reference []uint32
	for _, threads := range []int{1, 2, 8} {
		b := newTestBlurrer(t, threads)
		pix := slices.Clone(input)
		if err := b.Blur(context.Background(), pix, 6, width, height); err != nil {
			t.Fatalf("threads %d: Blur() error = %v", threads, err)
		}
		if reference == nil {
			reference = pix
			continue
		}
		if !slices.Equal(pix, reference) {
			t.Errorf("threads %d: output differs from single-threaded run", threads)
		}
	}
}

func TestBlur_MoreThreadsThanLines(t *testing.T) {
	input := randomPixels(7, 3*2)

	single := slices.Clone(input)
	if err := newTestBlurrer(t, 1).Blur(context.Background(), single, 2, 3, 2); err != nil {
		t.Fatal(err)
	}
	many := slices.Clone(input)
	if err := newTestBlurrer(t, 16).Blur(context.Background(), many, 2, 3, 2); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(single, many) {
		t.Error("16 threads on a 3x2 image differ from 1 thread")
	}
}

func TestBlur_SinglePixel(t *testing.T) {
	b := newTestBlurrer(t, 4)

	for _, radius := range []int{0, 1, 5, MaxRadius} {
		pix := []uint32{0xc0123456}
		if err := b.Blur(context.Background(), pix, radius, 1, 1); err != nil {
			t.Fatalf("radius %d: Blur() error = %v", radius, err)
		}
		if pix[0] != 0xc0123456 {
			t.Errorf("radius %d: pixel = %08x, want c0123456", radius, pix[0])
		}
	}
}

func TestBlur_RejectsRadius(t *testing.T) {
	b := newTestBlurrer(t, 2)

	for _, radius := range []int{-1, MaxRadius + 1, 1000} {
		pix := randomPixels(3, 4*4)
		orig := slices.Clone(pix)

		err := b.Blur(context.Background(), pix, radius, 4, 4)
		if !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("radius %d: error = %v, want ErrInvalidRadius", radius, err)
		}
		if !slices.Equal(pix, orig) {
			t.Errorf("radius %d: buffer mutated on rejection", radius)
		}
	}
}

func TestBlur_RejectsDimensions(t *testing.T) {
	b := newTestBlurrer(t, 2)

	tests := []struct {
		name          string
		n             int
		width, height int
	}{
		{"zero width", 0, 0, 4},
		{"negative height", 4, 4, -1},
		{"short buffer", 15, 4, 4},
		{"long buffer", 17, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := randomPixels(9, tt.n)
			orig := slices.Clone(pix)

			err := b.Blur(context.Background(), pix, 1, tt.width, tt.height)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("error = %v, want ErrInvalidDimensions", err)
			}
			if !slices.Equal(pix, orig) {
				t.Error("buffer mutated on rejection")
			}
		})
	}
}

func TestBlur_AllBlack(t *testing.T) {
	b := newTestBlurrer(t, 2)
	pix := make([]uint32, 16)
	for i := range pix {
		pix[i] = opaqueBlack
	}

	if err := b.Blur(context.Background(), pix, 1, 4, 4); err != nil {
		t.Fatal(err)
	}
	for i, px := range pix {
		if px != opaqueBlack {
			t.Errorf("pixel %d = %08x, want ff000000", i, px)
		}
	}
}

func TestBlur_Checkerboard(t *testing.T) {
	b := newTestBlurrer(t, 2)
	pix := checkerboard(4, 4)

	if err := b.Blur(context.Background(), pix, 1, 4, 4); err != nil {
		t.Fatal(err)
	}

	// corners lean towards their own colour because the edge pixel is
	// repeated past the border
	want := []uint32{
		0xff5f5f5f, 0xff7f7f7f, 0xff7f7f7f, 0xff9f9f9f,
		0xff7f7f7f, 0xff7f7f7f, 0xff7f7f7f, 0xff7f7f7f,
		0xff7f7f7f, 0xff7f7f7f, 0xff7f7f7f, 0xff7f7f7f,
		0xff9f9f9f, 0xff7f7f7f, 0xff7f7f7f, 0xff5f5f5f,
	}
	if !slices.Equal(pix, want) {
		t.Errorf("checkerboard blur =\n%08x\nwant\n%08x", pix, want)
	}

	for y := 1; y < 3; y++ {
		for x := 1; x < 3; x++ {
			r, _, _ := unpack(pix[y*4+x])
			if r <= 0 || r >= 255 {
				t.Errorf("interior (%d,%d) red = %d, want strictly between 0 and 255", x, y, r)
			}
		}
	}
}

func TestBlur_KnownGradient(t *testing.T) {
	const width, height = 5, 3
	pix := make([]uint32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = 0x80000000 | uint32(x*40)<<16 | uint32(y*40)<<8 | uint32((x+y)*20)
		}
	}

	want := []uint32{
		0x800a0a0a, 0x80280a19, 0x80500a2d, 0x80780a41, 0x80960a50,
		0x800a2819, 0x80282828, 0x8050283c, 0x80782850, 0x8096285f,
		0x800a4628, 0x80284637, 0x8050464b, 0x8078465f, 0x8096466e,
	}

	for _, threads := range []int{1, 2, 8} {
		got := slices.Clone(pix)
		if err := newTestBlurrer(t, threads).Blur(context.Background(), got, 1, width, height); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, want) {
			t.Errorf("threads %d: got\n%08x\nwant\n%08x", threads, got, want)
		}
	}
}

func TestBlur_ClosedBlurrer(t *testing.T) {
	b := NewBlurrer(WithThreads(2))
	b.Close()

	pix := checkerboard(4, 4)
	orig := slices.Clone(pix)

	err := b.Blur(context.Background(), pix, 1, 4, 4)
	if !errors.Is(err, ErrPoolUnavailable) {
		t.Errorf("error = %v, want ErrPoolUnavailable", err)
	}
	if !slices.Equal(pix, orig) {
		t.Error("buffer mutated although no band ran")
	}
}

func TestBlur_BorrowedPool(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	b := NewBlurrer(WithPool(pool))
	if b.Threads() != 3 {
		t.Errorf("Threads() = %d, want pool size 3", b.Threads())
	}
	b.Close()
	if !pool.IsRunning() {
		t.Fatal("Close on a borrowing Blurrer stopped the caller's pool")
	}

	pix := checkerboard(6, 6)
	if err := b.Blur(context.Background(), pix, 2, 6, 6); err != nil {
		t.Fatalf("Blur() error = %v", err)
	}
}

func TestBlur_CancelledContextStopsWaiting(t *testing.T) {
	pool := workerpool.New(1)
	release := make(chan struct{})
	if _, err := pool.Submit(func() { <-release }); err != nil {
		t.Fatal(err)
	}

	b := NewBlurrer(WithPool(pool))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pix := checkerboard(8, 8)
	if err := b.Blur(ctx, pix, 2, 8, 8); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	close(release)
	pool.Close()

	// only the row pass was queued, so columns still hold row-pass output
	want := checkerboard(8, 8)
	p, _ := newParams(2, 8, 8)
	blurRows(p, want, 0, 7)
	if !slices.Equal(pix, want) {
		t.Error("column pass ran after the caller stopped waiting")
	}
}

func TestRunPhase_JobPanicAborts(t *testing.T) {
	b := newTestBlurrer(t, 2)

	err := b.runPhase(context.Background(), "row", []band{{0, 0}, {1, 1}}, func(bd band) {
		if bd.start == 1 {
			panic("index out of range")
		}
	})
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("error = %v, want ErrJobFailed", err)
	}
}

func TestBlur_PackageFunction(t *testing.T) {
	pix := checkerboard(4, 4)
	if err := Blur(pix, 1, 4, 4); err != nil {
		t.Fatalf("Blur() error = %v", err)
	}
	if pix[0] != 0xff5f5f5f {
		t.Errorf("pixel 0 = %08x, want ff5f5f5f", pix[0])
	}

	if err := Blur(pix, MaxRadius+1, 4, 4); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("error = %v, want ErrInvalidRadius", err)
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
