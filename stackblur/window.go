package stackblur

// runningSums holds the per-scanline accumulators: the weighted window
// total plus the sums of the half entering and the half leaving the window.
type runningSums struct {
	r, g, b          int64
	inR, inG, inB    int64
	outR, outG, outB int64
}

func (s *runningSums) addOut(px uint32) {
	r, g, b := unpack(px)
	s.outR += r
	s.outG += g
	s.outB += b
}

func (s *runningSums) subOut(px uint32) {
	r, g, b := unpack(px)
	s.outR -= r
	s.outG -= g
	s.outB -= b
}

func (s *runningSums) addIn(px uint32) {
	r, g, b := unpack(px)
	s.inR += r
	s.inG += g
	s.inB += b
}

func (s *runningSums) subIn(px uint32) {
	r, g, b := unpack(px)
	s.inR -= r
	s.inG -= g
	s.inB -= b
}

func (s *runningSums) addWeighted(px uint32, weight int64) {
	r, g, b := unpack(px)
	s.r += r * weight
	s.g += g * weight
	s.b += b * weight
}

// slidingWindow is the circular "stack" of divisor pixels. One is allocated
// per job and reused for every scanline of that job's band.
type slidingWindow struct {
	p     Params
	stack []uint32
}

func newSlidingWindow(p Params) *slidingWindow {
	return &slidingWindow{p: p, stack: make([]uint32, p.divisor)}
}

// scan blurs the n pixels at pix[start], pix[start+step], ... in place.
// Reads past the last pixel repeat it.
func (w *slidingWindow) scan(pix []uint32, start, step, n int) {
	radius := w.p.radius
	divisor := w.p.divisor
	last := n - 1

	var s runningSums

	// leading half: the first pixel repeated, weights 1..radius+1
	first := pix[start]
	for i := 0; i <= radius; i++ {
		w.stack[i] = first
		s.addWeighted(first, int64(i+1))
		s.addOut(first)
	}
	// trailing half: pixels 1..radius, weights radius..1
	for i := 1; i <= radius; i++ {
		px := pix[start+min(i, last)*step]
		w.stack[i+radius] = px
		s.addWeighted(px, int64(radius+1-i))
		s.addIn(px)
	}

	stackPointer := radius
	offset := min(radius, last)
	src := start + offset*step
	dst := start

	for i := 0; i < n; i++ {
		pix[dst] = w.p.pack(pix[dst], s.r, s.g, s.b)
		dst += step

		s.r -= s.outR
		s.g -= s.outG
		s.b -= s.outB

		stackStart := stackPointer + divisor - radius
		if stackStart >= divisor {
			stackStart -= divisor
		}
		s.subOut(w.stack[stackStart])

		if offset < last {
			src += step
			offset++
		}
		px := pix[src]
		w.stack[stackStart] = px
		s.addIn(px)

		s.r += s.inR
		s.g += s.inG
		s.b += s.inB

		stackPointer++
		if stackPointer >= divisor {
			stackPointer = 0
		}
		px = w.stack[stackPointer]
		s.addOut(px)
		s.subIn(px)
	}
}
