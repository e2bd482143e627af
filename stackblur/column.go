package stackblur

// blurColumns runs the vertical pass over columns startCol..endCol inclusive.
// It must only see rows that blurRows has finished.
func blurColumns(p Params, pix []uint32, startCol, endCol int) {
	w := newSlidingWindow(p)
	for col := startCol; col <= endCol; col++ {
		w.scan(pix, col, p.width, p.height)
	}
}
