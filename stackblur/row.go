package stackblur

// blurRows runs the horizontal pass over rows startRow..endRow inclusive.
func blurRows(p Params, pix []uint32, startRow, endRow int) {
	w := newSlidingWindow(p)
	for row := startRow; row <= endRow; row++ {
		w.scan(pix, row*p.width, 1, p.width)
	}
}
