package stackblur

// band is an inclusive range of rows or columns handled by one job.
type band struct {
	start, end int
}

// splitBands divides n lines between threads. The last band takes the
// remainder; empty bands are dropped.
func splitBands(n, threads int) []band {
	if threads < 1 {
		threads = 1
	}
	per := n / threads

	bands := make([]band, 0, threads)
	for i := 0; i < threads; i++ {
		start := i * per
		end := start + per - 1
		if i == threads-1 {
			end = n - 1
		}
		if end < start {
			continue
		}
		bands = append(bands, band{start: start, end: end})
	}
	return bands
}
