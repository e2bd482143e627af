package stackblur

func unpack(px uint32) (r, g, b int64) {
	return int64(px >> 16 & channel), int64(px >> 8 & channel), int64(px & channel)
}
