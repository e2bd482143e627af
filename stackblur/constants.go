package stackblur

const (
	// MaxRadius is the largest radius the weight tables cover.
	MaxRadius = 254

	alphaMask = 0xff000000
	channel   = 0xff
)
