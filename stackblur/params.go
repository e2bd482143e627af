package stackblur

// Params is shared read-only by every job of one invocation.
type Params struct {
	width      int
	height     int
	widthMax   int
	heightMax  int
	radius     int
	divisor    int
	multiplier int64
	shift      uint
}

func newParams(radius, width, height int) (Params, error) {
	mul, shr, err := Weights(radius)
	if err != nil {
		return Params{}, err
	}
	return Params{
		width:      width,
		height:     height,
		widthMax:   width - 1,
		heightMax:  height - 1,
		radius:     radius,
		divisor:    2*radius + 1,
		multiplier: mul,
		shift:      shr,
	}, nil
}

// pack turns the weighted channel sums back into a pixel carrying alpha.
func (p Params) pack(alpha uint32, sumR, sumG, sumB int64) uint32 {
	r := uint32((sumR*p.multiplier)>>p.shift) & channel
	g := uint32((sumG*p.multiplier)>>p.shift) & channel
	b := uint32((sumB*p.multiplier)>>p.shift) & channel
	return alpha&alphaMask | r<<16 | g<<8 | b
}
