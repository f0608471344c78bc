package bcd

import "math"

// goertzel is a single-bin Goertzel tone detector: narrowband energy at
// one target frequency, recomputed once per block.
type goertzel struct {
	coeff      float64
	s1, s2     float64
	blockSize  int
	count      int
}

func newGoertzel(rateHz, targetHz float64, blockSize int) *goertzel {
	k := 0.5 + float64(blockSize)*targetHz/rateHz
	omega := 2.0 * math.Pi * k / float64(blockSize)
	return &goertzel{
		coeff:     2.0 * math.Cos(omega),
		blockSize: blockSize,
	}
}

// push folds in one real sample. It returns (magnitude, true) once a
// block completes.
func (g *goertzel) push(sample float64) (float64, bool) {
	s0 := sample + g.coeff*g.s1 - g.s2
	g.s2 = g.s1
	g.s1 = s0
	g.count++
	if g.count < g.blockSize {
		return 0, false
	}
	mag := math.Sqrt(g.s1*g.s1 + g.s2*g.s2 - g.coeff*g.s1*g.s2)
	g.s1, g.s2, g.count = 0, 0, 0
	return mag / float64(g.blockSize), true
}

func (g *goertzel) reset() {
	g.s1, g.s2, g.count = 0, 0, 0
}
