package rain

import "math/rand/v2"

// Drop is one column's falling stream. Position is measured in glyph rows.
type Drop struct {
	Position  float64
	FallSpeed float64
	Opacity   float64
}

// NewRand returns the random source for a rain. A zero seed draws a fresh
// one; any other seed replays the same rain.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// Columns returns how many drops fit across width.
func Columns(width, glyphSize int) int {
	if width <= 0 || glyphSize <= 0 {
		return 0
	}
	return width / glyphSize
}

// NewDrops builds one drop per column, scattered over the visible rows.
func NewDrops(width, height int, p Params, rng *rand.Rand) []Drop {
	n := Columns(width, p.GlyphSize)
	rows := 0.0
	if height > 0 {
		rows = float64(height) / float64(p.GlyphSize)
	}

	drops := make([]Drop, n)
	for i := range drops {
		drops[i] = Drop{Position: rng.Float64() * rows}
		drops[i].redraw(p, rng)
	}
	return drops
}

// redraw picks fresh speed and opacity for the drop.
func (d *Drop) redraw(p Params, rng *rand.Rand) {
	d.FallSpeed = uniform(rng, p.SpeedMin, p.SpeedMax)
	d.Opacity = uniform(rng, p.OpacityMin, p.OpacityMax)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
