package rain

import (
	"math/rand/v2"
	"slices"
)

// Renderer owns the drop columns and paints one frame per Tick.
//
// A Renderer is not safe for concurrent use. Loop serializes access to it.
type Renderer struct {
	surface Surface
	ready   bool
	params  Params
	glyphs  []rune
	rng     *rand.Rand

	width, height int
	drops         []Drop
}

// NewRenderer mounts the renderer on surface and sizes it to the viewport.
// A nil surface is accepted: every tick is then a no-op.
func NewRenderer(surface Surface, width, height int, p Params, rng *rand.Rand) *Renderer {
	r := &Renderer{
		surface: surface,
		params:  p,
		glyphs:  []rune(p.Alphabet),
		rng:     rng,
	}
	r.Resize(width, height)
	return r
}

// Resize resizes the surface and replaces every drop. Nothing from the
// previous layout survives.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = max(width, 0), max(height, 0)
	if r.surface != nil {
		r.ready = r.surface.Resize(r.width, r.height) == nil
	}
	r.drops = NewDrops(r.width, r.height, r.params, r.rng)
}

// Tick paints the trail fade and advances every drop by one step.
func (r *Renderer) Tick() {
	if r.surface == nil || !r.ready {
		return
	}

	p := r.params
	g := float64(p.GlyphSize)
	h := float64(r.height)

	fade := p.Background
	fade.A = p.TrailAlpha
	r.surface.FillRect(0, 0, float64(r.width), h, fade)

	style := GlyphStyle{
		Color:      p.GlyphColor,
		GlowRadius: p.GlowRadius,
		GlowColor:  p.GlowColor,
	}
	for i := range r.drops {
		d := &r.drops[i]
		ch := r.glyphs[r.rng.IntN(len(r.glyphs))]
		y := d.Position * g

		style.Alpha = d.Opacity
		r.surface.DrawGlyph(ch, float64(i)*g, y, style)

		if y > h && r.rng.Float64() < p.ResetProbability {
			d.Position = 0
			d.redraw(p, r.rng)
		}
		d.Position += d.FallSpeed
	}
}

// Drops returns a copy of the current column state.
func (r *Renderer) Drops() []Drop {
	return slices.Clone(r.drops)
}

// Columns returns the number of live drops.
func (r *Renderer) Columns() int {
	return len(r.drops)
}

// Size returns the surface dimensions last applied.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}
