package rain

import "github.com/gogpu/gg"

// Surface is a raster target the renderer paints on.
//
// Implementations decide what a pixel is: Canvas uses real pixels, the
// terminal surface uses one cell per pixel.
type Surface interface {
	// Resize sets the pixel dimensions. A failed resize leaves the surface
	// unusable until the next successful one.
	Resize(width, height int) error

	// FillRect composites c over the rectangle using c.A as coverage.
	FillRect(x, y, w, h float64, c gg.RGBA)

	// DrawGlyph draws ch with its baseline at y. The style alpha applies to
	// this glyph only.
	DrawGlyph(ch rune, x, y float64, style GlyphStyle)
}

// GlyphStyle describes how a single glyph is composited.
type GlyphStyle struct {
	Color      gg.RGBA
	Alpha      float64
	GlowRadius float64
	GlowColor  gg.RGBA
}
