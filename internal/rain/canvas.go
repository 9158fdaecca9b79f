package rain

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gomono"
)

// ErrSurfaceUnavailable is returned when a canvas cannot be created.
var ErrSurfaceUnavailable = errors.New("rain: surface unavailable")

// glowAlpha scales the glow color relative to the glyph alpha.
const glowAlpha = 0.35

var glowOffsets = [...][2]float64{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-0.7, -0.7}, {0.7, -0.7}, {-0.7, 0.7}, {0.7, 0.7},
}

var monoSource = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(gomono.TTF)
})

// Canvas is a Surface backed by a gg software raster.
type Canvas struct {
	dc    *gg.Context
	face  text.Face
	alpha float64
}

// NewCanvas allocates a width x height raster with a monospace face sized
// to glyphSize pixels.
func NewCanvas(width, height, glyphSize int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	src, err := monoSource()
	if err != nil {
		return nil, fmt.Errorf("load glyph font: %w", err)
	}

	c := &Canvas{
		dc:    gg.NewContext(width, height),
		face:  src.Face(float64(glyphSize)),
		alpha: 1,
	}
	c.dc.SetFont(c.face)
	c.dc.ClearWithColor(gg.RGB(0, 0, 0))
	return c, nil
}

// Resize reallocates the raster. The new pixels start black.
func (c *Canvas) Resize(width, height int) error {
	if width == c.dc.Width() && height == c.dc.Height() {
		return nil
	}
	if err := c.dc.Resize(width, height); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	c.dc.ClearWithColor(gg.RGB(0, 0, 0))
	return nil
}

// FillRect implements Surface.
func (c *Canvas) FillRect(x, y, w, h float64, col gg.RGBA) {
	c.setColor(col, 1)
	c.dc.DrawRectangle(x, y, w, h)
	_ = c.dc.Fill()
}

// DrawGlyph implements Surface. The glyph alpha is restored to opaque once
// the glyph is down so later fills are not affected.
func (c *Canvas) DrawGlyph(ch rune, x, y float64, st GlyphStyle) {
	c.alpha = st.Alpha
	defer func() { c.alpha = 1 }()

	s := string(ch)
	if st.GlowRadius > 0 {
		c.setColor(st.GlowColor, glowAlpha)
		r := st.GlowRadius / 2
		for _, o := range glowOffsets {
			c.dc.DrawString(s, x+o[0]*r, y+o[1]*r)
		}
	}
	c.setColor(st.Color, 1)
	c.dc.DrawString(s, x, y)
}

func (c *Canvas) setColor(col gg.RGBA, scale float64) {
	c.dc.SetRGBA(col.R, col.G, col.B, col.A*c.alpha*scale)
}

// Alpha reports the alpha multiplier currently in effect.
func (c *Canvas) Alpha() float64 { return c.alpha }

// Size returns the raster dimensions.
func (c *Canvas) Size() (width, height int) { return c.dc.Width(), c.dc.Height() }

// Image returns the current frame.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// EncodeJPEG writes the current frame as JPEG.
func (c *Canvas) EncodeJPEG(w io.Writer, quality int) error { return c.dc.EncodeJPEG(w, quality) }

// EncodePNG writes the current frame as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error { return c.dc.EncodePNG(w) }

// SavePNG writes the current frame to path.
func (c *Canvas) SavePNG(path string) error { return c.dc.SavePNG(path) }

// Close releases the raster.
func (c *Canvas) Close() error { return c.dc.Close() }
