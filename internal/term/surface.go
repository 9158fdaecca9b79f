// Package term draws the rain on a terminal. Each cell is one pixel with a
// glyph and a composited color; the screen is refreshed from the cells on
// Show.
package term

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/gogpu/gg"

	"github.com/Zachkp/portfolio/internal/rain"
)

// ErrEmptyScreen is returned when the terminal reports no cells.
var ErrEmptyScreen = errors.New("term: empty screen")

// blankLevel is the brightness under which a cell is drawn as a space.
const blankLevel = 0.02

type cell struct {
	ch  rune
	col gg.RGBA
}

// Surface implements rain.Surface on a tcell screen.
type Surface struct {
	screen tcell.Screen
	bg     gg.RGBA

	mu     sync.Mutex
	width  int
	height int
	cells  []cell
}

var _ rain.Surface = (*Surface)(nil)

// New wraps an initialised screen. bg is the color fades converge to.
func New(screen tcell.Screen, bg gg.RGBA) *Surface {
	bg.A = 1
	return &Surface{screen: screen, bg: bg}
}

// Resize reallocates the cell buffer and clears it to the background.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyScreen, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.cells = make([]cell, width*height)
	for i := range s.cells {
		s.cells[i].col = s.bg
	}
	s.screen.Clear()
	return nil
}

// FillRect blends c over every cell in the rectangle.
func (s *Surface) FillRect(x, y, w, h float64, c gg.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x0, y0 := max(int(x), 0), max(int(y), 0)
	x1, y1 := min(int(math.Ceil(x+w)), s.width), min(int(math.Ceil(y+h)), s.height)
	for row := y0; row < y1; row++ {
		for col := x0; col < x1; col++ {
			p := &s.cells[row*s.width+col]
			p.col = blend(p.col, c, c.A)
		}
	}
}

// DrawGlyph puts ch in the cell whose bottom edge is the baseline y. Glow
// is approximated by tinting the cells above and below.
func (s *Surface) DrawGlyph(ch rune, x, y float64, st rain.GlyphStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, row := int(math.Floor(x)), int(math.Floor(y))-1
	if !s.inside(col, row) {
		return
	}
	p := &s.cells[row*s.width+col]
	p.ch = ch
	p.col = blend(p.col, st.Color, st.Color.A*st.Alpha)

	if st.GlowRadius > 0 {
		for _, r := range [...]int{row - 1, row + 1} {
			if s.inside(col, r) {
				q := &s.cells[r*s.width+col]
				q.col = blend(q.col, st.GlowColor, st.GlowColor.A*st.Alpha*0.25)
			}
		}
	}
}

func (s *Surface) inside(col, row int) bool {
	return col >= 0 && col < s.width && row >= 0 && row < s.height
}

// Cell returns the glyph and color stored at (x, y).
func (s *Surface) Cell(x, y int) (rune, gg.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inside(x, y) {
		return 0, gg.RGBA{}
	}
	c := s.cells[y*s.width+x]
	return c.ch, c.col
}

// Show copies the cells to the screen.
func (s *Surface) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	bg := toColor(s.bg)
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			c := s.cells[row*s.width+col]
			ch := c.ch
			if ch == 0 || brightness(c.col, s.bg) < blankLevel {
				ch = ' '
			}
			style := tcell.StyleDefault.Foreground(toColor(c.col)).Background(bg)
			s.screen.SetContent(col, row, ch, nil, style)
		}
	}
	s.screen.Show()
}

func blend(dst, src gg.RGBA, a float64) gg.RGBA {
	a = min(max(a, 0), 1)
	return gg.RGBA{
		R: dst.R + (src.R-dst.R)*a,
		G: dst.G + (src.G-dst.G)*a,
		B: dst.B + (src.B-dst.B)*a,
		A: 1,
	}
}

func brightness(c, bg gg.RGBA) float64 {
	return max(math.Abs(c.R-bg.R), math.Abs(c.G-bg.G), math.Abs(c.B-bg.B))
}

func toColor(c gg.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R*255+0.5), int32(c.G*255+0.5), int32(c.B*255+0.5))
}
