package rain

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gg"
)

// DefaultAlphabet is the set of glyphs drawn by the rain.
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Tick interval bounds. Anything outside trades too much smoothness or CPU.
const (
	MinInterval = 30 * time.Millisecond
	MaxInterval = 70 * time.Millisecond
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("rain: invalid params")

// Params holds the visual parameters of the falling-characters effect.
type Params struct {
	GlyphSize int
	Alphabet  string
	Interval  time.Duration

	// Background is painted over the whole surface at TrailAlpha every tick.
	Background gg.RGBA
	TrailAlpha float64

	GlyphColor gg.RGBA
	GlowRadius float64
	GlowColor  gg.RGBA

	// ResetProbability is the chance per tick that a drop below the bottom
	// edge jumps back to the top.
	ResetProbability float64

	SpeedMin, SpeedMax     float64
	OpacityMin, OpacityMax float64
}

// DefaultParams returns the canonical rain look.
func DefaultParams() Params {
	return Params{
		GlyphSize:        16,
		Alphabet:         DefaultAlphabet,
		Interval:         70 * time.Millisecond,
		Background:       gg.RGB(0, 0, 0),
		TrailAlpha:       0.18,
		GlyphColor:       gg.Hex("#FF8C1A"),
		GlowRadius:       8,
		GlowColor:        gg.Hex("#FF8C1A"),
		ResetProbability: 0.04,
		SpeedMin:         0.2,
		SpeedMax:         0.8,
		OpacityMin:       0.08,
		OpacityMax:       0.26,
	}
}

// Validate reports the first parameter that would break the renderer.
func (p Params) Validate() error {
	switch {
	case p.GlyphSize <= 0:
		return fmt.Errorf("%w: glyph size %d must be positive", ErrInvalidParams, p.GlyphSize)
	case len([]rune(p.Alphabet)) == 0:
		return fmt.Errorf("%w: alphabet is empty", ErrInvalidParams)
	case p.Interval <= 0:
		return fmt.Errorf("%w: interval %s must be positive", ErrInvalidParams, p.Interval)
	case p.TrailAlpha <= 0 || p.TrailAlpha > 1:
		return fmt.Errorf("%w: trail alpha %.3f outside (0, 1]", ErrInvalidParams, p.TrailAlpha)
	case p.ResetProbability < 0 || p.ResetProbability > 1:
		return fmt.Errorf("%w: reset probability %.3f outside [0, 1]", ErrInvalidParams, p.ResetProbability)
	case p.SpeedMin < 0 || p.SpeedMax < p.SpeedMin:
		return fmt.Errorf("%w: speed range [%.2f, %.2f)", ErrInvalidParams, p.SpeedMin, p.SpeedMax)
	case p.OpacityMin < 0 || p.OpacityMax > 1 || p.OpacityMax < p.OpacityMin:
		return fmt.Errorf("%w: opacity range [%.2f, %.2f)", ErrInvalidParams, p.OpacityMin, p.OpacityMax)
	case p.GlowRadius < 0:
		return fmt.Errorf("%w: glow radius %.1f is negative", ErrInvalidParams, p.GlowRadius)
	}
	return nil
}
