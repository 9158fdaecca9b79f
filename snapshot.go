package main

import (
	"fmt"

	"github.com/Zachkp/portfolio/internal/rain"
)

type snapshotOptions struct {
	Width, Height int
	Ticks         int
	Seed          uint64
}

// bounded cuts Ticks so width*height*ticks stays within work. At least one
// tick is always drawn.
func (o snapshotOptions) bounded(work int) snapshotOptions {
	if area := o.Width * o.Height; area > 0 && o.Ticks > 0 {
		o.Ticks = max(min(o.Ticks, work/area), 1)
	}
	return o
}

// renderSnapshot runs the rain for a fixed number of ticks on a fresh
// canvas. The caller closes the canvas.
func renderSnapshot(p rain.Params, opts snapshotOptions) (*rain.Canvas, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	canvas, err := rain.NewCanvas(opts.Width, opts.Height, p.GlyphSize)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	r := rain.NewRenderer(canvas, opts.Width, opts.Height, p, rain.NewRand(opts.Seed))
	for range opts.Ticks {
		r.Tick()
	}
	return canvas, nil
}
