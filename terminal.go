package main

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/Zachkp/portfolio/internal/rain"
	"github.com/Zachkp/portfolio/internal/term"
)

// runTerminal draws the rain on an initialised screen until ctx is done or
// the user presses Esc, q or Ctrl-C. afterFrame runs on the loop goroutine
// once each frame is on screen. The rain has stopped by the time
// runTerminal returns. The caller owns screen.Fini.
func runTerminal(ctx context.Context, screen tcell.Screen, p rain.Params, seed uint64, afterFrame ...func()) error {
	// One cell per glyph.
	p.GlyphSize = 1
	if err := p.Validate(); err != nil {
		return err
	}

	screen.HideCursor()
	screen.Clear()

	surface := term.New(screen, p.Background)
	w, h := screen.Size()
	renderer := rain.NewRenderer(surface, w, h, p, rain.NewRand(seed))
	loop := rain.NewLoop(renderer, p.Interval, rain.WithFrameHook(func() {
		surface.Show()
		for _, fn := range afterFrame {
			fn()
		}
	}))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return
				}
			case *tcell.EventResize:
				loop.Resize(ev.Size())
				screen.Sync()
			}
		}
	}()

	loop.Start(ctx)
	defer loop.Close()

	select {
	case <-ctx.Done():
	case <-quit:
	}
	return nil
}
