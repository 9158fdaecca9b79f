// Package session owns the per-viewer state behind the portfolio page: the
// viewport mirror, the rain loop drawing into it and the visibility
// trackers for the page sections.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/rain"
	"github.com/Zachkp/portfolio/internal/viewport"
	"github.com/Zachkp/portfolio/internal/visibility"
)

var (
	// ErrNotFound is returned for an id the registry does not hold.
	ErrNotFound = errors.New("session: not found")
	// ErrClosed is returned when updating a session that has been closed.
	ErrClosed = errors.New("session: closed")
	// ErrFull is returned by Registry.Open once MaxSessions are open.
	ErrFull = errors.New("session: too many open sessions")
)

// Group is a named set of elements tracked together.
type Group struct {
	Name      string
	IDs       []string
	Threshold float64
	Mode      visibility.Mode
}

// Layout is the viewer's window and the elements laid out in the document.
type Layout struct {
	Width, Height    int
	ScrollX, ScrollY float64
	Elements         []viewport.Element
}

type tracked struct {
	group   Group
	tracker *visibility.Tracker
}

// Session is one viewer's rain and visibility state.
type Session struct {
	id      string
	quality int
	maxW    int
	maxH    int

	view    *viewport.Viewport
	canvas  *rain.Canvas
	loop    *rain.Loop
	tracked []tracked

	unsubscribe func()

	frames    chan []byte
	streaming atomic.Int32
	lastSeen  atomic.Int64

	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

// Open builds a session from the initial layout and starts its rain loop.
// When the raster cannot be created the session still works but paints
// nothing.
func Open(ctx context.Context, id string, cfg config.Config, layout Layout, groups ...Group) (*Session, error) {
	if err := cfg.Rain.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:      id,
		quality: cfg.StreamQuality,
		maxW:    cfg.MaxSurfaceWidth,
		maxH:    cfg.MaxSurfaceHeight,
		view:    viewport.New(layout.Width, layout.Height),
		frames:  make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	s.Touch()

	s.view.ScrollTo(layout.ScrollX, layout.ScrollY)
	s.view.Layout(layout.Elements...)

	w, h := s.clamp(layout.Width, layout.Height)
	var surface rain.Surface
	canvas, err := rain.NewCanvas(w, h, cfg.Rain.GlyphSize)
	if err != nil {
		log.Printf("session %s: rain disabled: %v", id, err)
	} else {
		s.canvas = canvas
		surface = canvas
	}

	renderer := rain.NewRenderer(surface, w, h, cfg.Rain, rain.NewRand(cfg.Seed))
	s.loop = rain.NewLoop(renderer, cfg.Rain.Interval, rain.WithFrameHook(s.publish))
	s.unsubscribe = s.view.OnResize(func(width, height int) {
		s.loop.Resize(s.clamp(width, height))
	})

	for _, g := range groups {
		s.tracked = append(s.tracked, tracked{
			group:   g,
			tracker: visibility.Observe(s.view, g.IDs, g.Threshold, g.Mode),
		})
	}

	s.loop.Start(ctx)
	return s, nil
}

func (s *Session) clamp(width, height int) (int, int) {
	if s.maxW > 0 {
		width = min(width, s.maxW)
	}
	if s.maxH > 0 {
		height = min(height, s.maxH)
	}
	return width, height
}

// publish runs on the loop goroutine after every tick.
func (s *Session) publish() {
	if s.canvas == nil || s.streaming.Load() == 0 {
		return
	}
	var buf bytes.Buffer
	if err := s.canvas.EncodeJPEG(&buf, s.quality); err != nil {
		log.Printf("session %s: encode frame: %v", s.id, err)
		return
	}
	frame := buf.Bytes()
	for {
		select {
		case s.frames <- frame:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Columns returns the current rain column count.
func (s *Session) Columns() int { return s.loop.Columns() }

// Ticks returns how many frames the rain has drawn.
func (s *Session) Ticks() int64 { return s.loop.Ticks() }

// Streaming reports whether a frame stream is attached.
func (s *Session) Streaming() bool { return s.streaming.Load() > 0 }

// Frames attaches a stream and returns the JPEG frame channel. Slow readers
// only ever see the newest frame. The returned func detaches the stream.
func (s *Session) Frames() (<-chan []byte, func()) {
	s.streaming.Add(1)
	s.Touch()
	var once sync.Once
	return s.frames, func() {
		once.Do(func() {
			s.streaming.Add(-1)
			s.Touch()
		})
	}
}

// SetViewport applies a window resize or scroll.
func (s *Session) SetViewport(width, height int, scrollX, scrollY float64) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.Touch()
	s.view.Resize(width, height)
	s.view.ScrollTo(scrollX, scrollY)
	return nil
}

// Layout records new element positions.
func (s *Session) Layout(elements ...viewport.Element) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.Touch()
	s.view.Layout(elements...)
	return nil
}

// Viewport exposes the session's viewport.
func (s *Session) Viewport() *viewport.Viewport { return s.view }

// Visibility returns every group's flags.
func (s *Session) Visibility() map[string][]bool {
	out := make(map[string][]bool, len(s.tracked))
	for _, t := range s.tracked {
		out[t.group.Name] = t.tracker.Values()
	}
	return out
}

// Watch calls fn whenever a group's flags change.
func (s *Session) Watch(fn func(group string, values []bool)) (cancel func()) {
	cancels := make([]func(), 0, len(s.tracked))
	for _, t := range s.tracked {
		name := t.group.Name
		cancels = append(cancels, t.tracker.Subscribe(func(v []bool) { fn(name, v) }))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Touch marks the session as used now.
func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Close stops the rain loop, drops the resize subscription and every
// tracker, then releases the raster. Close is idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.unsubscribe()
		if cerr := s.loop.Close(); cerr != nil {
			err = fmt.Errorf("stop rain: %w", cerr)
		}
		for _, t := range s.tracked {
			t.tracker.Close()
		}
		if s.canvas != nil {
			if cerr := s.canvas.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("release canvas: %w", cerr)
			}
		}
		close(s.done)
	})
	return err
}
