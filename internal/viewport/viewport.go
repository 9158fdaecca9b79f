// Package viewport models the visible window of a page: its size, its
// scroll offset and the layout of the elements in it. It delivers the two
// notifications page effects need, size changes and intersection changes.
package viewport

import (
	"sync"
)

// Rect is an axis-aligned rectangle in document pixels.
type Rect struct {
	X, Y, W, H float64
}

// Intersect returns the overlap of r and o, or the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// Contains reports whether the point lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Element is a laid-out page element.
type Element struct {
	ID   string
	Rect Rect
}

// Entry describes an element's intersection with the viewport.
type Entry struct {
	ID           string
	Ratio        float64
	Intersecting bool
}

type observer struct {
	id        string
	threshold float64
	fn        func(Entry)
	last      bool
	fired     bool
}

// Viewport is safe for concurrent use. Updates are applied one at a time
// and their notifications are delivered before the next update starts.
// Callbacks must not update the Viewport they are subscribed to.
type Viewport struct {
	emit sync.Mutex

	mu        sync.Mutex
	width     int
	height    int
	scrollX   float64
	scrollY   float64
	elements  map[string]Rect
	nextID    int
	resizers  map[int]func(width, height int)
	observers map[int]*observer
}

// New returns a viewport of the given size scrolled to the origin.
func New(width, height int) *Viewport {
	return &Viewport{
		width:     width,
		height:    height,
		elements:  make(map[string]Rect),
		resizers:  make(map[int]func(int, int)),
		observers: make(map[int]*observer),
	}
}

// Size returns the viewport size in pixels.
func (v *Viewport) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Scroll returns the scroll offset.
func (v *Viewport) Scroll() (x, y float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollX, v.scrollY
}

// Lookup returns the layout of an element.
func (v *Viewport) Lookup(id string) (Element, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.elements[id]
	return Element{ID: id, Rect: r}, ok
}

// Ratio returns the visible fraction of an element, 0 when it is unknown.
func (v *Viewport) Ratio(id string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.elements[id]
	if !ok {
		return 0
	}
	return v.ratioLocked(r)
}

func (v *Viewport) visibleLocked() Rect {
	return Rect{X: v.scrollX, Y: v.scrollY, W: float64(v.width), H: float64(v.height)}
}

func (v *Viewport) ratioLocked(r Rect) float64 {
	vis := v.visibleLocked()
	if r.Area() == 0 {
		if vis.Contains(r.X, r.Y) {
			return 1
		}
		return 0
	}
	return vis.Intersect(r).Area() / r.Area()
}

// Resize changes the viewport size and notifies resize subscribers.
func (v *Viewport) Resize(width, height int) {
	v.update(func() bool {
		if v.width == width && v.height == height {
			return false
		}
		v.width, v.height = width, height
		return true
	})
}

// ScrollTo moves the visible window.
func (v *Viewport) ScrollTo(x, y float64) {
	v.update(func() bool {
		v.scrollX, v.scrollY = x, y
		return false
	})
}

// Layout adds elements or moves existing ones.
func (v *Viewport) Layout(elements ...Element) {
	v.update(func() bool {
		for _, e := range elements {
			v.elements[e.ID] = e.Rect
		}
		return false
	})
}

// update applies mutate and then delivers notifications. mutate reports
// whether the size changed.
func (v *Viewport) update(mutate func() (resized bool)) {
	v.emit.Lock()
	defer v.emit.Unlock()

	v.mu.Lock()
	resized := mutate()
	var onResize []func(int, int)
	if resized {
		for _, fn := range v.resizers {
			onResize = append(onResize, fn)
		}
	}
	w, h := v.width, v.height
	entries := v.pendingEntriesLocked()
	v.mu.Unlock()

	for _, fn := range onResize {
		fn(w, h)
	}
	for _, n := range entries {
		n.fn(n.entry)
	}
}

type notification struct {
	fn    func(Entry)
	entry Entry
}

// pendingEntriesLocked collects the observers whose threshold state flipped
// since they were last notified.
func (v *Viewport) pendingEntriesLocked() []notification {
	var out []notification
	for _, o := range v.observers {
		r, ok := v.elements[o.id]
		if !ok {
			continue
		}
		ratio := v.ratioLocked(r)
		in := intersecting(ratio, o.threshold)
		if o.fired && in == o.last {
			continue
		}
		o.fired, o.last = true, in
		out = append(out, notification{o.fn, Entry{ID: o.id, Ratio: ratio, Intersecting: in}})
	}
	return out
}

func intersecting(ratio, threshold float64) bool {
	return ratio > 0 && ratio >= threshold
}

// OnResize subscribes fn to size changes. The returned cancel function is
// idempotent.
func (v *Viewport) OnResize(fn func(width, height int)) (cancel func()) {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.resizers[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.resizers, id)
			v.mu.Unlock()
		})
	}
}

// Observe watches one element's intersection with the viewport. fn receives
// the initial state and every later crossing of threshold. ok is false when
// the element is not laid out, in which case nothing is watched.
func (v *Viewport) Observe(id string, threshold float64, fn func(Entry)) (cancel func(), ok bool) {
	v.emit.Lock()
	defer v.emit.Unlock()

	v.mu.Lock()
	if _, found := v.elements[id]; !found {
		v.mu.Unlock()
		return func() {}, false
	}
	key := v.nextID
	v.nextID++
	v.observers[key] = &observer{id: id, threshold: threshold, fn: fn}
	entries := v.pendingEntriesLocked()
	v.mu.Unlock()

	for _, n := range entries {
		n.fn(n.entry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.observers, key)
			v.mu.Unlock()
		})
	}, true
}
