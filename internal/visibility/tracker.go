// Package visibility turns viewport intersection entries into the ordered
// boolean flags page sections use for their fade-in state.
package visibility

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Zachkp/portfolio/internal/viewport"
)

// Mode selects how a flag reacts when its element leaves the viewport.
type Mode int

const (
	// Live mirrors the current intersection state.
	Live Mode = iota
	// Latch turns true on first sight and stays true.
	Latch
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Latch:
		return "latch"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Source delivers intersection entries for laid-out elements.
type Source interface {
	Observe(id string, threshold float64, fn func(viewport.Entry)) (cancel func(), ok bool)
}

// CardIDs returns prefix-card-0 .. prefix-card-(count-1).
func CardIDs(count int, prefix string) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-card-%d", prefix, i)
	}
	return ids
}

// Tracker holds one flag per tracked id.
type Tracker struct {
	mode Mode

	mu      sync.Mutex
	values  []bool
	cancels []func()
	subs    map[int]func([]bool)
	nextSub int
	closed  bool
}

// Observe subscribes to every id that src can resolve right now. Ids that
// are not laid out yet are skipped and their flag stays false.
func Observe(src Source, ids []string, threshold float64, mode Mode) *Tracker {
	t := &Tracker{
		mode:   mode,
		values: make([]bool, len(ids)),
		subs:   make(map[int]func([]bool)),
	}
	for i, id := range ids {
		cancel, ok := src.Observe(id, threshold, func(e viewport.Entry) {
			t.set(i, e.Intersecting)
		})
		if ok {
			t.mu.Lock()
			t.cancels = append(t.cancels, cancel)
			t.mu.Unlock()
		}
	}
	return t
}

func (t *Tracker) set(i int, in bool) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	next := in
	if t.mode == Latch {
		next = t.values[i] || in
	}
	if t.values[i] == next {
		t.mu.Unlock()
		return
	}
	t.values[i] = next
	snapshot := slices.Clone(t.values)
	subs := make([]func([]bool), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Values returns a copy of the flags in id order.
func (t *Tracker) Values() []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.values)
}

// Mode returns the tracker's mode.
func (t *Tracker) Mode() Mode { return t.mode }

// Subscribe calls fn with the full flag slice after every change.
func (t *Tracker) Subscribe(fn func([]bool)) (cancel func()) {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Close releases every intersection subscription. Flags keep their last
// value. Close is idempotent.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cancels := t.cancels
	t.cancels = nil
	clear(t.subs)
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
