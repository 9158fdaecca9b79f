package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zachkp/portfolio/internal/config"
)

// Registry holds the open sessions and closes the idle ones.
type Registry struct {
	cfg    config.Config
	groups []Group

	mu       sync.Mutex
	sessions map[string]*Session
	// opening counts sessions being built outside the lock.
	opening int
}

// NewRegistry returns an empty registry. Every session it opens tracks groups.
func NewRegistry(cfg config.Config, groups ...Group) *Registry {
	return &Registry{
		cfg:      cfg,
		groups:   groups,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session with a fresh id. It returns ErrFull while
// cfg.MaxSessions sessions are open.
func (r *Registry) Open(ctx context.Context, layout Layout) (*Session, error) {
	r.mu.Lock()
	if r.cfg.MaxSessions > 0 && len(r.sessions)+r.opening >= r.cfg.MaxSessions {
		r.mu.Unlock()
		return nil, ErrFull
	}
	r.opening++
	r.mu.Unlock()

	s, err := Open(ctx, uuid.NewString(), r.cfg, layout, r.groups...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opening--
	if err != nil {
		return nil, err
	}
	r.sessions[s.ID()] = s
	return s, nil
}

// Get returns the session and marks it used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Close removes and closes a session.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return s.Close()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Reap closes sessions idle since before now minus the idle timeout that
// have no stream attached. It returns how many were closed.
func (r *Registry) Reap(now time.Time) int {
	cutoff := now.Add(-r.cfg.SessionIdleTimeout)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if !s.Streaming() && s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Close(); err != nil {
			log.Printf("session %s: close: %v", s.ID(), err)
		}
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done, then closes the rest.
func (r *Registry) Run(ctx context.Context) {
	every := max(r.cfg.SessionIdleTimeout/4, time.Second)
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case now := <-t.C:
			if n := r.Reap(now); n > 0 {
				log.Printf("Reaped %d idle sessions", n)
			}
		}
	}
}

// CloseAll closes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		if err := s.Close(); err != nil {
			log.Printf("session %s: close: %v", s.ID(), err)
		}
	}
}
