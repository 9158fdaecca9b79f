package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

const frameBoundary = "rainframe"

type visibilityEvent struct {
	Group  string `json:"group"`
	Values []bool `json:"values"`
}

// streamRain sends the session's frames as an MJPEG stream. The session is
// closed when the viewer goes away.
func (s *server) streamRain(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	id := sess.ID()
	frames, detach := sess.Frames()
	defer func() {
		detach()
		if err := s.sessions.Close(id); err != nil {
			log.Printf("session %s: %v", id, err)
		}
	}()

	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+frameBoundary)
	c.Header("Cache-Control", "no-cache, no-store")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sess.Done():
			return false
		case f := <-frames:
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", frameBoundary, len(f)); err != nil {
				return false
			}
			if _, err := w.Write(f); err != nil {
				return false
			}
			_, err := io.WriteString(w, "\r\n")
			return err == nil
		}
	})
}

// visibilityEvents pushes group flag changes as server-sent events. Every
// group is sent once on connect. A slow client only receives the latest
// flags of each group.
func (s *server) visibilityEvents(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	var (
		mu      sync.Mutex
		pending = make(map[string][]bool)
		wake    = make(chan struct{}, 1)
	)
	push := func(group string, values []bool) {
		mu.Lock()
		pending[group] = values
		mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	}

	cancel := sess.Watch(push)
	defer cancel()
	for group, values := range sess.Visibility() {
		push(group, values)
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sess.Done():
			return false
		case <-wake:
		}

		mu.Lock()
		batch := pending
		pending = make(map[string][]bool)
		mu.Unlock()

		for group, values := range batch {
			c.SSEvent("visibility", visibilityEvent{Group: group, Values: values})
		}
		return true
	})
}
