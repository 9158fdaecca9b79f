package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/session"
	"github.com/Zachkp/portfolio/internal/viewport"
	"github.com/Zachkp/portfolio/internal/visibility"
)

// Card counts on the page.
const (
	projectCards  = 4
	techIconCards = 12
	socialCards   = 4
)

// pageGroups lists the elements whose fade-in state the page follows.
func pageGroups(cfg config.Config) []session.Group {
	return []session.Group{
		{Name: "technologies", IDs: []string{"technologies"}, Threshold: cfg.SectionThreshold, Mode: visibility.Latch},
		{Name: "project", IDs: visibility.CardIDs(projectCards, "project"), Threshold: cfg.CardThreshold, Mode: visibility.Live},
		{Name: "techicon", IDs: visibility.CardIDs(techIconCards, "techicon"), Threshold: cfg.CardThreshold, Mode: visibility.Live},
		{Name: "social", IDs: visibility.CardIDs(socialCards, "social"), Threshold: cfg.CardThreshold, Mode: visibility.Live},
	}
}

type server struct {
	// ctx scopes the rain loops; it outlives any single request.
	ctx      context.Context
	cfg      config.Config
	sessions *session.Registry
}

type elementRequest struct {
	ID string  `json:"id" binding:"required"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	W  float64 `json:"w" binding:"gte=0"`
	H  float64 `json:"h" binding:"gte=0"`
}

type viewportRequest struct {
	Width   int     `json:"width" binding:"required,gt=0"`
	Height  int     `json:"height" binding:"required,gt=0"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

type openRequest struct {
	viewportRequest
	Elements []elementRequest `json:"elements" binding:"dive"`
}

type layoutRequest struct {
	Elements []elementRequest `json:"elements" binding:"required,dive"`
}

// snapshotWork bounds one /rain.png render in pixels times ticks.
const snapshotWork = 1920 * 1080 * 60

type snapshotQuery struct {
	Width  int    `form:"w" binding:"omitempty,gt=0"`
	Height int    `form:"h" binding:"omitempty,gt=0"`
	Ticks  int    `form:"ticks" binding:"omitempty,gte=0,lte=600"`
	Seed   uint64 `form:"seed"`
}

func toElements(reqs []elementRequest) []viewport.Element {
	out := make([]viewport.Element, len(reqs))
	for i, e := range reqs {
		out[i] = viewport.Element{ID: e.ID, Rect: viewport.Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}}
	}
	return out
}

func newRouter(s *server) *gin.Engine {
	r := gin.Default()
	r.LoadHTMLGlob("templates/*")

	r.Static("/images", "./images")
	r.Static("/static", "./static")

	// Home page route
	r.GET("/", s.page)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
	})
	r.GET("/rain.png", s.snapshot)

	api := r.Group("/api/sessions")
	api.POST("", s.openSession)
	api.POST("/:id/viewport", s.updateViewport)
	api.PUT("/:id/layout", s.updateLayout)
	api.GET("/:id/visibility", s.visibility)
	api.GET("/:id/visibility/events", s.visibilityEvents)
	api.GET("/:id/rain", s.streamRain)
	api.DELETE("/:id", s.closeSession)

	return r
}

func (s *server) page(c *gin.Context) {
	lang := lookupLanguage(c.Query("lang"))
	c.HTML(http.StatusOK, "index.html", gin.H{
		"t":          lang,
		"owner":      Owner,
		"techIcons":  TechIcons,
		"socials":    Socials,
		"year":       time.Now().Year(),
		"intervalMs": s.cfg.Rain.Interval.Milliseconds(),
	})
}

func (s *server) openSession(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.sessions.Open(s.ctx, session.Layout{
		Width:    req.Width,
		Height:   req.Height,
		ScrollX:  req.ScrollX,
		ScrollY:  req.ScrollY,
		Elements: toElements(req.Elements),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         sess.ID(),
		"columns":    sess.Columns(),
		"intervalMs": s.cfg.Rain.Interval.Milliseconds(),
	})
}

func (s *server) updateViewport(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.SetViewport(req.Width, req.Height, req.ScrollX, req.ScrollY); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) updateLayout(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := sess.Layout(toElements(req.Elements)...); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) visibility(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": sess.Visibility()})
}

func (s *server) closeSession(c *gin.Context) {
	if err := s.sessions.Close(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) snapshot(c *gin.Context) {
	var q snapshotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := snapshotOptions{Width: 800, Height: 600, Ticks: 60, Seed: q.Seed}
	if q.Width > 0 {
		opts.Width = min(q.Width, s.cfg.MaxSurfaceWidth)
	}
	if q.Height > 0 {
		opts.Height = min(q.Height, s.cfg.MaxSurfaceHeight)
	}
	if q.Ticks > 0 {
		opts.Ticks = q.Ticks
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	opts = opts.bounded(snapshotWork)
	c.Header("X-Rain-Ticks", strconv.Itoa(opts.Ticks))

	canvas, err := renderSnapshot(s.cfg.Rain, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	defer canvas.Close()

	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Status(http.StatusOK)
	if err := canvas.EncodePNG(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func (s *server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrFull):
		c.Header("Retry-After", "30")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
