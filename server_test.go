package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/rain"
	"github.com/Zachkp/portfolio/internal/session"
)

func testServer(t *testing.T) (*gin.Engine, *session.Registry) {
	t.Helper()
	return testServerWith(t, func(*config.Config) {})
}

func testServerWith(t *testing.T, tweak func(*config.Config)) (*gin.Engine, *session.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Rain.Interval = rain.MinInterval
	cfg.Seed = 3
	tweak(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	reg := session.NewRegistry(cfg, pageGroups(cfg)...)
	t.Cleanup(func() {
		cancel()
		reg.CloseAll()
	})
	return newRouter(&server{ctx: ctx, cfg: cfg, sessions: reg}), reg
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const openBody = `{
	"width": 800, "height": 600, "scrollX": 0, "scrollY": 0,
	"elements": [
		{"id": "technologies", "x": 0, "y": 900, "w": 800, "h": 500},
		{"id": "project-card-0", "x": 0, "y": 100, "w": 200, "h": 200},
		{"id": "project-card-1", "x": 0, "y": 1600, "w": 200, "h": 200}
	]
}`

func openTestSession(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/sessions", openBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID         string `json:"id"`
		Columns    int    `json:"columns"`
		IntervalMs int64  `json:"intervalMs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 50, resp.Columns)
	assert.Equal(t, int64(30), resp.IntervalMs)
	return resp.ID
}

func visibilityOf(t *testing.T, r http.Handler, id string) map[string][]bool {
	t.Helper()
	w := do(r, http.MethodGet, "/api/sessions/"+id+"/visibility", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Groups map[string][]bool `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Groups
}

func TestPage(t *testing.T) {
	r, _ := testServer(t)

	tests := []struct {
		query string
		want  string
		menu  string
	}{
		{"", "Open to Work", `aria-label="Open menu"`},
		{"?lang=es", "Listo para trabajar", `aria-label="Abrir menú"`},
		{"?lang=fr", "Open to Work", `aria-label="Open menu"`},
	}
	for _, tt := range tests {
		w := do(r, http.MethodGet, "/"+tt.query, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, tt.want)
		assert.Contains(t, body, `id="project-card-3"`)
		assert.Contains(t, body, `id="techicon-card-11"`)
		assert.Contains(t, body, `id="social-card-3"`)

		// Intro fades and the mobile menu.
		assert.Contains(t, body, `id="navbar" class="navbar intro"`)
		assert.Contains(t, body, `id="hero" class="hero intro"`)
		assert.Contains(t, body, tt.menu)
		assert.Contains(t, body, `id="mobile-menu"`)
		for _, href := range []string{"#projects", "#technologies", "#social-media"} {
			assert.Contains(t, body, `href="`+href+`" data-menu-link`)
		}
	}
}

func TestPageScript(t *testing.T) {
	r, _ := testServer(t)

	w := do(r, http.MethodGet, "/static/js/page.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	js := w.Body.String()

	// A failed session POST or a dead event stream must not leave the page hidden.
	assert.Contains(t, js, "if (!res.ok) {\n      revealAll();")
	assert.Contains(t, js, `events.addEventListener("error"`)
	assert.Contains(t, js, "events.close();\n      revealAll();")
	assert.Contains(t, js, "}, 280);")
	assert.Contains(t, js, `classList.add("shown"), 100`)
	assert.Contains(t, js, `classList.add("shown"), 400`)
}

func TestLookupLanguage(t *testing.T) {
	assert.Equal(t, "es", lookupLanguage("es").Code)
	assert.Equal(t, "en", lookupLanguage("").Code)
	assert.Equal(t, "en", lookupLanguage("de").Code)
	assert.Len(t, lookupLanguage("en").Projects, projectCards)
	assert.Len(t, TechIcons, techIconCards)
	assert.Len(t, Socials, socialCards)
}

func TestHealthz(t *testing.T) {
	r, _ := testServer(t)
	openTestSession(t, r)

	w := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, w.Body.String())
}

func TestOpenSessionValidation(t *testing.T) {
	r, _ := testServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"zero width", `{"width": 0, "height": 600}`},
		{"element without id", `{"width": 800, "height": 600, "elements": [{"x": 1}]}`},
		{"negative size", `{"width": 800, "height": 600, "elements": [{"id": "a", "w": -1}]}`},
		{"not json", `width=800`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestOpenSessionWhenFull(t *testing.T) {
	r, reg := testServerWith(t, func(cfg *config.Config) { cfg.MaxSessions = 2 })
	first := openTestSession(t, r)
	openTestSession(t, r)

	for range 3 {
		w := do(r, http.MethodPost, "/api/sessions", openBody)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), `"error"`)
	}
	assert.Equal(t, 2, reg.Len())

	w := do(r, http.MethodDelete, "/api/sessions/"+first, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	openTestSession(t, r)
}

func TestSessionVisibilityFlow(t *testing.T) {
	r, _ := testServer(t)
	id := openTestSession(t, r)

	groups := visibilityOf(t, r, id)
	assert.Equal(t, []bool{false}, groups["technologies"])
	assert.Equal(t, []bool{true, false, false, false}, groups["project"])
	assert.Len(t, groups["techicon"], techIconCards)
	assert.Len(t, groups["social"], socialCards)

	// Window 900..1500 shows the whole technologies section.
	w := do(r, http.MethodPost, "/api/sessions/"+id+"/viewport", `{"width":800,"height":600,"scrollY":900}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	groups = visibilityOf(t, r, id)
	assert.Equal(t, []bool{true}, groups["technologies"])
	assert.Equal(t, []bool{false, false, false, false}, groups["project"])

	// Technologies latches; project card 0 is live.
	w = do(r, http.MethodPost, "/api/sessions/"+id+"/viewport", `{"width":800,"height":600,"scrollY":0}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	groups = visibilityOf(t, r, id)
	assert.Equal(t, []bool{true}, groups["technologies"])
	assert.Equal(t, []bool{true, false, false, false}, groups["project"])

	w = do(r, http.MethodPut, "/api/sessions/"+id+"/layout", `{"elements":[{"id":"project-card-1","x":300,"y":100,"w":200,"h":200}]}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []bool{true, true, false, false}, visibilityOf(t, r, id)["project"])
}

func TestUnknownSession(t *testing.T) {
	r, _ := testServer(t)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/sessions/nope/visibility", ""},
		{http.MethodPost, "/api/sessions/nope/viewport", `{"width":1,"height":1}`},
		{http.MethodPut, "/api/sessions/nope/layout", `{"elements":[]}`},
		{http.MethodDelete, "/api/sessions/nope", ""},
	} {
		w := do(r, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, w.Code, req.path)
	}
}

func TestDeleteSession(t *testing.T) {
	r, reg := testServer(t)
	id := openTestSession(t, r)

	w := do(r, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, reg.Len())

	w = do(r, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotPNG(t *testing.T) {
	r, _ := testServer(t)

	w := do(r, http.MethodGet, "/rain.png?w=160&h=96&ticks=5&seed=9", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 96, img.Bounds().Dy())

	assert.Equal(t, "5", w.Header().Get("X-Rain-Ticks"))

	w = do(r, http.MethodGet, "/rain.png?ticks=5000", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshotWorkIsBounded(t *testing.T) {
	r, _ := testServer(t)

	// 4000x4000 is cut to the 1920x1080 surface cap, then ticks to the budget.
	w := do(r, http.MethodGet, "/rain.png?w=4000&h=4000&ticks=600", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-Rain-Ticks"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1920, img.Bounds().Dx())
	assert.Equal(t, 1080, img.Bounds().Dy())

	tests := []struct {
		opts snapshotOptions
		want int
	}{
		{snapshotOptions{Width: 160, Height: 96, Ticks: 600}, 600},
		{snapshotOptions{Width: 960, Height: 540, Ticks: 600}, 240},
		{snapshotOptions{Width: 1920, Height: 1080, Ticks: 600}, 60},
		{snapshotOptions{Width: 1920, Height: 1080, Ticks: 10}, 10},
		{snapshotOptions{Width: 100000, Height: 100000, Ticks: 5}, 1},
		{snapshotOptions{Width: 0, Height: 96, Ticks: 5}, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.opts.bounded(snapshotWork).Ticks, "%+v", tt.opts)
	}
}

func TestRainStream(t *testing.T) {
	r, reg := testServer(t)
	ts := httptest.NewServer(r)
	defer ts.Close()

	id := openTestSession(t, r)

	resp, err := http.Get(ts.URL + "/api/sessions/" + id + "/rain")
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mediaType)

	mr := multipart.NewReader(resp.Body, params["boundary"])
	for range 2 {
		part, err := mr.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	require.Eventually(t, func() bool { return reg.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestVisibilityEvents(t *testing.T) {
	r, _ := testServer(t)
	ts := httptest.NewServer(r)
	defer ts.Close()

	id := openTestSession(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+id+"/visibility/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan visibilityEvent, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			data, ok := strings.CutPrefix(sc.Text(), "data:")
			if !ok {
				continue
			}
			var ev visibilityEvent
			if json.Unmarshal([]byte(data), &ev) == nil {
				events <- ev
			}
		}
	}()

	next := func() visibilityEvent {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no visibility event")
			return visibilityEvent{}
		}
	}

	// One event per group on connect.
	initial := map[string][]bool{}
	for range 4 {
		ev := next()
		initial[ev.Group] = ev.Values
	}
	assert.Equal(t, []bool{false}, initial["technologies"])

	w := do(r, http.MethodPost, "/api/sessions/"+id+"/viewport", `{"width":800,"height":600,"scrollY":900}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	got := map[string][]bool{}
	for len(got) < 2 {
		ev := next()
		got[ev.Group] = ev.Values
	}
	assert.Equal(t, []bool{true}, got["technologies"])
	assert.Equal(t, []bool{false, false, false, false}, got["project"])
}
