package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/sim"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

type frameMsg struct {
	Index    int              `json:"index"`
	Viewport viz.Viewport     `json:"viewport"`
	Points   []viz.Projected  `json:"points"`
	Culled   int              `json:"culled"`
	Sliders  []sim.SliderView `json:"sliders"`
	Mode     sim.DisplayMode  `json:"mode"`
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Simulation.Grid = 4
	cfg.Render.FPS = 100
	ts := httptest.NewServer(New(cfg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) (context.Context, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return ctx, c
}

// nextFrame reads frames until pred accepts one.
func nextFrame(t *testing.T, ctx context.Context, c *websocket.Conn, pred func(frameMsg) bool) frameMsg {
	t.Helper()
	for {
		var f frameMsg
		require.NoError(t, wsjson.Read(ctx, c, &f))
		if pred(f) {
			return f
		}
	}
}

func TestIndexPage(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<canvas")
	assert.Contains(t, string(body), "/ws")
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStreamFrames(t *testing.T) {
	ts := testServer(t)
	ctx, c := dial(t, ts)

	first := nextFrame(t, ctx, c, func(frameMsg) bool { return true })
	assert.Equal(t, 1920.0, first.Viewport.Width)
	assert.Equal(t, 64, len(first.Points)+first.Culled)
	assert.Len(t, first.Sliders, 5)
	assert.Equal(t, sim.ShowAll, first.Mode)

	second := nextFrame(t, ctx, c, func(frameMsg) bool { return true })
	assert.Greater(t, second.Index, first.Index)
}

func TestCycleDisplay(t *testing.T) {
	ts := testServer(t)
	ctx, c := dial(t, ts)

	nextFrame(t, ctx, c, func(frameMsg) bool { return true })
	require.NoError(t, wsjson.Write(ctx, c, ClientMsg{Type: "input", Input: InputMsg{Cycle: true}}))

	f := nextFrame(t, ctx, c, func(f frameMsg) bool { return f.Mode != sim.ShowAll })
	assert.Equal(t, sim.FPSOnly, f.Mode)
	assert.Empty(t, f.Sliders)
}

func TestResize(t *testing.T) {
	ts := testServer(t)
	ctx, c := dial(t, ts)

	require.NoError(t, wsjson.Write(ctx, c, ClientMsg{Type: "resize", Width: 800, Height: 600}))
	f := nextFrame(t, ctx, c, func(f frameMsg) bool { return f.Viewport.Width == 800 })
	assert.Equal(t, 600.0, f.Viewport.Height)
}

func TestAccumulator(t *testing.T) {
	var a accumulator
	require.NoError(t, a.apply(nil, ClientMsg{Type: "input", Input: InputMsg{DX: 3, DY: 1, Reset: true}}))
	require.NoError(t, a.apply(nil, ClientMsg{Type: "input", Input: InputMsg{DX: 2, X: 10, Y: 20, Primary: true}}))

	in := a.flush(0.02)
	assert.Equal(t, 5.0, in.MouseDX)
	assert.Equal(t, 1.0, in.MouseDY)
	assert.True(t, in.Reset)
	assert.True(t, in.Primary)
	assert.Equal(t, 10.0, in.Cursor.X)
	assert.Equal(t, 0.02, in.Delta)

	in = a.flush(0.02)
	assert.Zero(t, in.MouseDX)
	assert.False(t, in.Reset)
	assert.True(t, in.Primary, "held state survives a flush")

	assert.Error(t, a.apply(nil, ClientMsg{Type: "bogus"}))
	assert.Error(t, a.apply(nil, ClientMsg{Type: "resize"}))
}
