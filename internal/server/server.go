// Package server streams session frames to browsers over a websocket and
// feeds their mouse and keyboard input back into the session.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/sim"
	"github.com/san-kum/lorenzcloud/internal/slider"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

//go:embed static
var staticFiles embed.FS

const (
	writeTimeout = 5 * time.Second
	maxDelta     = 0.1
)

// InputMsg is the client's input since its previous message.
type InputMsg struct {
	DX      float64 `json:"dx"`
	DY      float64 `json:"dy"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Primary bool    `json:"primary"`
	ZoomIn  bool    `json:"zoom_in"`
	ZoomOut bool    `json:"zoom_out"`
	Reset   bool    `json:"reset"`
	Cycle   bool    `json:"cycle"`
}

// ClientMsg is one message from the browser: "input" or "resize".
type ClientMsg struct {
	Type   string   `json:"type"`
	Input  InputMsg `json:"input"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

type Server struct {
	cfg            *config.Config
	logger         *slog.Logger
	originPatterns []string
}

type Option func(*Server)

// WithOriginPatterns sets the origins allowed to open the websocket.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger.With("component", "server")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.websocketHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/", http.FileServer(http.FS(static)))
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "url", fmt.Sprintf("http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		s.logger.Warn("websocket accept", "error", err)
		return
	}
	defer c.CloseNow()

	err = s.stream(r.Context(), c)
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		err = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("stream ended", "remote", r.RemoteAddr, "error", err)
		c.Close(websocket.StatusInternalError, "stream failed")
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

// stream owns one session for the lifetime of a connection. The reader
// goroutine only forwards decoded messages.
func (s *Server) stream(ctx context.Context, c *websocket.Conn) error {
	cfg := *s.cfg
	session, err := sim.NewSession(&cfg, s.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan ClientMsg, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			var m ClientMsg
			if err := wsjson.Read(ctx, c, &m); err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	fps := cfg.Render.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var acc accumulator
	last := time.Now()
	s.logger.Debug("session started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case m := <-msgs:
			if err := acc.apply(session, m); err != nil {
				s.logger.Warn("bad client message", "error", err)
			}
		case now := <-ticker.C:
			in := acc.flush(min(now.Sub(last).Seconds(), maxDelta))
			last = now
			f, err := session.Step(in)
			if err != nil {
				return err
			}
			if err := s.write(ctx, c, f); err != nil {
				return err
			}
		}
	}
}

func (s *Server) write(ctx context.Context, c *websocket.Conn, f *sim.Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, f)
}

// accumulator merges client input between frames: motion adds up, held
// state takes the latest value and one-shot keys latch until consumed.
type accumulator struct {
	in sim.Input
}

func (a *accumulator) apply(session *sim.Session, m ClientMsg) error {
	switch m.Type {
	case "input":
		a.in.MouseDX += m.Input.DX
		a.in.MouseDY += m.Input.DY
		a.in.Cursor = slider.Point{X: m.Input.X, Y: m.Input.Y}
		a.in.Primary = m.Input.Primary
		a.in.ZoomIn = m.Input.ZoomIn
		a.in.ZoomOut = m.Input.ZoomOut
		a.in.Reset = a.in.Reset || m.Input.Reset
		a.in.CycleDisplay = a.in.CycleDisplay || m.Input.Cycle
		return nil
	case "resize":
		if m.Width <= 0 || m.Height <= 0 {
			return fmt.Errorf("resize to %gx%g", m.Width, m.Height)
		}
		return session.Resize(viz.Viewport{Width: m.Width, Height: m.Height})
	}
	return fmt.Errorf("unknown message type %q", m.Type)
}

func (a *accumulator) flush(delta float64) sim.Input {
	in := a.in
	in.Delta = delta
	a.in.MouseDX, a.in.MouseDY = 0, 0
	a.in.Reset, a.in.CycleDisplay = false, false
	return in
}
