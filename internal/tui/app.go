package tui

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lorenzcloud/internal/config"
	"github.com/san-kum/lorenzcloud/internal/export"
	"github.com/san-kum/lorenzcloud/internal/sim"
	"github.com/san-kum/lorenzcloud/internal/slider"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

const (
	sidebarWidth = 34
	historyLen   = 120
	// Terminals report key presses only; a zoom key counts as held for
	// this long after its last repeat.
	holdWindow = 150 * time.Millisecond
	maxDelta   = 0.1
)

var (
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	errText = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type tickMsg time.Time

// Model is the bubbletea model of the terminal frontend. The cloud is drawn
// on a Braille canvas whose dots are the session's viewport pixels.
type Model struct {
	cfg     *config.Config
	session *sim.Session
	frame   *sim.Frame
	logger  *slog.Logger

	cloud    *viz.Canvas // fading point layer
	screen   *viz.Canvas // cloud plus overlays, rebuilt every frame
	theme    viz.Theme
	width    int
	height   int
	history  []float64
	tracked  int
	onScreen int

	// input gathered between ticks
	cursor        slider.Point
	dx, dy        float64
	primary       bool
	zoomInUntil   time.Time
	zoomOutUntil  time.Time
	reset, cycle  bool
	lastTick      time.Time
	paused        bool
	showHelp      bool
	status        string
	err           error
	snapshotDir   string
	frameInterval time.Duration
}

func NewModel(cfg *config.Config, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := sim.NewSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	theme, ok := viz.GetTheme(cfg.Render.Theme)
	if !ok {
		logger.Warn("unknown theme, using default", "theme", cfg.Render.Theme)
	}
	fps := cfg.Render.FPS
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	m := &Model{
		cfg:           cfg,
		session:       s,
		logger:        logger.With("component", "tui"),
		theme:         theme,
		history:       make([]float64, 0, historyLen),
		snapshotDir:   ".",
		frameInterval: time.Second / time.Duration(fps),
	}
	m.resize(80, 24)
	return m, nil
}

// Session exposes the underlying frame loop.
func (m *Model) Session() *sim.Session { return m.session }

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return m.tick() }

// resize fits the canvas into the terminal left of the sidebar and scales
// mouse sensitivity and point size with it.
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	cols := max(w-sidebarWidth, 8)
	rows := max(h, 4)
	m.cloud = viz.NewCanvas(cols, rows)
	m.screen = viz.NewCanvas(cols, rows)

	vp := m.cloud.Viewport()
	if err := m.session.Resize(vp); err != nil {
		m.err = err
		m.logger.Error("resize failed", "error", err)
		return
	}
	k := vp.Height / float64(m.cfg.Viewport.Height)
	m.session.Camera.PPR = m.cfg.Camera.PPR * k
	m.session.Projector.SizeK = m.cfg.Projection.SizeK * k
	m.logger.Debug("resize", "cols", cols, "rows", rows)
}

// toDots maps a terminal cell to the center of its dot block.
func toDots(x, y int) slider.Point {
	return slider.Point{X: float64(x*2) + 1, Y: float64(y*4) + 2}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg, time.Now())
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tickMsg:
		m.step(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg, now time.Time) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		m.paused = !m.paused
	case "r":
		m.reset = true
	case "h":
		m.cycle = true
	case "+", "=", "w":
		m.zoomInUntil = now.Add(holdWindow)
	case "-", "_", "x":
		m.zoomOutUntil = now.Add(holdWindow)
	case "t":
		m.theme = viz.NextTheme(m.theme.Name)
	case "s":
		m.snapshot(now)
	case "?":
		m.showHelp = !m.showHelp
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	p := toDots(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.primary = true
		case tea.MouseButtonWheelUp:
			m.zoomInUntil = time.Now().Add(holdWindow)
		case tea.MouseButtonWheelDown:
			m.zoomOutUntil = time.Now().Add(holdWindow)
		}
	case tea.MouseActionRelease:
		m.primary = false
	case tea.MouseActionMotion:
		if m.primary {
			m.dx += p.X - m.cursor.X
			m.dy += p.Y - m.cursor.Y
		}
	}
	m.cursor = p
}

// step runs one session frame with the input gathered since the last tick
// and redraws the canvases.
func (m *Model) step(now time.Time) {
	delta := 0.0
	if !m.lastTick.IsZero() {
		delta = min(now.Sub(m.lastTick).Seconds(), maxDelta)
	}
	m.lastTick = now

	in := sim.Input{
		MouseDX:      m.dx,
		MouseDY:      m.dy,
		Cursor:       m.cursor,
		Primary:      m.primary,
		ZoomIn:       now.Before(m.zoomInUntil),
		ZoomOut:      now.Before(m.zoomOutUntil),
		Reset:        m.reset,
		CycleDisplay: m.cycle,
		Delta:        delta,
	}
	m.dx, m.dy, m.reset, m.cycle = 0, 0, false, false

	if m.paused {
		s := m.session
		if in.Reset {
			s.Reset()
		}
		if in.CycleDisplay {
			s.Mode = s.Mode.Next()
		}
		m.draw()
		return
	}

	f, err := m.session.Step(in)
	if err != nil {
		m.err = err
		m.logger.Warn("frame failed", "error", err)
		return
	}
	m.frame = f
	m.err = nil
	m.record()
	m.draw()
}

func (m *Model) record() {
	p := m.session.Sim.Points[m.tracked]
	if len(m.history) == historyLen {
		copy(m.history, m.history[1:])
		m.history = m.history[:historyLen-1]
	}
	m.history = append(m.history, p.X)
}

func (m *Model) draw() {
	if m.frame == nil {
		return
	}
	m.cloud.Fade(viz.TrailKeep(m.session.Alpha()))
	m.onScreen = 0
	for _, p := range m.frame.Points {
		if m.session.Projector.InBounds(p) {
			m.onScreen++
		}
		if p.Pixel() {
			m.cloud.Plot(p.X, p.Y)
		} else {
			m.cloud.FillCircle(p.X, p.Y, p.Size)
		}
	}

	m.screen.CopyFrom(m.cloud)
	if m.session.Mode != sim.ShowAll {
		return
	}
	for _, sv := range m.frame.Sliders {
		m.screen.FillQuad(sv.Full)
		m.screen.FillQuad(sv.Empty)
		m.screen.FillCircle(sv.Thumb.X, sv.Thumb.Y, sv.ThumbRadius)
	}
}

func (m *Model) snapshot(now time.Time) {
	if m.frame == nil {
		return
	}
	name := fmt.Sprintf("%s/lorenz_%s.svg", m.snapshotDir, now.Format("20060102_150405"))
	svg := export.FrameToSVG(m.frame, m.theme)
	if err := os.WriteFile(name, []byte(svg), 0644); err != nil {
		m.err = err
		m.logger.Error("snapshot failed", "error", err)
		return
	}
	m.status = "saved " + name
	m.logger.Info("snapshot", "file", name)
}

func (m *Model) View() string {
	canvas := m.screen.Render(m.theme)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, m.sidebar())
}

func (m *Model) sidebar() string {
	s := m.session
	var b strings.Builder

	b.WriteString(viz.HeaderStyle.Render("LORENZ CLOUD") + "\n")
	if m.paused {
		b.WriteString(viz.StatusPaused.Render("PAUSED") + "\n\n")
	} else {
		b.WriteString(viz.StatusRunning.Render("RUNNING") + "\n\n")
	}

	if s.Mode != sim.Hidden {
		b.WriteString(viz.MetricLabel.Render("fps") + viz.MetricValue.Render(fmt.Sprint(s.FPS.FPS())) + "\n")
	}
	if s.Mode == sim.ShowAll {
		for i, sl := range s.Sliders {
			label := viz.MetricLabel
			if i == s.Focus() {
				label = viz.FocusedLabel
			}
			text := sim.FormatLabel(i, sl.Value)
			name, value, _ := strings.Cut(text, " ")
			b.WriteString(label.Render(name) + viz.ProgressBar(sl.Fraction(), 10) + " " + value + "\n")
		}
		b.WriteString(viz.MetricLabel.Render("camera") + fmt.Sprintf("%.1f", s.Camera.Distance()) + "\n")
		b.WriteString(viz.MetricLabel.Render("shown") + fmt.Sprintf("%d/%d", m.onScreen, len(s.Sim.Points)) + "\n")
		b.WriteString(viz.MetricLabel.Render("theme") + m.theme.Name + "\n")

		if len(m.history) > 1 {
			chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(sidebarWidth-10), asciigraph.Caption("x(t) of point 0"))
			b.WriteString("\n" + cyan.Render(chart) + "\n")
			b.WriteString(viz.SparklineChart(m.history, sidebarWidth-4) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errText.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + magenta.Render(m.status) + "\n")
	}

	b.WriteString("\n" + viz.Separator(sidebarWidth-4) + "\n")
	if m.showHelp {
		b.WriteString(dim.Render(helpText))
	} else {
		b.WriteString(viz.KeyHint.Render("drag:orbit  +/-:zoom  ?:help"))
	}
	return viz.GlassPanel.Width(sidebarWidth - 4).Render(b.String())
}

const helpText = `drag   orbit / move slider
+ -    zoom in / out
wheel  zoom
r      reset cloud
h      cycle overlays
space  pause
t      next theme
s      save svg snapshot
q      quit`

// Run starts the fullscreen terminal frontend.
func Run(cfg *config.Config, logger *slog.Logger) error {
	m, err := NewModel(cfg, logger)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}
