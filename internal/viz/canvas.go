package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/lorenzcloud/internal/slider"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const (
	brailleBlank = 0x2800

	// DefaultThreshold is the intensity below which a faded dot is no
	// longer drawn.
	DefaultThreshold = 0.2
)

// Canvas is a Width x Height grid of Braille cells addressed in dots: the
// surface is Width*2 dots across and Height*4 dots down. Each dot keeps an
// intensity in [0, 1] so that old frames can fade instead of vanishing.
type Canvas struct {
	Width, Height int
	Threshold     float64
	dots          []float64
}

func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Canvas{
		Width:     w,
		Height:    h,
		Threshold: DefaultThreshold,
		dots:      make([]float64, w*2*h*4),
	}
}

// Dots returns the surface size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

// Viewport is the projection viewport that maps 1:1 onto dots.
func (c *Canvas) Viewport() Viewport {
	w, h := c.Dots()
	return Viewport{Width: float64(w), Height: float64(h)}
}

func (c *Canvas) index(x, y int) int {
	w, h := c.Dots()
	if x < 0 || y < 0 || x >= w || y >= h {
		return -1
	}
	return y*w + x
}

// Set lights the dot at (x, y) at full intensity.
func (c *Canvas) Set(x, y int) {
	if i := c.index(x, y); i >= 0 {
		c.dots[i] = 1
	}
}

// Unset clears a dot.
func (c *Canvas) Unset(x, y int) {
	if i := c.index(x, y); i >= 0 {
		c.dots[i] = 0
	}
}

// At returns the intensity of a dot; 0 outside the surface.
func (c *Canvas) At(x, y int) float64 {
	if i := c.index(x, y); i >= 0 {
		return c.dots[i]
	}
	return 0
}

func (c *Canvas) Clear() {
	for i := range c.dots {
		c.dots[i] = 0
	}
}

// Fade scales every intensity by keep, clamped to [0, 1].
func (c *Canvas) Fade(keep float64) {
	keep = math.Min(math.Max(keep, 0), 1)
	for i := range c.dots {
		c.dots[i] *= keep
	}
}

// CopyFrom overwrites c with the dots of src. Both must be the same size.
func (c *Canvas) CopyFrom(src *Canvas) {
	copy(c.dots, src.dots)
}

// TrailKeep is the share of a dot's intensity that survives one frame at
// trail alpha (0..255 scale): a black layer of that alpha is painted over
// the previous frame.
func TrailKeep(alpha float64) float64 {
	return 1 - math.Min(math.Max(alpha, 0), 255)/255
}

// Plot lights the dot containing the point (x, y).
func (c *Canvas) Plot(x, y float64) {
	c.Set(int(math.Floor(x)), int(math.Floor(y)))
}

// FillCircle lights every dot whose center lies within r of (cx, cy).
func (c *Canvas) FillCircle(cx, cy, r float64) {
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				c.Set(x, y)
			}
		}
	}
}

// FillQuad lights the dots whose centers lie inside the convex quad q.
func (c *Canvas) FillQuad(q slider.Quad) {
	minX, maxX := q[0].X, q[0].X
	minY, maxY := q[0].Y, q[0].Y
	for _, p := range q[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		for x := int(math.Floor(minX)); x <= int(math.Ceil(maxX)); x++ {
			if insideConvex(q, slider.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}) {
				c.Set(x, y)
			}
		}
	}
}

func insideConvex(q slider.Quad, p slider.Point) bool {
	var pos, neg bool
	for i := range q {
		a, b := q[i], q[(i+1)%len(q)]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross > 0 {
			pos = true
		} else if cross < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Cell returns the glyph of a cell and the brightest intensity among its
// visible dots.
func (c *Canvas) Cell(col, row int) (rune, float64) {
	r := rune(brailleBlank)
	peak := 0.0
	for sy := 0; sy < 4; sy++ {
		for sx := 0; sx < 2; sx++ {
			v := c.At(col*2+sx, row*4+sy)
			if v >= c.Threshold {
				r |= rune(pixelMap[sy][sx])
				peak = math.Max(peak, v)
			}
		}
	}
	return r, peak
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			r, _ := c.Cell(col, row)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Render is String with each cell colored by its intensity: fresh dots in
// the theme's point color, fading ones in its trail color. Runs of equally
// shaded cells share one style.
func (c *Canvas) Render(t Theme) string {
	fresh := lipgloss.NewStyle().Foreground(t.Point)
	trail := lipgloss.NewStyle().Foreground(t.Trail)

	var b strings.Builder
	var run strings.Builder
	for row := 0; row < c.Height; row++ {
		shade := -1
		flush := func() {
			switch shade {
			case 1:
				b.WriteString(fresh.Render(run.String()))
			case 0:
				b.WriteString(trail.Render(run.String()))
			default:
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := 0; col < c.Width; col++ {
			r, v := c.Cell(col, row)
			s := -1
			switch {
			case v >= 0.75:
				s = 1
			case v > 0:
				s = 0
			}
			if s != shade {
				flush()
				shade = s
			}
			run.WriteRune(r)
		}
		flush()
		if row < c.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
