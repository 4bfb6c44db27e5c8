package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
	"github.com/san-kum/lorenzcloud/internal/sim"
	"github.com/san-kum/lorenzcloud/internal/slider"
	"github.com/san-kum/lorenzcloud/internal/viz"
)

func svgHeader(sb *strings.Builder, width, height float64, background string) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

func writePoints(sb *strings.Builder, pts []viz.Projected, opacity float64) {
	if opacity < 1 {
		fmt.Fprintf(sb, "<g fill-opacity=\"%.3f\">\n", opacity)
	} else {
		sb.WriteString("<g>\n")
	}
	for _, p := range pts {
		if p.Pixel() {
			fmt.Fprintf(sb, "<rect x=\"%.0f\" y=\"%.0f\" width=\"1\" height=\"1\"/>\n", math.Floor(p.X), math.Floor(p.Y))
		} else {
			fmt.Fprintf(sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", p.X, p.Y, p.Size)
		}
	}
	sb.WriteString("</g>\n")
}

func polygon(q slider.Quad) string {
	parts := make([]string, len(q))
	for i, p := range q {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// FrameToSVG draws a session frame: the cloud, older frames from trail
// (oldest first) faded by the frame's alpha, and the overlays its display
// mode asks for.
func FrameToSVG(f *sim.Frame, theme viz.Theme, trail ...[]viz.Projected) string {
	if f == nil {
		return ""
	}
	var sb strings.Builder
	svgHeader(&sb, f.Viewport.Width, f.Viewport.Height, string(theme.Background))

	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Point)
	keep := viz.TrailKeep(f.Alpha)
	for i, pts := range trail {
		age := len(trail) - i
		writePoints(&sb, pts, math.Pow(keep, float64(age)))
	}
	writePoints(&sb, f.Points, 1)
	sb.WriteString("</g>\n")

	for _, s := range f.Sliders {
		fmt.Fprintf(&sb, "<polygon fill=\"%s\" points=\"%s\"/>\n", theme.Full, polygon(s.Full))
		fmt.Fprintf(&sb, "<polygon fill=\"%s\" points=\"%s\"/>\n", theme.Empty, polygon(s.Empty))
		fmt.Fprintf(&sb, "<circle fill=\"%s\" cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
			theme.Thumb, s.Thumb.X, s.Thumb.Y, s.ThumbRadius)
	}
	if len(f.Labels) > 0 {
		fmt.Fprintf(&sb, "<g fill=\"%s\" font-family=\"monospace\" font-size=\"24\" text-anchor=\"middle\">\n", theme.Text)
		for _, l := range f.Labels {
			fmt.Fprintf(&sb, "<text x=\"%.1f\" y=\"%.1f\">%s</text>\n", l.Anchor.X, l.Anchor.Y-50, l.Text)
		}
		sb.WriteString("</g>\n")
	}
	if f.Mode != sim.Hidden {
		fmt.Fprintf(&sb, "<text x=\"4\" y=\"28\" fill=\"%s\" font-family=\"monospace\" font-size=\"24\">FPS: %d</text>\n",
			theme.Text, f.FPS)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG, one circle per visible dot
// with opacity following its intensity.
func CanvasToSVG(canvas *viz.Canvas, scale float64, theme viz.Theme) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	var sb strings.Builder
	svgHeader(&sb, float64(w)*scale, float64(h)*scale, string(theme.Background))
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Point)

	dotRadius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := canvas.At(x, y)
			if v < canvas.Threshold || v == 0 {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			if v < 1 {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill-opacity=\"%.2f\"/>\n", cx, cy, dotRadius, v)
			} else {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Axis picks a coordinate of a point.
type Axis func(dynamo.Point3) float64

var Axes = map[byte]Axis{
	'x': func(p dynamo.Point3) float64 { return p.X },
	'y': func(p dynamo.Point3) float64 { return p.Y },
	'z': func(p dynamo.Point3) float64 { return p.Z },
}

// ParsePlane turns a two-letter plane such as "xz" into its axes.
func ParsePlane(plane string) (Axis, Axis, error) {
	if len(plane) != 2 {
		return nil, nil, fmt.Errorf("plane %q: want two of x, y, z", plane)
	}
	h, ok1 := Axes[plane[0]]
	v, ok2 := Axes[plane[1]]
	if !ok1 || !ok2 || plane[0] == plane[1] {
		return nil, nil, fmt.Errorf("plane %q: want two of x, y, z", plane)
	}
	return h, v, nil
}

// planeFit maps points onto a width x height image of the plane of h and
// v, keeping a 10% margin on every side.
func planeFit(points []dynamo.Point3, h, v Axis, width, height int) func(dynamo.Point3) (float64, float64) {
	minX, maxX := h(points[0]), h(points[0])
	minY, maxY := v(points[0]), v(points[0])
	for _, p := range points {
		minX, maxX = math.Min(minX, h(p)), math.Max(maxX, h(p))
		minY, maxY = math.Min(minY, v(p)), math.Max(maxY, v(p))
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	return func(p dynamo.Point3) (float64, float64) {
		x := (h(p) - minX) / rangeX * float64(width)
		y := float64(height) - (v(p)-minY)/rangeY*float64(height)
		return x, y
	}
}

// TrajectoryToSVG draws the path of one point projected onto the plane of
// axes h and v.
func TrajectoryToSVG(points []dynamo.Point3, h, v Axis, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}
	fit := planeFit(points, h, v, width, height)

	var sb strings.Builder
	svgHeader(&sb, float64(width), float64(height), "#0a0a0a")
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)

	for i, p := range points {
		x, y := fit(p)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// CloudToSVG draws every point as a dot on the plane of axes h and v.
func CloudToSVG(points []dynamo.Point3, h, v Axis, width, height int, fill string) string {
	if len(points) == 0 {
		return ""
	}
	fit := planeFit(points, h, v, width, height)

	var sb strings.Builder
	svgHeader(&sb, float64(width), float64(height), "#0a0a0a")
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
	for _, p := range points {
		x, y := fit(p)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
