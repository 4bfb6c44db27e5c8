// Package slider maps a cursor position onto a bounded scalar along a
// straight screen-space track.
package slider

import (
	"fmt"
	"image/color"
	"math"

	"github.com/san-kum/lorenzcloud/internal/dynamo"
)

// Point is a screen-space position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(o Point) Point        { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Add(o Point) Point        { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Scale(k float64) Point    { return Point{p.X * k, p.Y * k} }
func (p Point) Dot(o Point) float64      { return p.X*o.X + p.Y*o.Y }
func (p Point) Distance(o Point) float64 { return math.Hypot(p.X-o.X, p.Y-o.Y) }

// Default palette.
var (
	EmptyColor = color.RGBA{127, 127, 127, 255}
	FullColor  = color.RGBA{191, 191, 191, 255}
	ThumbColor = color.RGBA{255, 255, 255, 255}
)

// Slider is a track from P1 (Min) to P2 (Max) with a round thumb.
type Slider struct {
	Name        string
	P1, P2      Point
	Min, Max    float64
	Value       float64
	TrackRadius float64
	ThumbRadius float64

	EmptyFill, FullFill, ThumbFill color.RGBA
}

// New validates the geometry and clamps value into range.
func New(name string, p1, p2 Point, min, max, value, trackRadius, thumbRadius float64) (*Slider, error) {
	if err := validate(p1, p2, min, max); err != nil {
		return nil, fmt.Errorf("slider %q: %w", name, err)
	}
	s := &Slider{
		Name:        name,
		P1:          p1,
		P2:          p2,
		Min:         min,
		Max:         max,
		TrackRadius: trackRadius,
		ThumbRadius: thumbRadius,
		EmptyFill:   EmptyColor,
		FullFill:    FullColor,
		ThumbFill:   ThumbColor,
	}
	s.Value = min
	s.SetValue(value)
	return s, nil
}

func validate(p1, p2 Point, min, max float64) error {
	if p1 == p2 {
		return fmt.Errorf("endpoints coincide at %v: %w", p1, dynamo.ErrDegenerateSlider)
	}
	if !(min < max) {
		return fmt.Errorf("empty range [%g, %g]: %w", min, max, dynamo.ErrDegenerateSlider)
	}
	return nil
}

// fraction is the signed position of cursor along p1→p2, 0 at p1 and 1 at p2.
func fraction(p1, p2, cursor Point) float64 {
	dir := p2.Sub(p1)
	return cursor.Sub(p1).Dot(dir) / dir.Dot(dir)
}

func lerp(min, max, t float64) float64 { return min*(1-t) + max*t }

// ValueAt projects cursor onto the track and returns the clamped value
// under it. The endpoints map to exactly min and max.
func ValueAt(p1, p2 Point, min, max float64, cursor Point) (float64, error) {
	if err := validate(p1, p2, min, max); err != nil {
		return 0, err
	}
	t := math.Min(math.Max(fraction(p1, p2, cursor), 0), 1)
	return lerp(min, max, t), nil
}

// ThumbAt is the thumb center for value.
func ThumbAt(p1, p2 Point, min, max, value float64) (Point, error) {
	if err := validate(p1, p2, min, max); err != nil {
		return Point{}, err
	}
	v := (value - min) / (max - min)
	return p2.Sub(p1).Scale(v).Add(p1), nil
}

// IsOverThumb reports whether cursor lies within thumbRadius of the thumb.
func IsOverThumb(p1, p2 Point, min, max, value, thumbRadius float64, cursor Point) (bool, error) {
	thumb, err := ThumbAt(p1, p2, min, max, value)
	if err != nil {
		return false, err
	}
	d := cursor.Sub(thumb)
	return d.Dot(d) <= thumbRadius*thumbRadius, nil
}

// The methods below rely on the invariants established by New.

func (s *Slider) ValueAt(cursor Point) float64 {
	t := math.Min(math.Max(fraction(s.P1, s.P2, cursor), 0), 1)
	return lerp(s.Min, s.Max, t)
}

// Drag moves the value to the position under cursor.
func (s *Slider) Drag(cursor Point) float64 {
	s.Value = s.ValueAt(cursor)
	return s.Value
}

// SetValue clamps v into [Min, Max]. NaN is ignored.
func (s *Slider) SetValue(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.Value = math.Min(math.Max(v, s.Min), s.Max)
}

func (s *Slider) Fraction() float64 { return (s.Value - s.Min) / (s.Max - s.Min) }

func (s *Slider) Thumb() Point {
	return s.P2.Sub(s.P1).Scale(s.Fraction()).Add(s.P1)
}

func (s *Slider) IsOverThumb(cursor Point) bool {
	d := cursor.Sub(s.Thumb())
	return d.Dot(d) <= s.ThumbRadius*s.ThumbRadius
}

// Quad is a filled quadrilateral in drawing order.
type Quad [4]Point

// Track returns the filled part (P1 to thumb) and the empty part (thumb to
// P2) of the track as quads TrackRadius wide on each side.
func (s *Slider) Track() (full, empty Quad) {
	d := s.P1.Distance(s.P2)
	c := Point{
		s.TrackRadius * (s.P1.Y - s.P2.Y) / d,
		s.TrackRadius * (s.P2.X - s.P1.X) / d,
	}
	th := s.Thumb()
	full = Quad{s.P1.Add(c), s.P1.Sub(c), th.Sub(c), th.Add(c)}
	empty = Quad{th.Add(c), th.Sub(c), s.P2.Sub(c), s.P2.Add(c)}
	return full, empty
}
