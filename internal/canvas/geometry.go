package canvas

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Point is a coordinate pair. Whether it is in board or screen space depends on
// where it came from; every exported function says which one it expects.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned box: top-left corner plus size.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Union returns the smallest rect covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// distToSegment returns the distance from p to the segment a-b.
func distToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = clamp(t, 0, 1)
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EstimateTextSize approximates the box a block of text needs. Glyph widths are
// not measured: an average character is taken to be 0.6em wide and a line 1.2em
// tall. The result is floored at the minimum element size.
func EstimateTextSize(content string, fontSize float64) Size {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	if content == "" {
		content = "Type something..."
	}
	lines := strings.Split(content, "\n")
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	w := math.Max(40, float64(longest)*fontSize*0.6+12)
	h := math.Max(fontSize*1.5, float64(len(lines))*fontSize*1.2+8)
	return floorSize(Size{Width: w, Height: h})
}

func floorSize(s Size) Size {
	if s.Width < MinWidth {
		s.Width = MinWidth
	}
	if s.Height < MinHeight {
		s.Height = MinHeight
	}
	return s
}
