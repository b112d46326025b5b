package canvas

import (
	"fmt"
	"math"
)

// Port names one of the eight anchor positions on an element's bounding box.
type Port string

const (
	PortTop         Port = "top"
	PortTopRight    Port = "top-right"
	PortRight       Port = "right"
	PortBottomRight Port = "bottom-right"
	PortBottom      Port = "bottom"
	PortBottomLeft  Port = "bottom-left"
	PortLeft        Port = "left"
	PortTopLeft     Port = "top-left"
)

// Ports lists every port in clockwise order starting at the top.
var Ports = []Port{
	PortTop, PortTopRight, PortRight, PortBottomRight,
	PortBottom, PortBottomLeft, PortLeft, PortTopLeft,
}

// CardinalPorts are the ports used when the layout helpers pick anchors.
var CardinalPorts = []Port{PortTop, PortRight, PortBottom, PortLeft}

// Offset maps the port to a position relative to the top-left corner of a box
// of the given size.
func (p Port) Offset(s Size) (Point, error) {
	w, h := s.Width, s.Height
	switch p {
	case PortTop:
		return Point{X: w / 2, Y: 0}, nil
	case PortTopRight:
		return Point{X: w, Y: 0}, nil
	case PortRight:
		return Point{X: w, Y: h / 2}, nil
	case PortBottomRight:
		return Point{X: w, Y: h}, nil
	case PortBottom:
		return Point{X: w / 2, Y: h}, nil
	case PortBottomLeft:
		return Point{X: 0, Y: h}, nil
	case PortLeft:
		return Point{X: 0, Y: h / 2}, nil
	case PortTopLeft:
		return Point{X: 0, Y: 0}, nil
	}
	return Point{}, fmt.Errorf("unknown connection point %q", p)
}

// PortPosition returns the board coordinate of port p on element e.
func PortPosition(e Element, p Port) (Point, error) {
	off, err := p.Offset(e.Size)
	if err != nil {
		return Point{}, err
	}
	return e.Position.Add(off), nil
}

// NearestPort returns the port of e closest to the board point pt.
func NearestPort(e Element, pt Point) Port {
	best := PortTop
	bestDist := -1.0
	for _, p := range Ports {
		pos, _ := PortPosition(e, p)
		if d := pos.Dist(pt); bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Endpoint is one end of a connection. When ElementID is set the end is bound
// to that element's port and Point is ignored; otherwise Point is the free
// board coordinate.
type Endpoint struct {
	ElementID string `json:"element_id,omitempty"`
	Port      Port   `json:"port,omitempty"`
	Point     Point  `json:"point"`
}

func (e Endpoint) Bound() bool { return e.ElementID != "" }

// Connection is an arrow between two endpoints. Bound endpoints carry element
// references only; their coordinates are derived every time they are needed.
type Connection struct {
	ID          string   `json:"id"`
	Start       Endpoint `json:"start"`
	End         Endpoint `json:"end"`
	ZIndex      int      `json:"z_index"`
	Stroke      string   `json:"stroke,omitempty"`
	StrokeWidth float64  `json:"stroke_width,omitempty"`
}

// References reports whether either end is bound to elementID.
func (c Connection) References(elementID string) bool {
	return c.Start.ElementID == elementID || c.End.ElementID == elementID
}

func (c Connection) strokeWidth() float64 {
	if c.StrokeWidth <= 0 {
		return DefaultStrokeWidth
	}
	return c.StrokeWidth
}

// ConnectionPatch restyles a connection. Nil fields are left untouched.
type ConnectionPatch struct {
	Stroke      *string
	StrokeWidth *float64
}

func (p ConnectionPatch) Apply(c Connection) Connection {
	if p.Stroke != nil {
		c.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		c.StrokeWidth = math.Max(*p.StrokeWidth, MinStrokeWidth)
	}
	return c
}

func (p ConnectionPatch) Empty() bool {
	return p.Stroke == nil && p.StrokeWidth == nil
}

// DiffConnection returns the patch that turns before into after.
func DiffConnection(before, after Connection) ConnectionPatch {
	var p ConnectionPatch
	if before.Stroke != after.Stroke {
		v := after.Stroke
		p.Stroke = &v
	}
	if before.StrokeWidth != after.StrokeWidth {
		v := after.StrokeWidth
		p.StrokeWidth = &v
	}
	return p
}
