package canvas

const (
	ZoomMin = 0.1
	ZoomMax = 3.0

	// wheelStep is the zoom factor applied per wheel notch.
	wheelStep = 1.1
)

// Viewport maps board coordinates to screen coordinates:
//
//	screen = board*Zoom + Pan
//
// Zoom is clamped to [ZoomMin, ZoomMax] on every mutation. Pan is unbounded.
type Viewport struct {
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
	Zoom float64 `json:"zoom"`
}

func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ScreenToBoard converts a pointer position to board coordinates.
func (v Viewport) ScreenToBoard(sx, sy float64) Point {
	z := v.zoom()
	return Point{X: (sx - v.PanX) / z, Y: (sy - v.PanY) / z}
}

// BoardToScreen converts a board coordinate to a pointer position.
func (v Viewport) BoardToScreen(p Point) Point {
	z := v.zoom()
	return Point{X: p.X*z + v.PanX, Y: p.Y*z + v.PanY}
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomAt changes the zoom while keeping the board point under (sx, sy) fixed on
// screen.
func (v *Viewport) ZoomAt(sx, sy, zoom float64) {
	anchor := v.ScreenToBoard(sx, sy)
	v.Zoom = clamp(zoom, ZoomMin, ZoomMax)
	v.PanX = sx - anchor.X*v.Zoom
	v.PanY = sy - anchor.Y*v.Zoom
}

// SetZoom zooms toward the viewport origin, as a slider without a cursor does.
func (v *Viewport) SetZoom(zoom float64) {
	v.ZoomAt(0, 0, zoom)
}

// Wheel zooms one notch in (negative delta) or out (positive delta) around the
// cursor.
func (v *Viewport) Wheel(sx, sy, delta float64) {
	switch {
	case delta < 0:
		v.ZoomAt(sx, sy, v.zoom()*wheelStep)
	case delta > 0:
		v.ZoomAt(sx, sy, v.zoom()/wheelStep)
	}
}

// Fit centers r in a w×h screen area, scaling it to fit with the given cap.
func (v *Viewport) Fit(r Rect, w, h, maxZoom float64) {
	if r.W <= 0 || r.H <= 0 || w <= 0 || h <= 0 {
		return
	}
	z := w / r.W
	if zy := h / r.H; zy < z {
		z = zy
	}
	if maxZoom > 0 && z > maxZoom {
		z = maxZoom
	}
	v.Zoom = clamp(z, ZoomMin, ZoomMax)
	c := r.Center()
	v.PanX = w/2 - c.X*v.Zoom
	v.PanY = h/2 - c.Y*v.Zoom
}

// zoom guards against the zero value, which would otherwise divide by zero.
func (v Viewport) zoom() float64 {
	if v.Zoom == 0 {
		return 1
	}
	return clamp(v.Zoom, ZoomMin, ZoomMax)
}
