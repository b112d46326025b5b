package canvas

// Overlay is the transient interaction state drawn on top of the board.
type Overlay struct {
	Selected string
	Editing  string
	EditText string
	Pending  *Endpoint
	Cursor   Point
}

// Shape is one element as it should be drawn. Element keeps the board-space
// record; every other field is in screen space.
type Shape struct {
	Element     Element
	Box         Rect
	Text        string
	FontSize    float64
	StrokeWidth float64
	Selected    bool
	Editing     bool
}

// Line is a connection, or the rubber band of an arrow being drawn, in screen
// coordinates.
type Line struct {
	ID          string
	From, To    Point
	Stroke      string
	StrokeWidth float64
	Selected    bool
}

// Scene is a display list: everything to draw, back to front, already mapped
// to the screen.
type Scene struct {
	Viewport Viewport
	Shapes   []Shape
	Lines    []Line
	// Order interleaves Shapes and Lines by paint order; see Item.
	Order   []Item
	Handle  *Rect
	Preview *Line
}

// Item points into Scene.Shapes or Scene.Lines.
type Item struct {
	Line  bool
	Index int
}

// Render builds the display list for b seen through v. It does not modify b.
// Bound connection endpoints are resolved on every call; a connection whose
// element no longer exists is left out.
func Render(b *Board, v Viewport, o Overlay) Scene {
	z := v.zoom()
	s := Scene{Viewport: v}

	els := b.Elements()
	conns := b.Connections()
	i, j := 0, 0
	for i < len(els) || j < len(conns) {
		if j >= len(conns) || (i < len(els) && els[i].ZIndex <= conns[j].ZIndex) {
			s.addShape(els[i], v, z, o)
			i++
			continue
		}
		c := conns[j]
		j++
		start, end, ok := b.ResolveEndpoints(c)
		if !ok {
			continue
		}
		s.Order = append(s.Order, Item{Line: true, Index: len(s.Lines)})
		s.Lines = append(s.Lines, Line{
			ID:          c.ID,
			From:        v.BoardToScreen(start),
			To:          v.BoardToScreen(end),
			Stroke:      c.Stroke,
			StrokeWidth: c.strokeWidth() * z,
			Selected:    c.ID == o.Selected,
		})
	}

	if el, ok := b.Get(o.Selected); ok && o.Editing == "" {
		h := handleRect(el, v)
		s.Handle = &h
	}
	if o.Pending != nil {
		if start, ok := b.resolve(*o.Pending); ok {
			s.Preview = &Line{
				From:        v.BoardToScreen(start),
				To:          v.BoardToScreen(o.Cursor),
				Stroke:      DefaultStroke,
				StrokeWidth: DefaultStrokeWidth * z,
			}
		}
	}
	return s
}

func (s *Scene) addShape(el Element, v Viewport, z float64, o Overlay) {
	tl := v.BoardToScreen(el.Position)
	sh := Shape{
		Element:     el,
		Box:         Rect{X: tl.X, Y: tl.Y, W: el.Size.Width * z, H: el.Size.Height * z},
		Text:        el.Content,
		FontSize:    el.FontSize * z,
		StrokeWidth: el.StrokeWidth * z,
		Selected:    el.ID == o.Selected,
	}
	if el.ID == o.Editing {
		sh.Editing = true
		sh.Text = o.EditText
	}
	s.Order = append(s.Order, Item{Index: len(s.Shapes)})
	s.Shapes = append(s.Shapes, sh)
}
