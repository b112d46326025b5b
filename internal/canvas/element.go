package canvas

import "fmt"

// Kind discriminates the element variants. The set is closed: every switch over
// Kind in this package handles all of them and rejects anything else.
type Kind string

const (
	KindText    Kind = "text"
	KindSticky  Kind = "sticky"
	KindShape   Kind = "shape"
	KindImage   Kind = "image"
	KindSection Kind = "section"
)

// ShapeType selects how a KindShape element is drawn. Hit-testing ignores it:
// ellipses and diamonds are hit by their bounding box.
type ShapeType string

const (
	ShapeRect    ShapeType = "rect"
	ShapeEllipse ShapeType = "ellipse"
	ShapeDiamond ShapeType = "diamond"
)

const (
	MinWidth  = 50.0
	MinHeight = 50.0

	DefaultFontSize    = 16.0
	DefaultStrokeWidth = 2.0
	MinStrokeWidth     = 0.5
	DefaultStroke      = "#1e293b"
)

// Palette holds the fill colours offered by the toolbar; stickies use 2..5.
var Palette = []string{
	"#ffffff",
	"#f5f5f5",
	"#fff9b1",
	"#d5f692",
	"#c6ebfb",
	"#fdf2d0",
	"#ffaca1",
	"#e2e8f0",
	"#1e293b",
}

// Element is one drawable item on the board. Position and Size are in board
// coordinates.
type Element struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	ShapeType   ShapeType `json:"shape_type,omitempty"`
	Position    Point     `json:"position"`
	Size        Size      `json:"size"`
	ZIndex      int       `json:"z_index"`
	Rotation    float64   `json:"rotation,omitempty"`
	Content     string    `json:"content,omitempty"`
	FontSize    float64   `json:"font_size,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"stroke_width,omitempty"`
}

func (e Element) Bounds() Rect {
	return Rect{X: e.Position.X, Y: e.Position.Y, W: e.Size.Width, H: e.Size.Height}
}

// Editable reports whether the element carries user-edited text.
func (e Element) Editable() bool {
	switch e.Kind {
	case KindText, KindSticky, KindSection:
		return true
	case KindShape, KindImage:
		return false
	}
	return false
}

// Validate checks the discriminant and the fields each variant needs.
func (e Element) Validate() error {
	switch e.Kind {
	case KindText, KindSticky, KindSection:
	case KindShape:
		switch e.ShapeType {
		case ShapeRect, ShapeEllipse, ShapeDiamond:
		default:
			return fmt.Errorf("unsupported shape type: %q", e.ShapeType)
		}
	case KindImage:
		if e.ImageURL == "" {
			return fmt.Errorf("image element %s has no url", e.ID)
		}
	default:
		return fmt.Errorf("unsupported element kind: %q", e.Kind)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Position    *Point
	Size        *Size
	ZIndex      *int
	Rotation    *float64
	Content     *string
	FontSize    *float64
	ImageURL    *string
	Fill        *string
	Stroke      *string
	StrokeWidth *float64
	ShapeType   *ShapeType
}

// apply shallow-merges p into e, flooring any size it sets.
func (p Patch) apply(e *Element) {
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Size != nil {
		e.Size = floorSize(*p.Size)
	}
	if p.ZIndex != nil {
		e.ZIndex = *p.ZIndex
	}
	if p.Rotation != nil {
		e.Rotation = *p.Rotation
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.FontSize != nil {
		e.FontSize = *p.FontSize
	}
	if p.ImageURL != nil {
		e.ImageURL = *p.ImageURL
	}
	if p.Fill != nil {
		e.Fill = *p.Fill
	}
	if p.Stroke != nil {
		e.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		e.StrokeWidth = *p.StrokeWidth
	}
	if p.ShapeType != nil {
		e.ShapeType = *p.ShapeType
	}
}

// Apply returns a copy of e with p merged in.
func (p Patch) Apply(e Element) Element {
	p.apply(&e)
	return e
}

// Diff returns the patch that turns before into after. Only the fields that
// differ are set.
func Diff(before, after Element) Patch {
	var p Patch
	if before.Position != after.Position {
		v := after.Position
		p.Position = &v
	}
	if before.Size != after.Size {
		v := after.Size
		p.Size = &v
	}
	if before.ZIndex != after.ZIndex {
		v := after.ZIndex
		p.ZIndex = &v
	}
	if before.Rotation != after.Rotation {
		v := after.Rotation
		p.Rotation = &v
	}
	if before.Content != after.Content {
		v := after.Content
		p.Content = &v
	}
	if before.FontSize != after.FontSize {
		v := after.FontSize
		p.FontSize = &v
	}
	if before.ImageURL != after.ImageURL {
		v := after.ImageURL
		p.ImageURL = &v
	}
	if before.Fill != after.Fill {
		v := after.Fill
		p.Fill = &v
	}
	if before.Stroke != after.Stroke {
		v := after.Stroke
		p.Stroke = &v
	}
	if before.StrokeWidth != after.StrokeWidth {
		v := after.StrokeWidth
		p.StrokeWidth = &v
	}
	if before.ShapeType != after.ShapeType {
		v := after.ShapeType
		p.ShapeType = &v
	}
	return p
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

// defaults returns the size and colours a freshly created element of the given
// variant starts with.
func defaults(kind Kind, shape ShapeType) (Element, error) {
	e := Element{Kind: kind, StrokeWidth: DefaultStrokeWidth}
	switch kind {
	case KindShape:
		if shape == "" {
			shape = ShapeRect
		}
		e.ShapeType = shape
		e.Size = Size{Width: 120, Height: 80}
		e.Fill = "#ffffff"
		e.Stroke = DefaultStroke
	case KindSticky:
		e.Size = Size{Width: 200, Height: 150}
		e.Fill = Palette[2]
		e.Stroke = "transparent"
		e.FontSize = DefaultFontSize
	case KindText:
		e.FontSize = 24
		e.Size = EstimateTextSize("", e.FontSize)
		e.Fill = "transparent"
		e.Stroke = DefaultStroke
	case KindImage:
		e.Size = Size{Width: 200, Height: 150}
		e.Stroke = "transparent"
	case KindSection:
		e.Size = Size{Width: 400, Height: 300}
		e.Fill = "rgba(0,0,0,0.05)"
		e.Stroke = "#94a3b8"
		e.Content = "Section"
		e.FontSize = DefaultFontSize
	default:
		return Element{}, fmt.Errorf("unsupported element kind: %q", kind)
	}
	return e, nil
}
