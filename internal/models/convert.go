package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"whiteboard-studio/internal/canvas"
)

// ElementFromCanvas builds the row for a canvas element. The element id must
// be a UUID.
func ElementFromCanvas(boardID uuid.UUID, e canvas.Element) (Element, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return Element{}, fmt.Errorf("element id %q: %w", e.ID, err)
	}
	return Element{
		UUID:         id,
		WhiteboardID: boardID,
		Type:         string(e.Kind),
		ShapeType:    string(e.ShapeType),
		X:            e.Position.X,
		Y:            e.Position.Y,
		Width:        e.Size.Width,
		Height:       e.Size.Height,
		ZIndex:       e.ZIndex,
		Rotation:     e.Rotation,
		Content:      e.Content,
		FontSize:     e.FontSize,
		ImageURL:     e.ImageURL,
		Fill:         e.Fill,
		Stroke:       e.Stroke,
		StrokeWidth:  e.StrokeWidth,
	}, nil
}

func (e Element) Canvas() canvas.Element {
	return canvas.Element{
		ID:          e.UUID.String(),
		Kind:        canvas.Kind(e.Type),
		ShapeType:   canvas.ShapeType(e.ShapeType),
		Position:    canvas.Point{X: e.X, Y: e.Y},
		Size:        canvas.Size{Width: e.Width, Height: e.Height},
		ZIndex:      e.ZIndex,
		Rotation:    e.Rotation,
		Content:     e.Content,
		FontSize:    e.FontSize,
		ImageURL:    e.ImageURL,
		Fill:        e.Fill,
		Stroke:      e.Stroke,
		StrokeWidth: e.StrokeWidth,
	}
}

// PatchFromCanvas flattens a canvas patch into the wire form.
func PatchFromCanvas(p canvas.Patch) ElementPatch {
	var out ElementPatch
	if p.Position != nil {
		out.X, out.Y = &p.Position.X, &p.Position.Y
	}
	if p.Size != nil {
		out.Width, out.Height = &p.Size.Width, &p.Size.Height
	}
	if p.ShapeType != nil {
		s := string(*p.ShapeType)
		out.ShapeType = &s
	}
	out.ZIndex = p.ZIndex
	out.Rotation = p.Rotation
	out.Content = p.Content
	out.FontSize = p.FontSize
	out.ImageURL = p.ImageURL
	out.Fill = p.Fill
	out.Stroke = p.Stroke
	out.StrokeWidth = p.StrokeWidth
	return out
}

// Columns returns the column updates for a gorm Updates call. Width and
// height are floored at the minimum element size.
func (p ElementPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.ShapeType != nil {
		cols["shape_type"] = *p.ShapeType
	}
	if p.X != nil {
		cols["x"] = *p.X
	}
	if p.Y != nil {
		cols["y"] = *p.Y
	}
	if p.Width != nil {
		cols["width"] = floor(*p.Width, canvas.MinWidth)
	}
	if p.Height != nil {
		cols["height"] = floor(*p.Height, canvas.MinHeight)
	}
	if p.ZIndex != nil {
		cols["z_index"] = *p.ZIndex
	}
	if p.Rotation != nil {
		cols["rotation"] = *p.Rotation
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.FontSize != nil {
		cols["font_size"] = *p.FontSize
	}
	if p.ImageURL != nil {
		cols["image_url"] = *p.ImageURL
	}
	if p.Fill != nil {
		cols["fill"] = *p.Fill
	}
	if p.Stroke != nil {
		cols["stroke"] = *p.Stroke
	}
	if p.StrokeWidth != nil {
		cols["stroke_width"] = *p.StrokeWidth
	}
	return cols
}

// Apply merges the patch into a row, as the database update would.
func (p ElementPatch) Apply(e *Element) {
	if p.ShapeType != nil {
		e.ShapeType = *p.ShapeType
	}
	if p.X != nil {
		e.X = *p.X
	}
	if p.Y != nil {
		e.Y = *p.Y
	}
	if p.Width != nil {
		e.Width = floor(*p.Width, canvas.MinWidth)
	}
	if p.Height != nil {
		e.Height = floor(*p.Height, canvas.MinHeight)
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
}

func floor(v, min float64) float64 {
	if v < min {
		return min
	}
	return v
}

// FloorSize applies the minimum element size to a row.
func (e *Element) FloorSize() {
	e.Width = floor(e.Width, canvas.MinWidth)
	e.Height = floor(e.Height, canvas.MinHeight)
}

// ConnectionFromCanvas builds the row for a canvas connection.
func ConnectionFromCanvas(boardID uuid.UUID, c canvas.Connection) (Connection, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return Connection{}, fmt.Errorf("connection id %q: %w", c.ID, err)
	}
	row := Connection{
		UUID:         id,
		WhiteboardID: boardID,
		ZIndex:       c.ZIndex,
		Stroke:       c.Stroke,
		StrokeWidth:  c.StrokeWidth,
	}
	var free FreePoints
	if c.Start.Bound() {
		sid, err := uuid.Parse(c.Start.ElementID)
		if err != nil {
			return Connection{}, fmt.Errorf("start element id %q: %w", c.Start.ElementID, err)
		}
		row.StartElementID, row.StartPort = &sid, string(c.Start.Port)
	} else {
		free.Start = &Point{X: c.Start.Point.X, Y: c.Start.Point.Y}
	}
	if c.End.Bound() {
		eid, err := uuid.Parse(c.End.ElementID)
		if err != nil {
			return Connection{}, fmt.Errorf("end element id %q: %w", c.End.ElementID, err)
		}
		row.EndElementID, row.EndPort = &eid, string(c.End.Port)
	} else {
		free.End = &Point{X: c.End.Point.X, Y: c.End.Point.Y}
	}
	if free.Start != nil || free.End != nil {
		b, err := json.Marshal(free)
		if err != nil {
			return Connection{}, err
		}
		row.Points = datatypes.JSON(b)
	}
	return row, nil
}

func ConnectionPatchFromCanvas(p canvas.ConnectionPatch) ConnectionPatch {
	return ConnectionPatch{Stroke: p.Stroke, StrokeWidth: p.StrokeWidth}
}

// Columns returns the column updates for a gorm Updates call. The stroke
// width is floored like the engine floors it.
func (p ConnectionPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Stroke != nil {
		cols["stroke"] = *p.Stroke
	}
	if p.StrokeWidth != nil {
		cols["stroke_width"] = floor(*p.StrokeWidth, canvas.MinStrokeWidth)
	}
	return cols
}

// Apply merges the patch into a row, as the database update would.
func (p ConnectionPatch) Apply(c *Connection) {
	if p.Stroke != nil {
		c.Stroke = *p.Stroke
	}
	if p.StrokeWidth != nil {
		c.StrokeWidth = floor(*p.StrokeWidth, canvas.MinStrokeWidth)
	}
}

func (c Connection) Canvas() (canvas.Connection, error) {
	out := canvas.Connection{
		ID:          c.UUID.String(),
		ZIndex:      c.ZIndex,
		Stroke:      c.Stroke,
		StrokeWidth: c.StrokeWidth,
	}
	var free FreePoints
	if len(c.Points) > 0 {
		if err := json.Unmarshal(c.Points, &free); err != nil {
			return canvas.Connection{}, fmt.Errorf("connection %s points: %w", c.UUID, err)
		}
	}
	out.Start = endpoint(c.StartElementID, c.StartPort, free.Start)
	out.End = endpoint(c.EndElementID, c.EndPort, free.End)
	return out, nil
}

func endpoint(id *uuid.UUID, port string, pt *Point) canvas.Endpoint {
	if id != nil {
		return canvas.Endpoint{ElementID: id.String(), Port: canvas.Port(port)}
	}
	if pt != nil {
		return canvas.Endpoint{Point: canvas.Point{X: pt.X, Y: pt.Y}}
	}
	return canvas.Endpoint{}
}
