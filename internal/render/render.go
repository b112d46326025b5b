// Package render rasterizes canvas scenes.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"path"
	"sync"

	"whiteboard-studio/internal/canvas"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	selectionColor = "#3b82f6"
	sectionFill    = "#f8fafc"
	arrowSize      = 10.0
	textPadding    = 8.0
)

var (
	fontOnce sync.Once
	ttf      *truetype.Font
	fontErr  error

	faceMu sync.Mutex
	faces  = map[int]font.Face{}
)

// face returns the regular Go font at the given pixel size, rounded to a
// whole size so faces can be shared.
func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		ttf, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}
	px := int(math.Round(size))
	if px < 1 {
		px = 1
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[px]; ok {
		return f, nil
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	faces[px] = f
	return f, nil
}

// Image draws the scene on a white w×h canvas.
func Image(s canvas.Scene, w, h int) (image.Image, error) {
	dc, err := draw(s, w, h)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// PNG draws the scene and writes it to out as a PNG.
func PNG(out io.Writer, s canvas.Scene, w, h int) error {
	dc, err := draw(s, w, h)
	if err != nil {
		return err
	}
	return dc.EncodePNG(out)
}

func draw(s canvas.Scene, w, h int) (*gg.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	for _, it := range s.Order {
		if it.Line {
			drawLine(dc, s.Lines[it.Index], false)
			continue
		}
		if err := drawShape(dc, s.Shapes[it.Index]); err != nil {
			return nil, err
		}
	}
	if s.Preview != nil {
		drawLine(dc, *s.Preview, true)
	}
	if s.Handle != nil {
		r := *s.Handle
		dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		dc.SetColor(color.White)
		dc.FillPreserve()
		dc.SetHexColor(selectionColor)
		dc.SetLineWidth(1.5)
		dc.Stroke()
	}
	return dc, nil
}

// setColor sets the first parseable of value and fallback. It reports false
// when the result is fully transparent, so callers can skip the paint.
func setColor(dc *gg.Context, value, fallback string) bool {
	c, ok := parseColor(value)
	if !ok {
		c, _ = parseColor(fallback)
	}
	dc.SetColor(c)
	return c.A > 0
}

func drawShape(dc *gg.Context, sh canvas.Shape) error {
	el, box := sh.Element, sh.Box
	dc.Push()
	defer dc.Pop()
	if el.Rotation != 0 {
		c := box.Center()
		dc.RotateAbout(gg.Radians(el.Rotation), c.X, c.Y)
	}

	stroke := sh.StrokeWidth
	if stroke <= 0 {
		stroke = 1
	}
	align := gg.AlignCenter

	switch el.Kind {
	case canvas.KindShape:
		switch el.ShapeType {
		case canvas.ShapeEllipse:
			dc.DrawEllipse(box.X+box.W/2, box.Y+box.H/2, box.W/2, box.H/2)
		case canvas.ShapeDiamond:
			dc.MoveTo(box.X+box.W/2, box.Y)
			dc.LineTo(box.X+box.W, box.Y+box.H/2)
			dc.LineTo(box.X+box.W/2, box.Y+box.H)
			dc.LineTo(box.X, box.Y+box.H/2)
			dc.ClosePath()
		default:
			dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		}
		setColor(dc, el.Fill, "#ffffff")
		dc.FillPreserve()
		setColor(dc, el.Stroke, canvas.DefaultStroke)
		dc.SetLineWidth(stroke)
		dc.Stroke()
	case canvas.KindSticky:
		dc.DrawRectangle(box.X+3, box.Y+3, box.W, box.H)
		dc.SetRGBA(0, 0, 0, 0.12)
		dc.Fill()
		dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		setColor(dc, el.Fill, canvas.Palette[2])
		dc.Fill()
	case canvas.KindSection:
		dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		setColor(dc, el.Fill, sectionFill)
		dc.FillPreserve()
		dc.SetDash(6, 4)
		setColor(dc, el.Stroke, "#94a3b8")
		dc.SetLineWidth(stroke)
		dc.Stroke()
		dc.SetDash()
	case canvas.KindImage:
		drawImagePlaceholder(dc, sh)
	case canvas.KindText:
		align = gg.AlignLeft
	}

	if sh.Selected || sh.Editing {
		dc.DrawRectangle(box.X-2, box.Y-2, box.W+4, box.H+4)
		dc.SetHexColor(selectionColor)
		dc.SetLineWidth(1.5)
		if sh.Editing {
			dc.SetDash(4, 3)
		}
		dc.Stroke()
		dc.SetDash()
	}

	if sh.Text == "" || el.Kind == canvas.KindImage {
		return nil
	}
	return drawText(dc, sh, align)
}

func drawText(dc *gg.Context, sh canvas.Shape, align gg.Align) error {
	size := sh.FontSize
	if size <= 0 {
		size = canvas.DefaultFontSize * sh.Box.W / math.Max(sh.Element.Size.Width, 1)
	}
	f, err := face(size)
	if err != nil {
		return err
	}
	dc.SetFontFace(f)
	setColor(dc, "", "#1e293b")

	box := sh.Box
	pad := math.Min(textPadding, box.W/4)
	width := math.Max(box.W-2*pad, 1)
	switch sh.Element.Kind {
	case canvas.KindSection:
		// title sits in the top-left corner
		dc.DrawStringWrapped(sh.Text, box.X+pad, box.Y+pad, 0, 0, width, 1.3, gg.AlignLeft)
	case canvas.KindText:
		dc.DrawStringWrapped(sh.Text, box.X, box.Y, 0, 0, box.W, 1.3, align)
	default:
		c := box.Center()
		dc.DrawStringWrapped(sh.Text, c.X, c.Y, 0.5, 0.5, width, 1.3, align)
	}
	return nil
}

func drawImagePlaceholder(dc *gg.Context, sh canvas.Shape) {
	box := sh.Box
	dc.DrawRectangle(box.X, box.Y, box.W, box.H)
	dc.SetHexColor("#e2e8f0")
	dc.FillPreserve()
	dc.SetHexColor("#94a3b8")
	dc.SetLineWidth(1)
	dc.Stroke()
	dc.DrawLine(box.X, box.Y, box.X+box.W, box.Y+box.H)
	dc.DrawLine(box.X+box.W, box.Y, box.X, box.Y+box.H)
	dc.Stroke()

	if f, err := face(12); err == nil {
		dc.SetFontFace(f)
		dc.SetHexColor("#475569")
		c := box.Center()
		dc.DrawStringAnchored(path.Base(sh.Element.ImageURL), c.X, c.Y, 0.5, 0.5)
	}
}

func drawLine(dc *gg.Context, l canvas.Line, preview bool) {
	width := l.StrokeWidth
	if width <= 0 {
		width = canvas.DefaultStrokeWidth
	}
	dc.SetLineWidth(width)
	if l.Selected {
		dc.SetHexColor(selectionColor)
	} else {
		setColor(dc, l.Stroke, canvas.DefaultStroke)
	}
	if preview {
		dc.SetDash(6, 4)
	}
	dc.DrawLine(l.From.X, l.From.Y, l.To.X, l.To.Y)
	dc.Stroke()
	dc.SetDash()
	drawArrowHead(dc, l.From, l.To, arrowSize+width)
}

func drawArrowHead(dc *gg.Context, from, to canvas.Point, size float64) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	const spread = 0.5
	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-size*dx+size*dy*spread, to.Y-size*dy-size*dx*spread)
	dc.LineTo(to.X-size*dx-size*dy*spread, to.Y-size*dy+size*dx*spread)
	dc.ClosePath()
	dc.Fill()
}
