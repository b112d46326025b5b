package tui

import (
	"fmt"
	"math"
	"path"
	"strings"
	"unicode/utf8"

	"whiteboard-studio/internal/canvas"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const selectionColor = "#3b82f6"

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f8fafc")).
			Background(lipgloss.Color("#1e293b"))
	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1e293b")).
			Background(lipgloss.Color("#fff9b1")).
			Bold(true).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#dc2626")).
			Padding(0, 1)
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1e293b")).
			Background(lipgloss.Color("#c6ebfb")).
			Padding(0, 1)
)

type cell struct {
	r      rune
	fg, bg string
}

// grid is a character canvas addressed in terminal cells.
type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i].r = ' '
	}
	return g
}

func (g *grid) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return nil
	}
	return &g.cells[y*g.w+x]
}

// termColor keeps only hex colours; terminals have no "transparent".
func termColor(c, fallback string) string {
	if strings.HasPrefix(c, "#") {
		return c
	}
	return fallback
}

func (g *grid) set(x, y int, r rune, fg string) {
	if c := g.at(x, y); c != nil {
		c.r, c.fg = r, fg
	}
}

func (g *grid) fill(x0, y0, x1, y1 int, bg string) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if c := g.at(x, y); c != nil {
				c.r, c.bg = ' ', bg
			}
		}
	}
}

// text writes s from (x, y), clipped to maxX.
func (g *grid) text(x, y, maxX int, s, fg string) {
	for _, r := range s {
		if x > maxX {
			return
		}
		g.set(x, y, r, fg)
		x += runewidth.RuneWidth(r)
	}
}

func (g *grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		row := g.cells[y*g.w : (y+1)*g.w]
		for i := 0; i < len(row); {
			j := i
			var run strings.Builder
			for j < len(row) && row[j].fg == row[i].fg && row[j].bg == row[i].bg {
				run.WriteRune(row[j].r)
				j++
			}
			st := lipgloss.NewStyle()
			if row[i].fg != "" {
				st = st.Foreground(lipgloss.Color(row[i].fg))
			}
			if row[i].bg != "" {
				st = st.Background(lipgloss.Color(row[i].bg))
			}
			sb.WriteString(st.Render(run.String()))
			i = j
		}
	}
	return sb.String()
}

func toCell(p canvas.Point) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// cellBox maps a screen rect to inclusive cell bounds, at least one cell.
func cellBox(r canvas.Rect) (x0, y0, x1, y1 int) {
	x0, y0 = toCell(canvas.Point{X: r.X, Y: r.Y})
	x1, y1 = toCell(canvas.Point{X: r.X + r.W - 0.01, Y: r.Y + r.H - 0.01})
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

type border struct{ tl, tr, bl, br, h, v rune }

var (
	squareBorder  = border{'┌', '┐', '└', '┘', '─', '│'}
	roundBorder   = border{'╭', '╮', '╰', '╯', '─', '│'}
	dashedBorder  = border{'┌', '┐', '└', '┘', '╌', '╎'}
	doubleBorder  = border{'╔', '╗', '╚', '╝', '═', '║'}
	diamondBorder = border{'╱', '╲', '╲', '╱', '─', '│'}
)

func (g *grid) box(x0, y0, x1, y1 int, b border, fg string) {
	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, b.h, fg)
		g.set(x, y1, b.h, fg)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, b.v, fg)
		g.set(x1, y, b.v, fg)
	}
	g.set(x0, y0, b.tl, fg)
	g.set(x1, y0, b.tr, fg)
	g.set(x0, y1, b.bl, fg)
	g.set(x1, y1, b.br, fg)
}

func (g *grid) line(l canvas.Line, fg string) {
	x0, y0 := toCell(l.From)
	x1, y1 := toCell(l.To)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	ch := '·'
	switch {
	case dy == 0:
		ch = '─'
	case dx == 0:
		ch = '│'
	}
	err := dx + dy
	x, y := x0, y0
	for {
		g.set(x, y, ch, fg)
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
	// the head points along the dominant direction
	head := '▶'
	switch {
	case abs(l.To.X-l.From.X) >= abs(l.To.Y-l.From.Y):
		if l.To.X < l.From.X {
			head = '◀'
		}
	case l.To.Y < l.From.Y:
		head = '▲'
	default:
		head = '▼'
	}
	g.set(x1, y1, head, fg)
}

func abs[T int | float64](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func (g *grid) shape(sh canvas.Shape) {
	el := sh.Element
	x0, y0, x1, y1 := cellBox(sh.Box)
	fg := termColor(el.Stroke, canvas.DefaultStroke)

	switch el.Kind {
	case canvas.KindShape:
		if fill := termColor(el.Fill, ""); fill != "" && fill != "#ffffff" {
			g.fill(x0, y0, x1, y1, fill)
		}
		switch el.ShapeType {
		case canvas.ShapeEllipse:
			g.box(x0, y0, x1, y1, roundBorder, fg)
		case canvas.ShapeDiamond:
			g.box(x0, y0, x1, y1, diamondBorder, fg)
		default:
			g.box(x0, y0, x1, y1, squareBorder, fg)
		}
	case canvas.KindSticky:
		g.fill(x0, y0, x1, y1, termColor(el.Fill, canvas.Palette[2]))
	case canvas.KindSection:
		g.box(x0, y0, x1, y1, dashedBorder, "#94a3b8")
	case canvas.KindImage:
		g.box(x0, y0, x1, y1, squareBorder, "#94a3b8")
		for y := y0 + 1; y < y1; y++ {
			for x := x0 + 1; x < x1; x++ {
				g.set(x, y, '░', "#cbd5e1")
			}
		}
		name := "▣ " + path.Base(el.ImageURL)
		g.text(x0+1, (y0+y1)/2, x1-1, name, "#475569")
	case canvas.KindText:
	}

	if sh.Selected || sh.Editing {
		g.box(x0, y0, x1, y1, doubleBorder, selectionColor)
	}

	text := sh.Text
	if sh.Editing {
		text += "▏"
	}
	if text == "" || el.Kind == canvas.KindImage {
		return
	}
	g.label(sh, text, x0, y0, x1, y1)
}

// label lays text out inside the cell box: sections put it on the top
// border, text elements top-left, everything else centered.
func (g *grid) label(sh canvas.Shape, text string, x0, y0, x1, y1 int) {
	fg := "#1e293b"
	switch sh.Element.Kind {
	case canvas.KindSection:
		g.text(x0+2, y0, x1-1, " "+text+" ", "#475569")
		return
	case canvas.KindText:
		for i, ln := range wrap(text, x1-x0+1) {
			if y0+i > y1 {
				break
			}
			g.text(x0, y0+i, x1, ln, fg)
		}
		return
	}
	inner := x1 - x0 - 1
	if inner < 1 {
		inner = 1
	}
	lines := wrap(text, inner)
	top := (y0+y1)/2 - len(lines)/2
	if top <= y0 {
		top = y0 + 1
	}
	for i, ln := range lines {
		y := top + i
		if y >= y1 {
			break
		}
		x := x0 + 1 + (inner-runewidth.StringWidth(ln))/2
		g.text(x, y, x1-1, ln, fg)
	}
}

// wrap breaks s into lines at most width cells wide, honouring newlines.
func wrap(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for runewidth.StringWidth(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				cut := runewidth.Truncate(word, width, "")
				if cut == "" {
					_, n := utf8.DecodeRuneInString(word)
					cut = word[:n]
				}
				out = append(out, cut)
				word = word[len(cut):]
			}
			switch {
			case line == "":
				line = word
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return out
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}
	rows := m.height - 1
	if rows < 1 {
		rows = 1
	}
	g := newGrid(m.width, rows)

	s := m.engine.Scene()
	for _, it := range s.Order {
		if it.Line {
			l := s.Lines[it.Index]
			fg := termColor(l.Stroke, canvas.DefaultStroke)
			if l.Selected {
				fg = selectionColor
			}
			g.line(l, fg)
			continue
		}
		g.shape(s.Shapes[it.Index])
	}
	if s.Preview != nil {
		g.line(*s.Preview, selectionColor)
	}
	if s.Handle != nil {
		x, y := toCell(s.Handle.Center())
		g.set(x, y, '◢', selectionColor)
	}
	return g.String() + "\n" + m.statusBar()
}

func (m *Model) statusBar() string {
	if m.prompt != nil {
		bar := promptStyle.Render(m.prompt.kind.label()+":") + " " + m.prompt.input + "▏"
		return statusStyle.Width(m.width).Render(bar)
	}

	tool := string(m.engine.EffectiveTool())
	left := toolStyle.Render(tool)
	info := fmt.Sprintf(" %s  %d%% ", m.title, int(math.Round(m.engine.Viewport().Zoom*100)))
	if _, ok := m.engine.PendingArrow(); ok {
		info += " click a target element, esc cancels "
	}
	if _, _, ok := m.engine.Editing(); ok {
		info += " editing: enter saves, alt+enter newline, esc discards "
	}
	if m.busy != "" {
		info += " " + m.busy + " "
	} else if m.status != "" {
		info += " " + m.status + " "
	}
	bar := left + info
	if m.lastErr != "" {
		bar += errorStyle.Render(m.lastErr)
	}
	return statusStyle.Width(m.width).MaxHeight(1).Render(bar)
}
