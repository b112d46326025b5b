package canvas

import (
	"strings"
	"unicode/utf8"
)

// Tool is the active tool mode.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolPan     Tool = "pan"
	ToolRect    Tool = "create-rect"
	ToolEllipse Tool = "create-ellipse"
	ToolDiamond Tool = "create-diamond"
	ToolText    Tool = "create-text"
	ToolSticky  Tool = "create-sticky"
	ToolArrow   Tool = "create-arrow"
	ToolDelete  Tool = "delete"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolPan, ToolRect, ToolEllipse, ToolDiamond, ToolText, ToolSticky, ToolArrow, ToolDelete}

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Key names understood by KeyDown and KeyUp. Printable text goes through
// Input instead.
const (
	KeyEscape    = "Escape"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeySpace     = "Space"
)

// FocusMaxZoom caps the zoom FocusElement will choose.
const FocusMaxZoom = 1.5

type dragState struct {
	id     string
	grab   Point
	before Element
}

type resizeState struct {
	id     string
	origin Size
	start  Point
	before Element
}

type panState struct {
	last Point
}

type editState struct {
	id     string
	buffer string
	before Element
}

// Engine is the interaction state machine. It turns pointer and keyboard
// events into viewport changes or board mutations, and reports every board
// mutation to the registered ChangeFunc once the gesture that caused it ends.
//
// An Engine, like its Board, belongs to one goroutine.
type Engine struct {
	board    *Board
	view     Viewport
	tool     Tool
	onChange ChangeFunc

	spaceHeld bool
	cursor    Point

	drag    *dragState
	resize  *resizeState
	pan     *panState
	pending *Endpoint
	edit    *editState
}

// NewEngine mounts an engine on b. onChange may be nil.
func NewEngine(b *Board, onChange ChangeFunc) *Engine {
	return &Engine{
		board:    b,
		view:     NewViewport(),
		tool:     ToolSelect,
		onChange: onChange,
	}
}

// OnChange replaces the change callback.
func (e *Engine) OnChange(fn ChangeFunc) { e.onChange = fn }

func (e *Engine) emit(c Change) {
	if e.onChange != nil {
		e.onChange(c)
	}
}

func (e *Engine) Board() *Board          { return e.board }
func (e *Engine) Viewport() Viewport     { return e.view }
func (e *Engine) SetViewport(v Viewport) { e.view = v; e.view.Zoom = v.zoom() }
func (e *Engine) Selected() string       { return e.board.Selected() }

// Tool returns the selected tool, ignoring a held pan modifier.
func (e *Engine) Tool() Tool { return e.tool }

// EffectiveTool is the tool pointer events are dispatched to: pan while the
// space bar is held, the selected tool otherwise.
func (e *Engine) EffectiveTool() Tool {
	if e.spaceHeld {
		return ToolPan
	}
	return e.tool
}

// SetTool switches tools. Any pending arrow is dropped and an open text edit
// is committed.
func (e *Engine) SetTool(t Tool) {
	e.commitEdit()
	e.pending = nil
	e.tool = t
}

// PendingArrow returns the start of an arrow being drawn.
func (e *Engine) PendingArrow() (Endpoint, bool) {
	if e.pending == nil {
		return Endpoint{}, false
	}
	return *e.pending, true
}

// Editing returns the element being edited and the uncommitted text.
func (e *Engine) Editing() (id, text string, ok bool) {
	if e.edit == nil {
		return "", "", false
	}
	return e.edit.id, e.edit.buffer, true
}

// Busy reports whether a drag, resize or pan gesture is in progress.
func (e *Engine) Busy() bool {
	return e.drag != nil || e.resize != nil || e.pan != nil
}

// PointerDown handles a button press at screen point (sx, sy).
func (e *Engine) PointerDown(sx, sy float64, btn Button) {
	e.commitEdit()
	e.endGesture()
	screen := Point{X: sx, Y: sy}
	p := e.view.ScreenToBoard(sx, sy)
	e.cursor = p

	if btn == ButtonMiddle || e.EffectiveTool() == ToolPan {
		e.pan = &panState{last: screen}
		return
	}
	if btn != ButtonLeft {
		return
	}

	switch e.tool {
	case ToolSelect:
		e.pressSelect(screen, p)
	case ToolRect:
		e.createAt(KindShape, ShapeRect, p)
	case ToolEllipse:
		e.createAt(KindShape, ShapeEllipse, p)
	case ToolDiamond:
		e.createAt(KindShape, ShapeDiamond, p)
	case ToolSticky:
		e.createAt(KindSticky, "", p)
	case ToolText:
		if el, ok := e.createAt(KindText, "", p); ok {
			e.edit = &editState{id: el.ID, before: el}
		}
	case ToolArrow:
		e.pressArrow(p)
	case ToolDelete:
		hit := e.board.HitTest(p)
		e.remove(hit)
	}
}

func (e *Engine) pressSelect(screen, p Point) {
	if id := e.board.Selected(); id != "" {
		if el, ok := e.board.Get(id); ok && handleRect(el, e.view).Contains(screen) {
			e.resize = &resizeState{id: id, origin: el.Size, start: screen, before: el}
			return
		}
	}
	hit := e.board.HitTest(p)
	switch hit.Target {
	case TargetElement:
		el, _ := e.board.Get(hit.ID)
		e.board.Select(hit.ID)
		e.drag = &dragState{id: hit.ID, grab: p.Sub(el.Position), before: el}
	case TargetConnection:
		e.board.Select(hit.ID)
	default:
		e.board.ClearSelection()
	}
}

func (e *Engine) createAt(kind Kind, shape ShapeType, p Point) (Element, bool) {
	el, err := e.board.Create(kind, shape, p)
	if err != nil {
		return Element{}, false
	}
	e.emit(Change{Kind: ChangeCreate, Element: el})
	e.tool = ToolSelect
	return el, true
}

// pressArrow runs the two-click protocol. The first click on an element
// records its nearest port as the pending start. A click on another element
// finishes the connection; a click on empty canvas cancels.
func (e *Engine) pressArrow(p Point) {
	hit := e.board.HitTest(p)
	if hit.Target != TargetElement {
		e.pending = nil
		return
	}
	el, _ := e.board.Get(hit.ID)
	port := NearestPort(el, p)
	if e.pending == nil {
		e.pending = &Endpoint{ElementID: el.ID, Port: port}
		return
	}
	if e.pending.ElementID == el.ID {
		if e.pending.Port == port {
			e.pending = nil
		}
		return
	}
	c, err := e.board.Connect(*e.pending, Endpoint{ElementID: el.ID, Port: port})
	e.pending = nil
	if err != nil {
		return
	}
	e.emit(Change{Kind: ChangeConnect, Connection: c})
	e.tool = ToolSelect
}

// PointerMove handles pointer motion to screen point (sx, sy).
func (e *Engine) PointerMove(sx, sy float64) {
	screen := Point{X: sx, Y: sy}
	p := e.view.ScreenToBoard(sx, sy)
	e.cursor = p

	switch {
	case e.pan != nil:
		d := screen.Sub(e.pan.last)
		e.view.Pan(d.X, d.Y)
		e.pan.last = screen
	case e.resize != nil:
		z := e.view.zoom()
		d := screen.Sub(e.resize.start)
		size := Size{Width: e.resize.origin.Width + d.X/z, Height: e.resize.origin.Height + d.Y/z}
		e.board.Update(e.resize.id, Patch{Size: &size})
	case e.drag != nil:
		pos := p.Sub(e.drag.grab)
		e.board.Update(e.drag.id, Patch{Position: &pos})
	}
}

// PointerUp ends the current gesture. Without a gesture it does nothing.
func (e *Engine) PointerUp(sx, sy float64) {
	if e.Busy() {
		e.PointerMove(sx, sy)
	}
	e.endGesture()
}

// PointerLeave is treated as a release at the last known position. An arrow
// being drawn is dropped.
func (e *Engine) PointerLeave() {
	e.endGesture()
	e.pending = nil
}

// endGesture finishes a drag or resize, emitting one change for the whole
// gesture if the element actually changed.
func (e *Engine) endGesture() {
	switch {
	case e.drag != nil:
		d := e.drag
		e.drag = nil
		if after, ok := e.board.Get(d.id); ok && after.Position != d.before.Position {
			e.emit(Change{Kind: ChangeMove, Element: after, Before: d.before, Patch: Diff(d.before, after)})
		}
	case e.resize != nil:
		r := e.resize
		e.resize = nil
		if after, ok := e.board.Get(r.id); ok && after.Size != r.before.Size {
			e.emit(Change{Kind: ChangeUpdate, Element: after, Before: r.before, Patch: Diff(r.before, after)})
		}
	}
	e.pan = nil
}

// cancelGesture abandons a drag or resize, putting the element back.
func (e *Engine) cancelGesture() {
	switch {
	case e.drag != nil:
		pos := e.drag.before.Position
		e.board.Update(e.drag.id, Patch{Position: &pos})
	case e.resize != nil:
		size := e.resize.before.Size
		e.board.Update(e.resize.id, Patch{Size: &size})
	}
	e.drag, e.resize, e.pan = nil, nil, nil
}

// DoubleClick opens the inline editor on a text-bearing element.
func (e *Engine) DoubleClick(sx, sy float64) {
	if e.tool != ToolSelect {
		return
	}
	e.endGesture()
	hit := e.board.HitTest(e.view.ScreenToBoard(sx, sy))
	if hit.Target != TargetElement {
		return
	}
	el, _ := e.board.Get(hit.ID)
	if !el.Editable() {
		return
	}
	e.board.Select(el.ID)
	e.edit = &editState{id: el.ID, buffer: el.Content, before: el}
}

// Wheel zooms around the cursor; negative delta zooms in.
func (e *Engine) Wheel(sx, sy, delta float64) {
	e.view.Wheel(sx, sy, delta)
}

// ZoomAt zooms to an absolute level keeping (sx, sy) fixed.
func (e *Engine) ZoomAt(sx, sy, zoom float64) {
	e.view.ZoomAt(sx, sy, zoom)
}

// SetZoom zooms toward the viewport origin.
func (e *Engine) SetZoom(zoom float64) {
	e.view.SetZoom(zoom)
}

// PanBy shifts the viewport by a screen delta.
func (e *Engine) PanBy(dx, dy float64) {
	e.view.Pan(dx, dy)
}

// Input appends typed text to the open editor.
func (e *Engine) Input(text string) {
	if e.edit == nil {
		return
	}
	e.edit.buffer += text
}

// KeyDown handles a named key press.
func (e *Engine) KeyDown(key string, shift bool) {
	if e.edit != nil {
		e.editKey(key, shift)
		return
	}
	switch key {
	case KeyEscape:
		e.cancelGesture()
		e.pending = nil
		e.board.ClearSelection()
	case KeyDelete, KeyBackspace:
		e.DeleteSelected()
	case KeySpace:
		e.spaceHeld = true
	}
}

// KeyUp handles a named key release.
func (e *Engine) KeyUp(key string) {
	if key == KeySpace {
		e.spaceHeld = false
	}
}

func (e *Engine) editKey(key string, shift bool) {
	switch key {
	case KeyEnter:
		if shift {
			e.edit.buffer += "\n"
			return
		}
		e.commitEdit()
	case KeyBackspace:
		if _, n := utf8.DecodeLastRuneInString(e.edit.buffer); n > 0 {
			e.edit.buffer = e.edit.buffer[:len(e.edit.buffer)-n]
		}
	case KeySpace:
		e.edit.buffer += " "
	case KeyEscape:
		e.edit = nil
	}
}

// Blur commits an open text edit, as losing focus does.
func (e *Engine) Blur() {
	e.commitEdit()
}

func (e *Engine) commitEdit() {
	if e.edit == nil {
		return
	}
	ed := e.edit
	e.edit = nil
	el, ok := e.board.Get(ed.id)
	if !ok {
		return
	}
	content := strings.TrimRight(ed.buffer, "\n")
	p := Patch{Content: &content}
	if el.Kind == KindText {
		size := EstimateTextSize(content, el.FontSize)
		p.Size = &size
	}
	_, after, err := e.board.Update(ed.id, p)
	if err != nil {
		return
	}
	if diff := Diff(ed.before, after); !diff.Empty() {
		e.emit(Change{Kind: ChangeUpdate, Element: after, Before: ed.before, Patch: diff})
	}
}

// DeleteSelected removes the selected element, with its connections, or the
// selected connection.
func (e *Engine) DeleteSelected() {
	id := e.board.Selected()
	if id == "" {
		return
	}
	if _, ok := e.board.Get(id); ok {
		e.remove(Hit{Target: TargetElement, ID: id})
		return
	}
	e.remove(Hit{Target: TargetConnection, ID: id})
}

func (e *Engine) remove(h Hit) {
	switch h.Target {
	case TargetElement:
		if (e.drag != nil && e.drag.id == h.ID) || (e.resize != nil && e.resize.id == h.ID) {
			e.drag, e.resize = nil, nil
		}
		if e.pending != nil && e.pending.ElementID == h.ID {
			e.pending = nil
		}
		el, cascade, ok := e.board.Delete(h.ID)
		if ok {
			e.emit(Change{Kind: ChangeDelete, Element: el, Cascade: cascade})
		}
	case TargetConnection:
		if c, ok := e.board.Disconnect(h.ID); ok {
			e.emit(Change{Kind: ChangeDisconnect, Connection: c})
		}
	}
}

// Create adds an element at the board point at without going through a tool,
// for toolbar actions that place something at a fixed spot.
func (e *Engine) Create(kind Kind, shape ShapeType, at Point) (Element, error) {
	el, err := e.board.Create(kind, shape, at)
	if err != nil {
		return Element{}, err
	}
	e.emit(Change{Kind: ChangeCreate, Element: el})
	return el, nil
}

// InsertImage places an image element centered on the board point at.
func (e *Engine) InsertImage(url string, at Point) (Element, error) {
	el, err := e.board.Create(KindImage, "", at)
	if err != nil {
		return Element{}, err
	}
	el.ImageURL = url
	el.Position = at.Sub(Point{X: el.Size.Width / 2, Y: el.Size.Height / 2})
	e.board.Add(el)
	e.emit(Change{Kind: ChangeCreate, Element: el})
	return el, nil
}

// UpdateElement applies a programmatic edit, such as a colour change from a
// toolbar, and reports it.
func (e *Engine) UpdateElement(id string, p Patch) error {
	before, after, err := e.board.Update(id, p)
	if err != nil {
		return err
	}
	if diff := Diff(before, after); !diff.Empty() {
		e.emit(Change{Kind: ChangeUpdate, Element: after, Before: before, Patch: diff})
	}
	return nil
}

// UpdateConnection restyles a connection and reports it.
func (e *Engine) UpdateConnection(id string, p ConnectionPatch) error {
	before, after, err := e.board.UpdateConnection(id, p)
	if err != nil {
		return err
	}
	if diff := DiffConnection(before, after); !diff.Empty() {
		e.emit(Change{Kind: ChangeRestyle, Connection: after, BeforeConnection: before, ConnectionPatch: diff})
	}
	return nil
}

// FocusElement fits the element into a viewW×viewH viewport and centers it.
func (e *Engine) FocusElement(id string, viewW, viewH float64) bool {
	el, ok := e.board.Get(id)
	if !ok {
		return false
	}
	e.view.Fit(el.Bounds(), viewW, viewH, FocusMaxZoom)
	e.board.Select(id)
	return true
}

// Center is the board point at the middle of a viewW×viewH viewport.
func (e *Engine) Center(viewW, viewH float64) Point {
	return e.view.ScreenToBoard(viewW/2, viewH/2)
}

// Scene renders the board through the current viewport together with the
// engine's transient state.
func (e *Engine) Scene() Scene {
	o := Overlay{Selected: e.board.Selected(), Cursor: e.cursor}
	if e.pending != nil {
		p := *e.pending
		o.Pending = &p
	}
	if e.edit != nil {
		o.Editing = e.edit.id
		o.EditText = e.edit.buffer
	}
	return Render(e.board, e.view, o)
}
