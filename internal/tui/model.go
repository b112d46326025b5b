// Package tui runs the whiteboard engine in a terminal. Mouse cells are
// scaled to engine pixels so the engine sees the same coordinates a
// graphical front end would.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"whiteboard-studio/internal/canvas"
	"whiteboard-studio/internal/models"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	CellWidth  = 8.0
	CellHeight = 16.0

	doubleClickWindow = 400 * time.Millisecond
	aiTimeout         = 90 * time.Second
)

// Syncer is the part of the sync adapter the UI drives.
type Syncer interface {
	BoardID() string
	Notify() <-chan struct{}
	Reconcile() int
	SaveViewport(v canvas.Viewport)
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
}

// Assistant generates board content from a topic.
type Assistant interface {
	Brainstorm(ctx context.Context, boardID, topic string) (models.Brainstorm, error)
	Diagram(ctx context.Context, boardID, topic string) (models.Diagram, error)
}

type promptKind int

const (
	promptBrainstorm promptKind = iota
	promptDiagram
	promptImage
)

func (k promptKind) label() string {
	switch k {
	case promptBrainstorm:
		return "brainstorm topic"
	case promptDiagram:
		return "diagram topic"
	default:
		return "image file"
	}
}

type prompt struct {
	kind  promptKind
	input string
}

type syncMsg struct{}

type brainstormMsg struct {
	result models.Brainstorm
	err    error
}

type diagramMsg struct {
	result models.Diagram
	err    error
}

type imageMsg struct {
	url string
	err error
}

type errMsg struct{ err error }

// Model is the bubbletea model. It owns the engine and its board; every
// engine call happens inside Update.
type Model struct {
	engine *canvas.Engine
	sync   Syncer
	ai     Assistant
	title  string

	width, height int

	prompt    *prompt
	status    string
	lastErr   string
	busy      string
	saved     canvas.Viewport
	lastClick time.Time
	clickAt   [2]int

	now       func() time.Time
	clipboard clipboardIO
}

// New builds the UI. sync and ai may be nil, which disables persistence
// feedback and the AI prompts respectively.
func New(engine *canvas.Engine, sync Syncer, ai Assistant, title string) *Model {
	return &Model{
		engine:    engine,
		sync:      sync,
		ai:        ai,
		title:     title,
		saved:     engine.Viewport(),
		now:       time.Now,
		clipboard: systemClipboard{},
	}
}

// ReportError shows err in the status bar. It is meant to be the sync
// adapter's error handler, which runs inside Reconcile and so inside Update.
func (m *Model) ReportError(err error) {
	m.lastErr = err.Error()
}

func (m *Model) Init() tea.Cmd {
	return m.waitForSync()
}

func (m *Model) waitForSync() tea.Cmd {
	if m.sync == nil {
		return nil
	}
	ch := m.sync.Notify()
	return func() tea.Msg {
		<-ch
		return syncMsg{}
	}
}

// viewSize is the drawing area in engine pixels; the last row is the status
// bar.
func (m *Model) viewSize() (float64, float64) {
	rows := m.height - 1
	if rows < 1 {
		rows = 1
	}
	return float64(m.width) * CellWidth, float64(rows) * CellHeight
}

func toPixels(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case syncMsg:
		m.sync.Reconcile()
		cmd = m.waitForSync()
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case brainstormMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			break
		}
		w, h := m.viewSize()
		if err := m.engine.InsertBrainstorm(w, h, msg.result.Title, msg.result.Ideas); err != nil {
			m.lastErr = err.Error()
		}
	case diagramMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			break
		}
		w, h := m.viewSize()
		if err := m.engine.InsertDiagram(w, h, msg.result.Title, msg.result.Nodes()); err != nil {
			m.lastErr = err.Error()
		}
	case imageMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			break
		}
		w, h := m.viewSize()
		if _, err := m.engine.InsertImage(msg.url, m.engine.Center(w, h)); err != nil {
			m.lastErr = err.Error()
		}
	case errMsg:
		m.lastErr = msg.err.Error()
	}
	m.saveViewport()
	return m, cmd
}

// saveViewport persists the viewport once no gesture is moving it.
func (m *Model) saveViewport() {
	if m.sync == nil || m.engine.Busy() {
		return
	}
	if v := m.engine.Viewport(); v != m.saved {
		m.saved = v
		m.sync.SaveViewport(v)
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.prompt != nil {
		return
	}
	// a press on the status bar is outside the board
	if msg.Y >= m.height-1 && msg.Action == tea.MouseActionPress {
		m.engine.Blur()
		return
	}
	x, y := toPixels(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.engine.Wheel(x, y, -1)
		case tea.MouseButtonWheelDown:
			m.engine.Wheel(x, y, 1)
		case tea.MouseButtonLeft:
			if m.isDoubleClick(msg.X, msg.Y) {
				m.engine.DoubleClick(x, y)
				return
			}
			m.engine.PointerDown(x, y, canvas.ButtonLeft)
		case tea.MouseButtonMiddle:
			m.engine.PointerDown(x, y, canvas.ButtonMiddle)
		case tea.MouseButtonRight:
			m.engine.PointerDown(x, y, canvas.ButtonRight)
		}
	case tea.MouseActionMotion:
		m.engine.PointerMove(x, y)
	case tea.MouseActionRelease:
		m.engine.PointerUp(x, y)
	}
}

// isDoubleClick reports a second press on the same cell inside the window.
// Terminals only report presses, so double clicks are detected here.
func (m *Model) isDoubleClick(col, row int) bool {
	now := m.now()
	double := m.clickAt == [2]int{col, row} && now.Sub(m.lastClick) <= doubleClickWindow
	if double {
		m.lastClick = time.Time{}
	} else {
		m.lastClick = now
	}
	m.clickAt = [2]int{col, row}
	return double
}

func (m *Model) startAI(kind promptKind, topic string) tea.Cmd {
	if m.ai == nil || m.sync == nil {
		m.lastErr = "AI assistant is not available"
		return nil
	}
	ai, boardID := m.ai, m.sync.BoardID()
	m.busy = "generating..."
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
		defer cancel()
		if kind == promptBrainstorm {
			out, err := ai.Brainstorm(ctx, boardID, topic)
			return brainstormMsg{result: out, err: err}
		}
		out, err := ai.Diagram(ctx, boardID, topic)
		return diagramMsg{result: out, err: err}
	}
}

func (m *Model) uploadImage(path string) tea.Cmd {
	if m.sync == nil {
		m.lastErr = "image upload needs a server connection"
		return nil
	}
	sync := m.sync
	m.busy = "uploading " + filepath.Base(path) + "..."
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return imageMsg{err: fmt.Errorf("read image: %w", err)}
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		url, err := sync.UploadImage(ctx, filepath.Base(path), data)
		return imageMsg{url: url, err: err}
	}
}
