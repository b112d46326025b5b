package tui

import (
	"strings"

	"whiteboard-studio/internal/canvas"

	tea "github.com/charmbracelet/bubbletea"
)

// toolKeys selects a tool with a single key, as the toolbar would.
var toolKeys = map[string]canvas.Tool{
	"v": canvas.ToolSelect,
	"h": canvas.ToolPan,
	"r": canvas.ToolRect,
	"o": canvas.ToolEllipse,
	"d": canvas.ToolDiamond,
	"t": canvas.ToolText,
	"s": canvas.ToolSticky,
	"a": canvas.ToolArrow,
	"x": canvas.ToolDelete,
}

const panStep = 4 * CellWidth

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.engine.Blur()
		return tea.Quit
	}
	if m.prompt != nil {
		return m.promptKey(msg)
	}
	if _, _, editing := m.engine.Editing(); editing {
		m.editKey(msg)
		return nil
	}

	m.lastErr = ""
	w, h := m.viewSize()
	switch msg.Type {
	case tea.KeyEscape:
		m.engine.KeyDown(canvas.KeyEscape, false)
		return nil
	case tea.KeyDelete, tea.KeyBackspace:
		m.engine.KeyDown(canvas.KeyDelete, false)
		return nil
	case tea.KeyUp:
		m.engine.PanBy(0, panStep)
		return nil
	case tea.KeyDown:
		m.engine.PanBy(0, -panStep)
		return nil
	case tea.KeyLeft:
		m.engine.PanBy(panStep, 0)
		return nil
	case tea.KeyRight:
		m.engine.PanBy(-panStep, 0)
		return nil
	}

	key := msg.String()
	if t, ok := toolKeys[key]; ok {
		m.engine.SetTool(t)
		return nil
	}
	switch key {
	case "q":
		return tea.Quit
	case "+", "=":
		m.engine.Wheel(w/2, h/2, -1)
	case "-":
		m.engine.Wheel(w/2, h/2, 1)
	case "0":
		m.engine.SetZoom(1)
	case "f":
		if !m.engine.FocusElement(m.engine.Selected(), w, h) {
			m.status = "nothing selected"
		}
	case "b":
		m.prompt = &prompt{kind: promptBrainstorm}
	case "g":
		m.prompt = &prompt{kind: promptDiagram}
	case "i":
		m.prompt = &prompt{kind: promptImage}
	case "c":
		m.cycleFill()
	case "k":
		m.cycleStroke()
	case "y":
		m.copySelection()
	case "p":
		m.paste()
	}
	return nil
}

func (m *Model) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		// Alt+Enter stands in for Shift+Enter, which terminals do not report.
		m.engine.KeyDown(canvas.KeyEnter, msg.Alt)
	case tea.KeyBackspace:
		m.engine.KeyDown(canvas.KeyBackspace, false)
	case tea.KeyEscape:
		m.engine.KeyDown(canvas.KeyEscape, false)
	case tea.KeySpace:
		m.engine.KeyDown(canvas.KeySpace, false)
	case tea.KeyRunes:
		m.engine.Input(string(msg.Runes))
	}
}

func (m *Model) promptKey(msg tea.KeyMsg) tea.Cmd {
	p := m.prompt
	switch msg.Type {
	case tea.KeyEscape:
		m.prompt = nil
	case tea.KeyEnter:
		m.prompt = nil
		input := strings.TrimSpace(p.input)
		if input == "" {
			return nil
		}
		if p.kind == promptImage {
			return m.uploadImage(input)
		}
		return m.startAI(p.kind, input)
	case tea.KeyBackspace:
		if r := []rune(p.input); len(r) > 0 {
			p.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		p.input += " "
	case tea.KeyRunes:
		p.input += string(msg.Runes)
	}
	return nil
}
