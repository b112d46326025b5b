package tui

import (
	"strings"

	"whiteboard-studio/internal/canvas"

	"github.com/atotto/clipboard"
)

type clipboardIO interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// copySelection puts the selected element's text, or an image's url, on the
// system clipboard.
func (m *Model) copySelection() {
	el, ok := m.engine.Board().Get(m.engine.Selected())
	if !ok {
		m.status = "nothing selected"
		return
	}
	text := el.Content
	if el.Kind == canvas.KindImage {
		text = el.ImageURL
	}
	if text == "" {
		m.status = "selection has no text"
		return
	}
	if err := m.clipboard.WriteAll(text); err != nil {
		m.lastErr = "copy: " + err.Error()
		return
	}
	m.status = "copied"
}

// paste drops the clipboard text onto the board as a sticky note at the
// middle of the view.
func (m *Model) paste() {
	text, err := m.clipboard.ReadAll()
	if err != nil {
		m.lastErr = "paste: " + err.Error()
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w, h := m.viewSize()
	el, err := m.engine.Create(canvas.KindSticky, "", m.engine.Center(w, h))
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	if err := m.engine.UpdateElement(el.ID, canvas.Patch{Content: &text}); err != nil {
		m.lastErr = err.Error()
	}
}
