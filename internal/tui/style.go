package tui

import "whiteboard-studio/internal/canvas"

// nextColour returns the palette entry after current, wrapping around.
// Colours outside the palette restart it.
func nextColour(current string) string {
	for i, c := range canvas.Palette {
		if c == current {
			return canvas.Palette[(i+1)%len(canvas.Palette)]
		}
	}
	return canvas.Palette[0]
}

func (m *Model) cycleFill() {
	id := m.engine.Selected()
	el, ok := m.engine.Board().Get(id)
	if !ok {
		if _, isConn := m.engine.Board().GetConnection(id); isConn {
			m.status = "arrows have no fill"
		} else {
			m.status = "nothing selected"
		}
		return
	}
	fill := nextColour(el.Fill)
	if err := m.engine.UpdateElement(id, canvas.Patch{Fill: &fill}); err != nil {
		m.lastErr = err.Error()
		return
	}
	m.status = "fill " + fill
}

func (m *Model) cycleStroke() {
	id := m.engine.Selected()
	var err error
	var stroke string
	if el, ok := m.engine.Board().Get(id); ok {
		stroke = nextColour(el.Stroke)
		err = m.engine.UpdateElement(id, canvas.Patch{Stroke: &stroke})
	} else if conn, ok := m.engine.Board().GetConnection(id); ok {
		stroke = nextColour(conn.Stroke)
		err = m.engine.UpdateConnection(id, canvas.ConnectionPatch{Stroke: &stroke})
	} else {
		m.status = "nothing selected"
		return
	}
	if err != nil {
		m.lastErr = err.Error()
		return
	}
	m.status = "stroke " + stroke
}
