package render

import (
	"whiteboard-studio/internal/canvas"
)

// SnapshotMaxZoom caps the zoom used for board snapshots so small boards are
// not blown up.
const SnapshotMaxZoom = 2.0

// Snapshot returns a scene showing the whole board inside a w×h image with
// margin pixels of space around it. An empty board is drawn at the default
// viewport.
func Snapshot(b *canvas.Board, w, h int, margin float64) canvas.Scene {
	v := canvas.NewViewport()
	if bounds, ok := b.Bounds(); ok {
		fw, fh := float64(w)-2*margin, float64(h)-2*margin
		if fw > 0 && fh > 0 {
			v.Fit(bounds, fw, fh, SnapshotMaxZoom)
			v.Pan(margin, margin)
		}
	}
	return canvas.Render(b, v, canvas.Overlay{})
}
