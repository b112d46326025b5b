package canvas

import "sort"

const (
	// hitTolerance widens a connection's hit band beyond its stroke width, in
	// board units.
	hitTolerance = 6.0

	// HandleSize is the on-screen side of the resize handle, in pixels.
	HandleSize = 10.0
)

type Target int

const (
	TargetNone Target = iota
	TargetElement
	TargetConnection
)

// Hit is the result of a hit-test: what was under the pointer, if anything.
type Hit struct {
	Target Target
	ID     string
}

// HitTest returns the top-most element or connection under the board point p.
// Candidates are visited in descending ZIndex and the first match wins.
// Elements of every kind are hit by their bounding box; connections by their
// distance to the segment, within strokeWidth plus a fixed tolerance.
// Connections whose endpoints no longer resolve are skipped.
func (b *Board) HitTest(p Point) Hit {
	type candidate struct {
		z    int
		hit  Hit
		test func() bool
	}
	cands := make([]candidate, 0, len(b.elements)+len(b.connections))
	for _, e := range b.elements {
		e := *e
		cands = append(cands, candidate{
			z:   e.ZIndex,
			hit: Hit{Target: TargetElement, ID: e.ID},
			test: func() bool {
				return hitElement(e, p)
			},
		})
	}
	for _, c := range b.connections {
		c := *c
		cands = append(cands, candidate{
			z:   c.ZIndex,
			hit: Hit{Target: TargetConnection, ID: c.ID},
			test: func() bool {
				start, end, ok := b.ResolveEndpoints(c)
				return ok && distToSegment(p, start, end) <= c.strokeWidth()+hitTolerance
			},
		})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].z != cands[j].z {
			return cands[i].z > cands[j].z
		}
		if cands[i].hit.Target != cands[j].hit.Target {
			// a connection drawn at the same depth as an element sits on top
			return cands[i].hit.Target > cands[j].hit.Target
		}
		return cands[i].hit.ID > cands[j].hit.ID
	})
	for _, c := range cands {
		if c.test() {
			return c.hit
		}
	}
	return Hit{}
}

func hitElement(e Element, p Point) bool {
	switch e.Kind {
	case KindText, KindSticky, KindShape, KindImage, KindSection:
		return e.Bounds().Contains(p)
	}
	return false
}

// handleRect is the screen-space square of the bottom-right resize handle.
func handleRect(e Element, v Viewport) Rect {
	corner := v.BoardToScreen(Point{X: e.Position.X + e.Size.Width, Y: e.Position.Y + e.Size.Height})
	return Rect{X: corner.X - HandleSize/2, Y: corner.Y - HandleSize/2, W: HandleSize, H: HandleSize}
}
