package canvas

import (
	"fmt"
	"math"
)

const (
	brainstormCols    = 4
	brainstormItem    = 200.0
	brainstormGap     = 20.0
	brainstormPadding = 50.0

	diagramNodeW   = 200.0
	diagramNodeH   = 100.0
	diagramPadding = 60.0
)

// DiagramNode is one box of a generated diagram. X and Y are offsets from the
// insertion point; Next lists the ids of the nodes it points to.
type DiagramNode struct {
	ID   string   `json:"id"`
	Text string   `json:"text"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Next []string `json:"next,omitempty"`
}

// InsertBrainstorm lays ideas out as a grid of stickies inside a titled
// section centered on center. The section is created first so it paints
// beneath the stickies.
func (b *Board) InsertBrainstorm(center Point, title string, ideas []string) ([]Element, error) {
	if len(ideas) == 0 {
		return nil, fmt.Errorf("brainstorm: no ideas")
	}
	if title == "" {
		title = "Brainstorming"
	}
	rows := int(math.Ceil(float64(len(ideas)) / brainstormCols))
	w := brainstormCols*brainstormItem + (brainstormCols-1)*brainstormGap + 2*brainstormPadding
	h := float64(rows)*brainstormItem + float64(rows-1)*brainstormGap + 2*brainstormPadding
	origin := Point{X: center.X - w/2, Y: center.Y - h/2}

	section, err := b.insert(KindSection, origin, Size{Width: w, Height: h}, title, "")
	if err != nil {
		return nil, err
	}
	out := []Element{section}
	for i, idea := range ideas {
		at := Point{
			X: origin.X + brainstormPadding + float64(i%brainstormCols)*(brainstormItem+brainstormGap),
			Y: origin.Y + brainstormPadding + float64(i/brainstormCols)*(brainstormItem+brainstormGap),
		}
		el, err := b.insert(KindSticky, at, Size{Width: brainstormItem, Height: brainstormItem}, idea, stickyColor(i))
		if err != nil {
			return out, err
		}
		out = append(out, el)
	}
	return out, nil
}

// InsertDiagram places one sticky per node relative to center, wraps them in
// a titled section and connects each node to its successors through the
// closest pair of cardinal ports. Links to unknown node ids are skipped.
func (b *Board) InsertDiagram(center Point, title string, nodes []DiagramNode) ([]Element, []Connection, error) {
	if len(nodes) == 0 {
		return nil, nil, fmt.Errorf("diagram: no nodes")
	}
	if title == "" {
		title = "Diagram"
	}
	var bounds Rect
	for i, n := range nodes {
		r := Rect{X: center.X + n.X, Y: center.Y + n.Y, W: diagramNodeW, H: diagramNodeH}
		if i == 0 {
			bounds = r
			continue
		}
		bounds = bounds.Union(r)
	}
	section, err := b.insert(KindSection,
		Point{X: bounds.X - diagramPadding, Y: bounds.Y - diagramPadding},
		Size{Width: bounds.W + 2*diagramPadding, Height: bounds.H + 2*diagramPadding},
		title, "")
	if err != nil {
		return nil, nil, err
	}

	els := []Element{section}
	ids := make(map[string]Element, len(nodes))
	for i, n := range nodes {
		text := n.Text
		if text == "" {
			text = fmt.Sprintf("Step %d", i+1)
		}
		el, err := b.insert(KindSticky, Point{X: center.X + n.X, Y: center.Y + n.Y},
			Size{Width: diagramNodeW, Height: diagramNodeH}, text, stickyColor(i))
		if err != nil {
			return els, nil, err
		}
		els = append(els, el)
		if n.ID != "" {
			ids[n.ID] = el
		}
	}

	var conns []Connection
	for _, n := range nodes {
		from, ok := ids[n.ID]
		if !ok {
			continue
		}
		for _, next := range n.Next {
			to, ok := ids[next]
			if !ok || to.ID == from.ID {
				continue
			}
			sp, ep := closestPorts(from, to)
			c, err := b.Connect(Endpoint{ElementID: from.ID, Port: sp}, Endpoint{ElementID: to.ID, Port: ep})
			if err != nil {
				return els, conns, err
			}
			conns = append(conns, c)
		}
	}
	return els, conns, nil
}

func (b *Board) insert(kind Kind, at Point, size Size, content, fill string) (Element, error) {
	el, err := defaults(kind, "")
	if err != nil {
		return Element{}, err
	}
	el.ID = b.newID()
	el.Position = at
	el.Size = floorSize(size)
	el.Content = content
	if fill != "" {
		el.Fill = fill
	}
	el.ZIndex = b.NextZIndex()
	b.elements[el.ID] = &el
	return el, nil
}

func stickyColor(i int) string {
	return Palette[2+i%4]
}

// closestPorts picks the cardinal port pair with the shortest gap.
func closestPorts(a, b Element) (Port, Port) {
	bestA, bestB := PortRight, PortLeft
	best := math.Inf(1)
	for _, pa := range CardinalPorts {
		posA, _ := PortPosition(a, pa)
		for _, pb := range CardinalPorts {
			posB, _ := PortPosition(b, pb)
			if d := posA.Dist(posB); d < best {
				best, bestA, bestB = d, pa, pb
			}
		}
	}
	return bestA, bestB
}

// InsertBrainstorm adds a brainstorm grid at the middle of the current view
// and reports every new element.
func (e *Engine) InsertBrainstorm(viewW, viewH float64, title string, ideas []string) error {
	els, err := e.board.InsertBrainstorm(e.Center(viewW, viewH), title, ideas)
	for _, el := range els {
		e.emit(Change{Kind: ChangeCreate, Element: el})
	}
	return err
}

// InsertDiagram adds a diagram at the middle of the current view and reports
// every new element and connection.
func (e *Engine) InsertDiagram(viewW, viewH float64, title string, nodes []DiagramNode) error {
	els, conns, err := e.board.InsertDiagram(e.Center(viewW, viewH), title, nodes)
	for _, el := range els {
		e.emit(Change{Kind: ChangeCreate, Element: el})
	}
	for _, c := range conns {
		e.emit(Change{Kind: ChangeConnect, Connection: c})
	}
	return err
}
