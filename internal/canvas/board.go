package canvas

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("element not found")
	ErrSelfConnection = errors.New("cannot connect an element to itself")
)

// Board is the shape model: every element and connection of one whiteboard,
// keyed by id. Paint order comes from ZIndex, never from insertion order.
//
// A Board is owned by a single goroutine and is not safe for concurrent use.
type Board struct {
	elements    map[string]*Element
	connections map[string]*Connection
	selected    string

	newID func() string
}

func NewBoard() *Board {
	return &Board{
		elements:    make(map[string]*Element),
		connections: make(map[string]*Connection),
		newID:       uuid.NewString,
	}
}

// Create adds a new element of the given variant with its top-left corner at
// the board point at. The element gets a fresh id, the variant's default size
// and colours, and a ZIndex above everything already on the board. It becomes
// the selection.
func (b *Board) Create(kind Kind, shape ShapeType, at Point) (Element, error) {
	e, err := defaults(kind, shape)
	if err != nil {
		return Element{}, err
	}
	e.ID = b.newID()
	e.Position = at
	e.ZIndex = b.NextZIndex()
	b.elements[e.ID] = &e
	b.selected = e.ID
	return e, nil
}

// Add inserts e as is, replacing any element with the same id. It is used for
// loading and for restoring rolled-back deletes.
func (b *Board) Add(e Element) {
	e.Size = floorSize(e.Size)
	b.elements[e.ID] = &e
}

func (b *Board) Get(id string) (Element, bool) {
	e, ok := b.elements[id]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Update merges p into the element and returns its state before and after.
func (b *Board) Update(id string, p Patch) (before, after Element, err error) {
	e, ok := b.elements[id]
	if !ok {
		return Element{}, Element{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	before = *e
	p.apply(e)
	return before, *e, nil
}

// Delete removes the element and every connection bound to it. It returns the
// removed element and the cascaded connections.
func (b *Board) Delete(id string) (Element, []Connection, bool) {
	e, ok := b.elements[id]
	if !ok {
		return Element{}, nil, false
	}
	delete(b.elements, id)
	var removed []Connection
	for cid, c := range b.connections {
		if c.References(id) {
			removed = append(removed, *c)
			delete(b.connections, cid)
			if b.selected == cid {
				b.selected = ""
			}
		}
	}
	sortConnections(removed)
	if b.selected == id {
		b.selected = ""
	}
	return *e, removed, true
}

// Connect creates a connection between two endpoints. Bound endpoints must
// reference existing, distinct elements.
func (b *Board) Connect(start, end Endpoint) (Connection, error) {
	for _, ep := range []Endpoint{start, end} {
		if !ep.Bound() {
			continue
		}
		if _, ok := b.elements[ep.ElementID]; !ok {
			return Connection{}, fmt.Errorf("connect %s: %w", ep.ElementID, ErrNotFound)
		}
		if _, err := ep.Port.Offset(Size{}); err != nil {
			return Connection{}, err
		}
	}
	if start.Bound() && start.ElementID == end.ElementID {
		return Connection{}, ErrSelfConnection
	}
	c := Connection{
		ID:          b.newID(),
		Start:       start,
		End:         end,
		ZIndex:      b.NextZIndex(),
		Stroke:      DefaultStroke,
		StrokeWidth: DefaultStrokeWidth,
	}
	b.connections[c.ID] = &c
	return c, nil
}

// AddConnection inserts c as is.
func (b *Board) AddConnection(c Connection) {
	b.connections[c.ID] = &c
}

func (b *Board) GetConnection(id string) (Connection, bool) {
	c, ok := b.connections[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// UpdateConnection restyles a connection and returns its state around the
// change.
func (b *Board) UpdateConnection(id string, p ConnectionPatch) (before, after Connection, err error) {
	c, ok := b.connections[id]
	if !ok {
		return Connection{}, Connection{}, fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}
	before = *c
	*c = p.Apply(*c)
	return before, *c, nil
}

// Disconnect removes a connection.
func (b *Board) Disconnect(id string) (Connection, bool) {
	c, ok := b.connections[id]
	if !ok {
		return Connection{}, false
	}
	delete(b.connections, id)
	if b.selected == id {
		b.selected = ""
	}
	return *c, true
}

// ResolveEndpoints returns the board coordinates of both ends of c. Bound ends
// are computed from the referenced element's current position and size, so the
// result must not be cached across a move. ok is false when a bound end refers
// to an element that no longer exists.
func (b *Board) ResolveEndpoints(c Connection) (start, end Point, ok bool) {
	start, ok = b.resolve(c.Start)
	if !ok {
		return Point{}, Point{}, false
	}
	end, ok = b.resolve(c.End)
	if !ok {
		return Point{}, Point{}, false
	}
	return start, end, true
}

func (b *Board) resolve(ep Endpoint) (Point, bool) {
	if !ep.Bound() {
		return ep.Point, true
	}
	e, ok := b.elements[ep.ElementID]
	if !ok {
		return Point{}, false
	}
	p, err := PortPosition(*e, ep.Port)
	if err != nil {
		return Point{}, false
	}
	return p, true
}

// PruneDangling drops connections whose bound ends no longer resolve.
func (b *Board) PruneDangling() []Connection {
	var dropped []Connection
	for id, c := range b.connections {
		if _, _, ok := b.ResolveEndpoints(*c); !ok {
			dropped = append(dropped, *c)
			delete(b.connections, id)
		}
	}
	sortConnections(dropped)
	return dropped
}

// NextZIndex is one above the highest ZIndex of any element or connection.
func (b *Board) NextZIndex() int {
	max := 0
	for _, e := range b.elements {
		if e.ZIndex > max {
			max = e.ZIndex
		}
	}
	for _, c := range b.connections {
		if c.ZIndex > max {
			max = c.ZIndex
		}
	}
	return max + 1
}

// Elements returns a copy of every element in ascending paint order.
func (b *Board) Elements() []Element {
	out := make([]Element, 0, len(b.elements))
	for _, e := range b.elements {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Connections returns a copy of every connection in ascending paint order.
func (b *Board) Connections() []Connection {
	out := make([]Connection, 0, len(b.connections))
	for _, c := range b.connections {
		out = append(out, *c)
	}
	sortConnections(out)
	return out
}

func sortConnections(cs []Connection) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].ZIndex != cs[j].ZIndex {
			return cs[i].ZIndex < cs[j].ZIndex
		}
		return cs[i].ID < cs[j].ID
	})
}

// Rekey moves an element from oldID to newID and rewrites every connection
// bound to it. It is used when the store assigns a different id than the one
// the element was created with.
func (b *Board) Rekey(oldID, newID string) bool {
	e, ok := b.elements[oldID]
	if !ok || oldID == newID {
		return ok
	}
	delete(b.elements, oldID)
	e.ID = newID
	b.elements[newID] = e
	for _, c := range b.connections {
		if c.Start.ElementID == oldID {
			c.Start.ElementID = newID
		}
		if c.End.ElementID == oldID {
			c.End.ElementID = newID
		}
	}
	if b.selected == oldID {
		b.selected = newID
	}
	return true
}

// RekeyConnection moves a connection from oldID to newID.
func (b *Board) RekeyConnection(oldID, newID string) bool {
	c, ok := b.connections[oldID]
	if !ok || oldID == newID {
		return ok
	}
	delete(b.connections, oldID)
	c.ID = newID
	b.connections[newID] = c
	if b.selected == oldID {
		b.selected = newID
	}
	return true
}

// Bounds is the smallest rect covering every element and every resolvable
// connection. ok is false for an empty board.
func (b *Board) Bounds() (r Rect, ok bool) {
	for _, e := range b.elements {
		if !ok {
			r, ok = e.Bounds(), true
			continue
		}
		r = r.Union(e.Bounds())
	}
	for _, c := range b.connections {
		s, e, resolved := b.ResolveEndpoints(*c)
		if !resolved {
			continue
		}
		seg := Rect{X: s.X, Y: s.Y}.Union(Rect{X: e.X, Y: e.Y})
		if !ok {
			r, ok = seg, true
			continue
		}
		r = r.Union(seg)
	}
	return r, ok
}

func (b *Board) Selected() string { return b.selected }

// Select marks id as the selection. An unknown id clears it.
func (b *Board) Select(id string) {
	if _, ok := b.elements[id]; ok {
		b.selected = id
		return
	}
	if _, ok := b.connections[id]; ok {
		b.selected = id
		return
	}
	b.selected = ""
}

func (b *Board) ClearSelection() { b.selected = "" }

// Reset drops everything on the board.
func (b *Board) Reset() {
	b.elements = make(map[string]*Element)
	b.connections = make(map[string]*Connection)
	b.selected = ""
}
