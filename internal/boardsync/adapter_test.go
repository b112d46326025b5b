package boardsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"whiteboard-studio/internal/canvas"
)

var errUnavailable = errors.New("store unavailable")

type fakeStore struct {
	mu          sync.Mutex
	calls       []string
	elements    map[string]canvas.Element
	connections map[string]canvas.Connection
	fail        map[string]error
	renameTo    string
	snapshot    Snapshot
	viewport    canvas.Viewport
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		elements:    make(map[string]canvas.Element),
		connections: make(map[string]canvas.Connection),
		fail:        make(map[string]error),
	}
}

func (s *fakeStore) record(op, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op+" "+id)
	return s.fail[op]
}

func (s *fakeStore) LoadBoard(ctx context.Context, projectID string) (Snapshot, error) {
	if err := s.record("load", projectID); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot, nil
}

func (s *fakeStore) UpdateBoard(ctx context.Context, boardID string, v canvas.Viewport) error {
	if err := s.record("viewport", boardID); err != nil {
		return err
	}
	s.viewport = v
	return nil
}

func (s *fakeStore) CreateElement(ctx context.Context, boardID string, e canvas.Element) (canvas.Element, error) {
	if err := s.record("create", e.ID); err != nil {
		return canvas.Element{}, err
	}
	if s.renameTo != "" {
		e.ID = s.renameTo
	}
	e.Stroke = "#server"
	s.elements[e.ID] = e
	return e, nil
}

func (s *fakeStore) UpdateElement(ctx context.Context, id string, p canvas.Patch) (canvas.Element, error) {
	if err := s.record("update", id); err != nil {
		return canvas.Element{}, err
	}
	e, ok := s.elements[id]
	if !ok {
		return canvas.Element{}, fmt.Errorf("element %s: not found", id)
	}
	e = p.Apply(e)
	s.elements[id] = e
	return e, nil
}

func (s *fakeStore) DeleteElement(ctx context.Context, id string) error {
	if err := s.record("delete", id); err != nil {
		return err
	}
	delete(s.elements, id)
	return nil
}

func (s *fakeStore) CreateConnection(ctx context.Context, boardID string, c canvas.Connection) (canvas.Connection, error) {
	if err := s.record("connect", c.ID); err != nil {
		return canvas.Connection{}, err
	}
	s.connections[c.ID] = c
	return c, nil
}

func (s *fakeStore) UpdateConnection(ctx context.Context, id string, p canvas.ConnectionPatch) (canvas.Connection, error) {
	if err := s.record("restyle", id); err != nil {
		return canvas.Connection{}, err
	}
	c, ok := s.connections[id]
	if !ok {
		return canvas.Connection{}, fmt.Errorf("connection %s: not found", id)
	}
	c = p.Apply(c)
	if c.StrokeWidth < 1 {
		c.StrokeWidth = 1
	}
	s.connections[id] = c
	return c, nil
}

func (s *fakeStore) DeleteConnection(ctx context.Context, id string) error {
	if err := s.record("disconnect", id); err != nil {
		return err
	}
	delete(s.connections, id)
	return nil
}

func (s *fakeStore) UploadImage(ctx context.Context, boardID, filename string, data []byte) (string, error) {
	if err := s.record("upload", filename); err != nil {
		return "", err
	}
	return "https://cdn.example/" + boardID + "/" + filename, nil
}

type harness struct {
	store  *fakeStore
	board  *canvas.Board
	engine *canvas.Engine
	sync   *Adapter
	errs   []error
}

func newHarness(t *testing.T, store *fakeStore) *harness {
	t.Helper()
	h := &harness{store: store, board: canvas.NewBoard()}
	h.sync = New(store, h.board, WithErrorHandler(func(err error) { h.errs = append(h.errs, err) }))
	if _, err := h.sync.Load(context.Background(), "project-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.engine = canvas.NewEngine(h.board, h.sync.Handle)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.sync.Start(ctx)
	return h
}

// flush waits for every queued call and applies the results.
func (h *harness) flush() int {
	h.sync.Close()
	return h.sync.Reconcile()
}

func (h *harness) calls() []string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return append([]string(nil), h.store.calls[1:]...)
}

func TestCreateInstallsCanonicalRecord(t *testing.T) {
	h := newHarness(t, newFakeStore())
	h.engine.SetTool(canvas.ToolRect)
	h.engine.PointerDown(100, 100, canvas.ButtonLeft)
	id := h.engine.Selected()

	local, _ := h.board.Get(id)
	if local.Stroke == "#server" {
		t.Fatal("canonical record applied before the store answered")
	}
	if n := h.flush(); n != 1 {
		t.Fatalf("Reconcile applied %d results", n)
	}
	got, ok := h.board.Get(id)
	if !ok || got.Stroke != "#server" {
		t.Errorf("element after reconcile = %+v, %v", got, ok)
	}
	if len(h.errs) != 0 {
		t.Errorf("errors = %v", h.errs)
	}
}

func TestCallsAreSentInOrderOncePerGesture(t *testing.T) {
	h := newHarness(t, newFakeStore())
	h.engine.SetTool(canvas.ToolRect)
	h.engine.PointerDown(0, 0, canvas.ButtonLeft)
	h.engine.PointerUp(0, 0)
	id := h.engine.Selected()

	h.engine.PointerDown(10, 10, canvas.ButtonLeft)
	for x := 11.0; x < 60; x++ {
		h.engine.PointerMove(x, 10)
	}
	h.engine.PointerUp(60, 10)
	h.engine.KeyDown(canvas.KeyDelete, false)
	h.flush()

	want := []string{"create " + id, "update " + id, "delete " + id}
	if diff := cmp.Diff(want, h.calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedCreateIsReverted(t *testing.T) {
	store := newFakeStore()
	store.fail["create"] = errUnavailable
	h := newHarness(t, store)

	h.engine.SetTool(canvas.ToolSticky)
	h.engine.PointerDown(0, 0, canvas.ButtonLeft)
	id := h.engine.Selected()
	h.engine.PointerDown(10, 10, canvas.ButtonLeft)
	h.engine.PointerMove(40, 40)
	h.engine.PointerUp(40, 40)
	h.flush()

	if _, ok := h.board.Get(id); ok {
		t.Error("element survived a failed create")
	}
	if len(h.errs) != 2 {
		t.Fatalf("errors = %v", h.errs)
	}
	if !errors.Is(h.errs[0], errUnavailable) {
		t.Errorf("first error = %v", h.errs[0])
	}
	if !errors.Is(h.errs[1], ErrNotPersisted) {
		t.Errorf("second error = %v", h.errs[1])
	}
}

func TestFailedMoveIsReverted(t *testing.T) {
	store := newFakeStore()
	store.snapshot = Snapshot{BoardID: "board-1", Elements: []canvas.Element{
		{ID: "a", Kind: canvas.KindShape, ShapeType: canvas.ShapeRect, Size: canvas.Size{Width: 120, Height: 80}, ZIndex: 1},
	}}
	store.fail["update"] = errUnavailable
	h := newHarness(t, store)

	h.engine.PointerDown(10, 10, canvas.ButtonLeft)
	h.engine.PointerMove(110, 60)
	h.engine.PointerUp(110, 60)
	if got, _ := h.board.Get("a"); got.Position != (canvas.Point{X: 100, Y: 50}) {
		t.Fatalf("optimistic position = %+v", got.Position)
	}
	h.flush()

	if got, _ := h.board.Get("a"); got.Position != (canvas.Point{}) {
		t.Errorf("position after failed move = %+v", got.Position)
	}
	if len(h.errs) != 1 || !errors.Is(h.errs[0], errUnavailable) {
		t.Errorf("errors = %v", h.errs)
	}
}

func TestFailedDeleteRestoresCascade(t *testing.T) {
	store := newFakeStore()
	store.snapshot = Snapshot{
		BoardID: "board-1",
		Elements: []canvas.Element{
			{ID: "a", Kind: canvas.KindShape, ShapeType: canvas.ShapeRect, Size: canvas.Size{Width: 120, Height: 80}, ZIndex: 1},
			{ID: "b", Kind: canvas.KindShape, ShapeType: canvas.ShapeRect, Position: canvas.Point{X: 300}, Size: canvas.Size{Width: 120, Height: 80}, ZIndex: 2},
		},
		Connections: []canvas.Connection{{
			ID:     "ab",
			Start:  canvas.Endpoint{ElementID: "a", Port: canvas.PortRight},
			End:    canvas.Endpoint{ElementID: "b", Port: canvas.PortLeft},
			ZIndex: 3,
		}},
	}
	store.fail["delete"] = errUnavailable
	h := newHarness(t, store)

	h.board.Select("a")
	h.engine.KeyDown(canvas.KeyDelete, false)
	if len(h.board.Connections()) != 0 {
		t.Fatal("cascade not applied locally")
	}
	h.flush()

	if _, ok := h.board.Get("a"); !ok {
		t.Error("element not restored")
	}
	if _, ok := h.board.GetConnection("ab"); !ok {
		t.Error("cascaded connection not restored")
	}
}

func TestFailedConnectIsReverted(t *testing.T) {
	store := newFakeStore()
	store.fail["connect"] = errUnavailable
	h := newHarness(t, store)

	a, _ := h.engine.Create(canvas.KindShape, canvas.ShapeRect, canvas.Point{})
	b, _ := h.engine.Create(canvas.KindShape, canvas.ShapeRect, canvas.Point{X: 300})
	h.engine.SetTool(canvas.ToolArrow)
	h.engine.PointerDown(119, 40, canvas.ButtonLeft)
	h.engine.PointerDown(301, 40, canvas.ButtonLeft)
	if len(h.board.Connections()) != 1 {
		t.Fatal("connection not created locally")
	}
	h.flush()

	if n := len(h.board.Connections()); n != 0 {
		t.Errorf("connections after failed connect = %d", n)
	}
	for _, id := range []string{a.ID, b.ID} {
		if _, ok := h.board.Get(id); !ok {
			t.Errorf("element %s lost", id)
		}
	}
}

func TestLoadDropsDanglingConnections(t *testing.T) {
	store := newFakeStore()
	store.snapshot = Snapshot{
		BoardID:  "board-1",
		Viewport: canvas.Viewport{PanX: 5, Zoom: 2},
		Elements: []canvas.Element{
			{ID: "a", Kind: canvas.KindSticky, Size: canvas.Size{Width: 10, Height: 10}, ZIndex: 1},
			{ID: "bad", Kind: "blob", ZIndex: 2},
		},
		Connections: []canvas.Connection{{
			ID:    "ghost",
			Start: canvas.Endpoint{ElementID: "a", Port: canvas.PortTop},
			End:   canvas.Endpoint{ElementID: "gone", Port: canvas.PortTop},
		}},
	}
	board := canvas.NewBoard()
	a := New(store, board)
	snap, err := a.Load(context.Background(), "project-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Viewport.Zoom != 2 || a.BoardID() != "board-1" {
		t.Errorf("snapshot = %+v", snap)
	}
	if n := len(board.Elements()); n != 1 {
		t.Errorf("elements = %d, want the invalid one skipped", n)
	}
	if got, _ := board.Get("a"); got.Size != (canvas.Size{Width: canvas.MinWidth, Height: canvas.MinHeight}) {
		t.Errorf("loaded size not floored: %+v", got.Size)
	}
	if n := len(board.Connections()); n != 0 {
		t.Errorf("connections = %d", n)
	}
}

func TestLoadError(t *testing.T) {
	store := newFakeStore()
	store.fail["load"] = errUnavailable
	if _, err := New(store, canvas.NewBoard()).Load(context.Background(), "p"); !errors.Is(err, errUnavailable) {
		t.Errorf("err = %v", err)
	}
}

func TestServerAssignedIDIsAdopted(t *testing.T) {
	store := newFakeStore()
	store.renameTo = "server-1"
	h := newHarness(t, store)

	el, _ := h.engine.Create(canvas.KindSticky, "", canvas.Point{})
	content := "renamed"
	h.engine.UpdateElement(el.ID, canvas.Patch{Content: &content})
	h.flush()

	if _, ok := h.board.Get(el.ID); ok {
		t.Error("local id still on the board")
	}
	got, ok := h.board.Get("server-1")
	if !ok || got.Content != "renamed" {
		t.Errorf("server element = %+v, %v", got, ok)
	}
	want := []string{"create " + el.ID, "update server-1"}
	if diff := cmp.Diff(want, h.calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveViewportAndUpload(t *testing.T) {
	store := newFakeStore()
	store.snapshot = Snapshot{BoardID: "board-1"}
	h := newHarness(t, store)

	url, err := h.sync.UploadImage(context.Background(), "cat.png", []byte("png"))
	if err != nil || url != "https://cdn.example/board-1/cat.png" {
		t.Errorf("UploadImage = %q, %v", url, err)
	}
	h.sync.SaveViewport(canvas.Viewport{PanX: 1, PanY: 2, Zoom: 1.5})
	h.flush()
	if store.viewport.Zoom != 1.5 {
		t.Errorf("saved viewport = %+v", store.viewport)
	}
}

// connected draws an arrow between two new rects and returns its id.
func connected(t *testing.T, h *harness) string {
	t.Helper()
	h.engine.Create(canvas.KindShape, canvas.ShapeRect, canvas.Point{})
	h.engine.Create(canvas.KindShape, canvas.ShapeRect, canvas.Point{X: 300})
	h.engine.SetTool(canvas.ToolArrow)
	h.engine.PointerDown(119, 40, canvas.ButtonLeft)
	h.engine.PointerDown(301, 40, canvas.ButtonLeft)
	conns := h.board.Connections()
	if len(conns) != 1 {
		t.Fatalf("connections = %d", len(conns))
	}
	return conns[0].ID
}

func TestRestyleInstallsCanonicalStyle(t *testing.T) {
	store := newFakeStore()
	h := newHarness(t, store)
	id := connected(t, h)

	red, width := "#ef4444", 0.5
	if err := h.engine.UpdateConnection(id, canvas.ConnectionPatch{Stroke: &red, StrokeWidth: &width}); err != nil {
		t.Fatal(err)
	}
	h.flush()

	if len(h.errs) != 0 {
		t.Fatalf("errors: %v", h.errs)
	}
	got, ok := h.board.GetConnection(id)
	if !ok || got.Stroke != red || got.StrokeWidth != 1 {
		t.Errorf("connection = %+v, %v", got, ok)
	}
	calls := h.calls()
	if last := calls[len(calls)-1]; last != "restyle "+id {
		t.Errorf("calls = %v", calls)
	}
}

func TestFailedRestyleIsReverted(t *testing.T) {
	store := newFakeStore()
	store.fail["restyle"] = errUnavailable
	h := newHarness(t, store)
	id := connected(t, h)

	red := "#ef4444"
	h.engine.UpdateConnection(id, canvas.ConnectionPatch{Stroke: &red})
	h.flush()

	got, _ := h.board.GetConnection(id)
	if got.Stroke != canvas.DefaultStroke {
		t.Errorf("stroke after failed restyle = %q", got.Stroke)
	}
	if len(h.errs) != 1 || !errors.Is(h.errs[0], errUnavailable) {
		t.Errorf("errors = %v", h.errs)
	}
}

func TestHandleAfterWorkerStops(t *testing.T) {
	board := canvas.NewBoard()
	a := New(newFakeStore(), board)
	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	cancel()

	el, _ := board.Create(canvas.KindSticky, "", canvas.Point{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < queueSize+10; i++ {
			a.Handle(canvas.Change{Kind: canvas.ChangeCreate, Element: el})
		}
		a.SaveViewport(canvas.NewViewport())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Handle blocked after the worker stopped")
	}

	a.Close()
	a.Handle(canvas.Change{Kind: canvas.ChangeCreate, Element: el})
	a.SaveViewport(canvas.NewViewport())
}
