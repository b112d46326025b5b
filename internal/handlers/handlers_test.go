package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"whiteboard-studio/internal/assistant"
	"whiteboard-studio/internal/models"
	"whiteboard-studio/internal/repo"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type memRepo struct {
	boards      map[uuid.UUID]*models.Whiteboard
	elements    map[uuid.UUID]*models.Element
	connections map[uuid.UUID]*models.Connection
}

func newMemRepo() *memRepo {
	return &memRepo{
		boards:      map[uuid.UUID]*models.Whiteboard{},
		elements:    map[uuid.UUID]*models.Element{},
		connections: map[uuid.UUID]*models.Connection{},
	}
}

func (m *memRepo) GetOrCreateByProject(projectID string) (*models.Whiteboard, error) {
	for _, b := range m.boards {
		if b.ProjectID == projectID {
			return m.GetWhiteboard(b.UUID)
		}
	}
	b := &models.Whiteboard{UUID: uuid.New(), ProjectID: projectID, Title: "Whiteboard", ViewScale: 1}
	m.boards[b.UUID] = b
	return m.GetWhiteboard(b.UUID)
}

func (m *memRepo) GetWhiteboard(id uuid.UUID) (*models.Whiteboard, error) {
	b, ok := m.boards[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := *b
	out.Elements, out.Connections = nil, nil
	for _, e := range m.elements {
		if e.WhiteboardID == id {
			out.Elements = append(out.Elements, *e)
		}
	}
	for _, c := range m.connections {
		if c.WhiteboardID == id {
			out.Connections = append(out.Connections, *c)
		}
	}
	return &out, nil
}

func (m *memRepo) UpdateWhiteboard(id uuid.UUID, fields map[string]interface{}) (*models.Whiteboard, error) {
	b, ok := m.boards[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if v, ok := fields["title"].(string); ok {
		b.Title = v
	}
	if v, ok := fields["view_x"].(float64); ok {
		b.ViewX = v
	}
	if v, ok := fields["view_scale"].(float64); ok {
		b.ViewScale = v
	}
	return m.GetWhiteboard(id)
}

func (m *memRepo) CreateElement(e *models.Element) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	e.FloorSize()
	cp := *e
	m.elements[e.UUID] = &cp
	return nil
}

func (m *memRepo) GetElement(id uuid.UUID) (*models.Element, error) {
	e, ok := m.elements[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) UpdateElement(id uuid.UUID, p models.ElementPatch) (*models.Element, error) {
	e, ok := m.elements[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Apply(e)
	return m.GetElement(id)
}

func (m *memRepo) DeleteElement(id uuid.UUID) error {
	if _, ok := m.elements[id]; !ok {
		return repo.ErrNotFound
	}
	for cid, c := range m.connections {
		if (c.StartElementID != nil && *c.StartElementID == id) || (c.EndElementID != nil && *c.EndElementID == id) {
			delete(m.connections, cid)
		}
	}
	delete(m.elements, id)
	return nil
}

func (m *memRepo) CreateConnection(c *models.Connection) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	cp := *c
	m.connections[c.UUID] = &cp
	return nil
}

func (m *memRepo) GetConnection(id uuid.UUID) (*models.Connection, error) {
	c, ok := m.connections[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) UpdateConnection(id uuid.UUID, p models.ConnectionPatch) (*models.Connection, error) {
	c, ok := m.connections[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Apply(c)
	return m.GetConnection(id)
}

func (m *memRepo) DeleteConnection(id uuid.UUID) error {
	if _, ok := m.connections[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.connections, id)
	return nil
}

type memImages struct {
	saved map[string][]byte
}

func (s *memImages) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = b
	return "/images/" + key, nil
}

type fakeGenerator struct {
	err error
}

func (g fakeGenerator) Brainstorm(_ context.Context, topic string) (models.Brainstorm, error) {
	if topic == "" {
		return models.Brainstorm{}, assistant.ErrEmptyTopic
	}
	return models.Brainstorm{Title: topic, Ideas: []string{"a", "b"}}, g.err
}

func (g fakeGenerator) Diagram(_ context.Context, topic string) (models.Diagram, error) {
	if topic == "" {
		return models.Diagram{}, assistant.ErrEmptyTopic
	}
	return models.Diagram{Title: topic}, g.err
}

func newTestApp(m *memRepo, gen Generator) *fiber.App {
	app := fiber.New()
	wb := NewWhiteboardHandler(m, m, m)
	img := NewImageHandler(&memImages{saved: map[string][]byte{}}, m)
	ai := NewAIHandler(gen)

	app.Get("/health", Health)
	app.Get("/whiteboards", wb.GetByProject)
	app.Get("/whiteboards/:boardId", wb.GetWhiteboard)
	app.Patch("/whiteboards/:boardId", wb.UpdateWhiteboard)
	app.Post("/whiteboards/:boardId/elements", wb.CreateElement)
	app.Patch("/whiteboard-elements/:elementId", wb.UpdateElement)
	app.Delete("/whiteboard-elements/:elementId", wb.DeleteElement)
	app.Post("/whiteboards/:boardId/connections", wb.CreateConnection)
	app.Patch("/whiteboard-connections/:connectionId", wb.UpdateConnection)
	app.Delete("/whiteboard-connections/:connectionId", wb.DeleteConnection)
	app.Post("/whiteboards/:boardId/images", img.Upload)
	app.Post("/whiteboards/:boardId/ai/brainstorm", ai.Brainstorm)
	app.Post("/whiteboards/:boardId/ai/diagram", ai.Diagram)
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type boardResp struct {
	Whiteboard models.Whiteboard `json:"whiteboard"`
}

type elementResp struct {
	Element models.Element `json:"element"`
}

func seedBoard(t *testing.T, app *fiber.App) models.Whiteboard {
	t.Helper()
	var br boardResp
	if code := do(t, app, http.MethodGet, "/whiteboards?project_id=p1", nil, &br); code != http.StatusOK {
		t.Fatalf("get-or-create status = %d", code)
	}
	return br.Whiteboard
}

func TestGetByProjectIsStable(t *testing.T) {
	app := newTestApp(newMemRepo(), fakeGenerator{})
	first := seedBoard(t, app)
	second := seedBoard(t, app)
	if first.UUID != second.UUID || first.ProjectID != "p1" {
		t.Errorf("boards = %s / %s", first.UUID, second.UUID)
	}
	if code := do(t, app, http.MethodGet, "/whiteboards", nil, nil); code != http.StatusBadRequest {
		t.Errorf("missing project_id status = %d", code)
	}
}

func TestElementLifecycle(t *testing.T) {
	m := newMemRepo()
	app := newTestApp(m, fakeGenerator{})
	board := seedBoard(t, app)
	base := "/whiteboards/" + board.UUID.String()

	proposed := uuid.New()
	var created elementResp
	code := do(t, app, http.MethodPost, base+"/elements", models.Element{
		UUID: proposed, Type: "shape", ShapeType: "rect", X: 10, Y: 20, Width: 20, Height: 120,
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if created.Element.UUID != proposed || created.Element.Width != 50 || created.Element.WhiteboardID != board.UUID {
		t.Errorf("created = %+v", created.Element)
	}

	x := 99.0
	var updated elementResp
	if code := do(t, app, http.MethodPatch, "/whiteboard-elements/"+proposed.String(), models.ElementPatch{X: &x}, &updated); code != http.StatusOK {
		t.Fatalf("update status = %d", code)
	}
	if updated.Element.X != 99 || updated.Element.Y != 20 {
		t.Errorf("partial update touched other fields: %+v", updated.Element)
	}

	if code := do(t, app, http.MethodDelete, "/whiteboard-elements/"+proposed.String(), nil, nil); code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
	if code := do(t, app, http.MethodDelete, "/whiteboard-elements/"+proposed.String(), nil, nil); code != http.StatusNotFound {
		t.Errorf("second delete status = %d", code)
	}
}

func TestCreateElementValidation(t *testing.T) {
	app := newTestApp(newMemRepo(), fakeGenerator{})
	board := seedBoard(t, app)
	base := "/whiteboards/" + board.UUID.String()

	cases := map[string]models.Element{
		"unknown kind": {Type: "blob"},
		"bad shape":    {Type: "shape", ShapeType: "hexagon"},
		"image no url": {Type: "image"},
	}
	for name, el := range cases {
		if code := do(t, app, http.MethodPost, base+"/elements", el, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, code)
		}
	}
	if code := do(t, app, http.MethodPost, "/whiteboards/"+uuid.NewString()+"/elements", models.Element{Type: "text"}, nil); code != http.StatusNotFound {
		t.Errorf("unknown board status = %d", code)
	}
	if code := do(t, app, http.MethodPost, "/whiteboards/nope/elements", models.Element{Type: "text"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad board id status = %d", code)
	}
}

func TestConnectionRules(t *testing.T) {
	m := newMemRepo()
	app := newTestApp(m, fakeGenerator{})
	board := seedBoard(t, app)
	other := &models.Whiteboard{UUID: uuid.New(), ProjectID: "p2"}
	m.boards[other.UUID] = other

	a := models.Element{UUID: uuid.New(), WhiteboardID: board.UUID, Type: "sticky", Width: 100, Height: 100}
	b := models.Element{UUID: uuid.New(), WhiteboardID: board.UUID, Type: "sticky", Width: 100, Height: 100}
	foreign := models.Element{UUID: uuid.New(), WhiteboardID: other.UUID, Type: "sticky", Width: 100, Height: 100}
	for _, el := range []models.Element{a, b, foreign} {
		el := el
		_ = m.CreateElement(&el)
	}
	base := "/whiteboards/" + board.UUID.String() + "/connections"

	var created struct {
		Connection models.Connection `json:"connection"`
	}
	ok := models.Connection{StartElementID: &a.UUID, StartPort: "right", EndElementID: &b.UUID, EndPort: "left"}
	if code := do(t, app, http.MethodPost, base, ok, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if created.Connection.UUID == uuid.Nil || created.Connection.WhiteboardID != board.UUID {
		t.Errorf("created = %+v", created.Connection)
	}

	bad := map[string]models.Connection{
		"foreign element": {StartElementID: &a.UUID, StartPort: "right", EndElementID: &foreign.UUID, EndPort: "left"},
		"unknown port":    {StartElementID: &a.UUID, StartPort: "middle", EndElementID: &b.UUID, EndPort: "left"},
		"self":            {StartElementID: &a.UUID, StartPort: "right", EndElementID: &a.UUID, EndPort: "left"},
	}
	for name, c := range bad {
		if code := do(t, app, http.MethodPost, base, c, nil); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, code)
		}
	}

	if code := do(t, app, http.MethodDelete, "/whiteboard-elements/"+a.UUID.String(), nil, nil); code != http.StatusOK {
		t.Fatalf("delete element status = %d", code)
	}
	if len(m.connections) != 0 {
		t.Errorf("connections left after cascade: %d", len(m.connections))
	}
}

func TestUpdateConnectionStyle(t *testing.T) {
	m := newMemRepo()
	app := newTestApp(m, fakeGenerator{})
	board := seedBoard(t, app)
	a, b := uuid.New(), uuid.New()
	conn := &models.Connection{WhiteboardID: board.UUID, StartElementID: &a, StartPort: "right", EndElementID: &b, EndPort: "left", Stroke: "#1f2933", StrokeWidth: 2}
	_ = m.CreateConnection(conn)
	path := "/whiteboard-connections/" + conn.UUID.String()

	var got struct {
		Connection models.Connection `json:"connection"`
	}
	body := map[string]interface{}{"stroke": "#e03131", "stroke_width": 0.1}
	if code := do(t, app, http.MethodPatch, path, body, &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got.Connection.Stroke != "#e03131" || got.Connection.StrokeWidth != 0.5 {
		t.Errorf("style = %q, %v", got.Connection.Stroke, got.Connection.StrokeWidth)
	}
	if got.Connection.StartPort != "right" || *got.Connection.EndElementID != b {
		t.Errorf("endpoints changed: %+v", got.Connection)
	}

	if code := do(t, app, http.MethodPatch, path, map[string]string{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d", code)
	}
	if code := do(t, app, http.MethodPatch, "/whiteboard-connections/"+uuid.NewString(), body, nil); code != http.StatusNotFound {
		t.Errorf("unknown connection status = %d", code)
	}
	if code := do(t, app, http.MethodPatch, "/whiteboard-connections/nope", body, nil); code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", code)
	}
}

func TestUpdateWhiteboardViewport(t *testing.T) {
	app := newTestApp(newMemRepo(), fakeGenerator{})
	board := seedBoard(t, app)

	var br boardResp
	body := map[string]float64{"view_x": -120, "view_scale": 9}
	if code := do(t, app, http.MethodPatch, "/whiteboards/"+board.UUID.String(), body, &br); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if br.Whiteboard.ViewX != -120 || br.Whiteboard.ViewScale != 3 {
		t.Errorf("viewport = %v, %v", br.Whiteboard.ViewX, br.Whiteboard.ViewScale)
	}
	if code := do(t, app, http.MethodPatch, "/whiteboards/"+board.UUID.String(), map[string]string{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d", code)
	}
}

func TestImageUpload(t *testing.T) {
	app := newTestApp(newMemRepo(), fakeGenerator{})
	board := seedBoard(t, app)

	upload := func(name string) (int, map[string]string) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte("\x89PNG fake"))
		_ = w.Close()
		req := httptest.NewRequest(http.MethodPost, "/whiteboards/"+board.UUID.String()+"/images", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		out := map[string]string{}
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return resp.StatusCode, out
	}

	code, out := upload("photo.PNG")
	if code != http.StatusCreated || out["url"] == "" {
		t.Errorf("upload = %d %v", code, out)
	}
	if code, _ := upload("notes.txt"); code != http.StatusBadRequest {
		t.Errorf("text upload status = %d", code)
	}
}

func TestAIHandlers(t *testing.T) {
	app := newTestApp(newMemRepo(), fakeGenerator{})
	path := "/whiteboards/" + uuid.NewString() + "/ai/"

	var bs models.Brainstorm
	if code := do(t, app, http.MethodPost, path+"brainstorm", models.TopicRequest{Topic: "launch"}, &bs); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if diff := cmp.Diff(models.Brainstorm{Title: "launch", Ideas: []string{"a", "b"}}, bs); diff != "" {
		t.Errorf("brainstorm (-want +got):\n%s", diff)
	}
	if code := do(t, app, http.MethodPost, path+"diagram", models.TopicRequest{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty topic status = %d", code)
	}

	failing := newTestApp(newMemRepo(), fakeGenerator{err: errors.New("quota")})
	if code := do(t, failing, http.MethodPost, path+"diagram", models.TopicRequest{Topic: "x"}, nil); code != http.StatusInternalServerError {
		t.Errorf("failing generator status = %d", code)
	}
}

func TestHealth(t *testing.T) {
	var out map[string]string
	if code := do(t, newTestApp(newMemRepo(), fakeGenerator{}), http.MethodGet, "/health", nil, &out); code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("health = %d %v", code, out)
	}
}
