package canvas

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateRectangle(t *testing.T) {
	b := NewBoard()
	e, err := b.Create(KindShape, ShapeRect, Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID == "" {
		t.Error("created element has no id")
	}
	if diff := cmp.Diff(Point{X: 100, Y: 100}, e.Position); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Size{Width: 120, Height: 80}, e.Size); diff != "" {
		t.Errorf("size mismatch (-want +got):\n%s", diff)
	}
	if e.ZIndex != 1 {
		t.Errorf("zIndex = %d, want 1", e.ZIndex)
	}
	if b.Selected() != e.ID {
		t.Errorf("selected = %q, want the new element", b.Selected())
	}
}

func TestCreateDefaults(t *testing.T) {
	tests := []struct {
		kind  Kind
		shape ShapeType
		want  Size
	}{
		{KindShape, ShapeEllipse, Size{Width: 120, Height: 80}},
		{KindShape, ShapeDiamond, Size{Width: 120, Height: 80}},
		{KindSticky, "", Size{Width: 200, Height: 150}},
		{KindImage, "", Size{Width: 200, Height: 150}},
		{KindSection, "", Size{Width: 400, Height: 300}},
	}
	b := NewBoard()
	for _, tt := range tests {
		e, err := b.Create(tt.kind, tt.shape, Point{})
		if err != nil {
			t.Fatalf("Create(%s, %s): %v", tt.kind, tt.shape, err)
		}
		if e.Size != tt.want {
			t.Errorf("Create(%s, %s) size = %+v, want %+v", tt.kind, tt.shape, e.Size, tt.want)
		}
	}
	if _, err := b.Create("arrow", "", Point{}); err == nil {
		t.Error("Create with unknown kind succeeded")
	}
}

func TestZIndexIncreases(t *testing.T) {
	b := NewBoard()
	b.Add(Element{ID: "loaded", Kind: KindSticky, ZIndex: 41})
	prevMax := 41
	ids := make(map[string]bool)
	for i := 0; i < 20; i++ {
		kind := []Kind{KindShape, KindSticky, KindText}[i%3]
		e, err := b.Create(kind, "", Point{X: float64(i), Y: float64(i)})
		if err != nil {
			t.Fatal(err)
		}
		if e.ZIndex <= prevMax {
			t.Fatalf("zIndex %d not above previous max %d", e.ZIndex, prevMax)
		}
		if ids[e.ID] {
			t.Fatalf("id %s reused", e.ID)
		}
		ids[e.ID] = true
		prevMax = e.ZIndex
	}
}

func TestUpdateFloorsSize(t *testing.T) {
	b := NewBoard()
	e, _ := b.Create(KindShape, ShapeRect, Point{})
	for _, s := range []Size{{10, 10}, {-300, 500}, {49.9, 50}, {0, 0}} {
		s := s
		_, after, err := b.Update(e.ID, Patch{Size: &s})
		if err != nil {
			t.Fatal(err)
		}
		if after.Size.Width < MinWidth || after.Size.Height < MinHeight {
			t.Errorf("size %+v below minimum after update with %+v", after.Size, s)
		}
	}
	if _, _, err := b.Update("missing", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update on missing element: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCascadesConnections(t *testing.T) {
	b := NewBoard()
	a, _ := b.Create(KindShape, ShapeRect, Point{})
	c, _ := b.Create(KindSticky, "", Point{X: 300})
	d, _ := b.Create(KindText, "", Point{X: 600})
	ac, _ := b.Connect(Endpoint{ElementID: a.ID, Port: PortRight}, Endpoint{ElementID: c.ID, Port: PortLeft})
	da, _ := b.Connect(Endpoint{ElementID: d.ID, Port: PortTop}, Endpoint{ElementID: a.ID, Port: PortBottom})
	cd, _ := b.Connect(Endpoint{ElementID: c.ID, Port: PortRight}, Endpoint{ElementID: d.ID, Port: PortLeft})

	removed, cascade, ok := b.Delete(a.ID)
	if !ok || removed.ID != a.ID {
		t.Fatalf("Delete(%s) = %v, %v", a.ID, removed.ID, ok)
	}
	var gotIDs []string
	for _, c := range cascade {
		gotIDs = append(gotIDs, c.ID)
	}
	if diff := cmp.Diff([]string{ac.ID, da.ID}, gotIDs); diff != "" {
		t.Errorf("cascaded connections mismatch (-want +got):\n%s", diff)
	}
	for _, conn := range b.Connections() {
		for _, ep := range []Endpoint{conn.Start, conn.End} {
			if _, ok := b.Get(ep.ElementID); ep.Bound() && !ok {
				t.Errorf("connection %s references deleted element %s", conn.ID, ep.ElementID)
			}
		}
	}
	if _, ok := b.GetConnection(cd.ID); !ok {
		t.Error("unrelated connection was removed")
	}
	if _, _, ok := b.Delete(a.ID); ok {
		t.Error("second delete reported success")
	}
}

func TestBoundEndpointsFollowMoves(t *testing.T) {
	b := NewBoard()
	a, _ := b.Create(KindShape, ShapeRect, Point{X: 0, Y: 0})
	bb, _ := b.Create(KindShape, ShapeRect, Point{X: 300, Y: 0})
	c, err := b.Connect(Endpoint{ElementID: a.ID, Port: PortRight}, Endpoint{ElementID: bb.ID, Port: PortLeft})
	if err != nil {
		t.Fatal(err)
	}
	start, end, ok := b.ResolveEndpoints(c)
	if !ok {
		t.Fatal("endpoints did not resolve")
	}
	if start != (Point{X: 120, Y: 40}) || end != (Point{X: 300, Y: 40}) {
		t.Fatalf("endpoints = %+v -> %+v", start, end)
	}

	pos := a.Position.Add(Point{X: 50})
	b.Update(a.ID, Patch{Position: &pos})

	start2, end2, _ := b.ResolveEndpoints(c)
	if diff := cmp.Diff(Point{X: 50, Y: 0}, start2.Sub(start)); diff != "" {
		t.Errorf("start moved by (-want +got):\n%s", diff)
	}
	if end2 != end {
		t.Errorf("end moved from %+v to %+v", end, end2)
	}
}

func TestConnectValidation(t *testing.T) {
	b := NewBoard()
	a, _ := b.Create(KindShape, ShapeRect, Point{})
	if _, err := b.Connect(Endpoint{ElementID: a.ID, Port: PortTop}, Endpoint{ElementID: a.ID, Port: PortBottom}); !errors.Is(err, ErrSelfConnection) {
		t.Errorf("self connection: err = %v", err)
	}
	if _, err := b.Connect(Endpoint{ElementID: a.ID, Port: PortTop}, Endpoint{ElementID: "nope", Port: PortBottom}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing element: err = %v", err)
	}
	if _, err := b.Connect(Endpoint{ElementID: a.ID, Port: "middle"}, Endpoint{Point: Point{X: 5}}); err == nil {
		t.Error("unknown port accepted")
	}
	c, err := b.Connect(Endpoint{ElementID: a.ID, Port: PortTop}, Endpoint{Point: Point{X: 5, Y: -100}})
	if err != nil {
		t.Fatalf("half-bound connection: %v", err)
	}
	_, end, ok := b.ResolveEndpoints(c)
	if !ok || end != (Point{X: 5, Y: -100}) {
		t.Errorf("free end = %+v, %v", end, ok)
	}
}

func TestPortOffsets(t *testing.T) {
	e := Element{Position: Point{X: 10, Y: 20}, Size: Size{Width: 100, Height: 60}}
	want := map[Port]Point{
		PortTop:         {60, 20},
		PortTopRight:    {110, 20},
		PortRight:       {110, 50},
		PortBottomRight: {110, 80},
		PortBottom:      {60, 80},
		PortBottomLeft:  {10, 80},
		PortLeft:        {10, 50},
		PortTopLeft:     {10, 20},
	}
	for _, p := range Ports {
		got, err := PortPosition(e, p)
		if err != nil {
			t.Fatal(err)
		}
		if got != want[p] {
			t.Errorf("PortPosition(%s) = %+v, want %+v", p, got, want[p])
		}
		if n := NearestPort(e, got); n != p {
			t.Errorf("NearestPort at %s = %s", p, n)
		}
	}
}

func TestPruneDangling(t *testing.T) {
	b := NewBoard()
	a, _ := b.Create(KindShape, ShapeRect, Point{})
	b.AddConnection(Connection{ID: "ghost", ZIndex: 9,
		Start: Endpoint{ElementID: a.ID, Port: PortTop},
		End:   Endpoint{ElementID: "deleted-elsewhere", Port: PortLeft},
	})
	dropped := b.PruneDangling()
	if len(dropped) != 1 || dropped[0].ID != "ghost" {
		t.Fatalf("dropped = %+v", dropped)
	}
	if len(b.Connections()) != 0 {
		t.Error("dangling connection kept")
	}
}

func TestRekeyRewritesConnections(t *testing.T) {
	b := NewBoard()
	a, _ := b.Create(KindShape, ShapeRect, Point{})
	c, _ := b.Create(KindShape, ShapeRect, Point{X: 200})
	conn, _ := b.Connect(Endpoint{ElementID: a.ID, Port: PortRight}, Endpoint{ElementID: c.ID, Port: PortLeft})
	b.Select(a.ID)

	if !b.Rekey(a.ID, "server-a") {
		t.Fatal("Rekey failed")
	}
	if _, ok := b.Get(a.ID); ok {
		t.Error("old id still present")
	}
	got, _ := b.GetConnection(conn.ID)
	if got.Start.ElementID != "server-a" {
		t.Errorf("connection start = %q", got.Start.ElementID)
	}
	if b.Selected() != "server-a" {
		t.Errorf("selection = %q", b.Selected())
	}
	if !b.RekeyConnection(conn.ID, "server-c") {
		t.Fatal("RekeyConnection failed")
	}
	if _, ok := b.GetConnection("server-c"); !ok {
		t.Error("connection not found under new id")
	}
}

func TestElementsOrderedByZIndex(t *testing.T) {
	b := NewBoard()
	b.Add(Element{ID: "c", Kind: KindText, ZIndex: 3})
	b.Add(Element{ID: "a", Kind: KindText, ZIndex: 1})
	b.Add(Element{ID: "b", Kind: KindText, ZIndex: 2})
	var got []string
	for _, e := range b.Elements() {
		got = append(got, e.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimateTextSize(t *testing.T) {
	got := EstimateTextSize("a fairly long line of text\nshort", 20)
	want := Size{Width: 26*20*0.6 + 12, Height: 2*20*1.2 + 8}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("size mismatch (-want +got):\n%s", diff)
	}
	if s := EstimateTextSize("x", 10); s.Width < MinWidth || s.Height < MinHeight {
		t.Errorf("tiny text not floored: %+v", s)
	}
}
