package models

import (
	"math"
	"strings"

	"whiteboard-studio/internal/canvas"
)

// TopicRequest is the body of both AI endpoints.
type TopicRequest struct {
	Topic string `json:"topic"`
}

type Brainstorm struct {
	Title string   `json:"title"`
	Ideas []string `json:"ideas"`
}

const (
	DiagramSticky = "STICKY"
	DiagramArrow  = "ARROW"
)

// DiagramElement is either a node (STICKY) or an edge (ARROW) as returned by
// the model.
type DiagramElement struct {
	Type        string  `json:"type"`
	ID          string  `json:"id,omitempty"`
	Text        string  `json:"text,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	ConnectFrom string  `json:"connectFrom,omitempty"`
	ConnectTo   string  `json:"connectTo,omitempty"`
}

type Diagram struct {
	Title    string           `json:"title"`
	Elements []DiagramElement `json:"elements"`
}

// Nodes turns the flat element list into canvas nodes. Positions are shifted
// so the top-left node sits at the origin; arrows become Next links on their
// source node.
func (d Diagram) Nodes() []canvas.DiagramNode {
	var nodes []canvas.DiagramNode
	index := map[string]int{}
	minX, minY := math.Inf(1), math.Inf(1)
	for _, el := range d.Elements {
		if !strings.EqualFold(el.Type, DiagramSticky) {
			continue
		}
		if el.ID != "" {
			index[el.ID] = len(nodes)
		}
		nodes = append(nodes, canvas.DiagramNode{ID: el.ID, Text: el.Text, X: el.X, Y: el.Y})
		minX = math.Min(minX, el.X)
		minY = math.Min(minY, el.Y)
	}
	for i := range nodes {
		nodes[i].X -= minX
		nodes[i].Y -= minY
	}
	for _, el := range d.Elements {
		if !strings.EqualFold(el.Type, DiagramArrow) {
			continue
		}
		if i, ok := index[el.ConnectFrom]; ok && el.ConnectTo != "" {
			nodes[i].Next = append(nodes[i].Next, el.ConnectTo)
		}
	}
	return nodes
}
