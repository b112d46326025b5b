package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Whiteboard is one project's canvas. The view fields persist the last
// viewport so a reopened board shows the same region.
type Whiteboard struct {
	UUID      uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	ProjectID string    `gorm:"not null;uniqueIndex" json:"project_id"`
	Title     string    `gorm:"not null" json:"title"`
	ViewX     float64   `json:"view_x"`
	ViewY     float64   `json:"view_y"`
	ViewScale float64   `gorm:"default:1" json:"view_scale"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Elements    []Element    `gorm:"foreignKey:WhiteboardID" json:"elements"`
	Connections []Connection `gorm:"foreignKey:WhiteboardID" json:"connections"`
}

// Element is a persisted shape. Type is the variant discriminant.
type Element struct {
	UUID         uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	WhiteboardID uuid.UUID `gorm:"type:uuid;not null;index" json:"whiteboard_id"`
	Type         string    `gorm:"not null" json:"type"`
	ShapeType    string    `json:"shape_type,omitempty"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Width        float64   `gorm:"default:160" json:"width"`
	Height       float64   `gorm:"default:120" json:"height"`
	ZIndex       int       `gorm:"default:0" json:"z_index"`
	Rotation     float64   `json:"rotation"`
	Content      string    `gorm:"type:text" json:"content"`
	FontSize     float64   `gorm:"default:14" json:"font_size"`
	ImageURL     string    `json:"image_url,omitempty"`
	Fill         string    `json:"fill,omitempty"`
	Stroke       string    `json:"stroke,omitempty"`
	StrokeWidth  float64   `json:"stroke_width"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ElementPatch is the body of a partial element update. Only non-nil fields
// are written.
type ElementPatch struct {
	ShapeType   *string  `json:"shape_type,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	ZIndex      *int     `json:"z_index,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	Content     *string  `json:"content,omitempty"`
	FontSize    *float64 `json:"font_size,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
}

// Connection is a persisted arrow. A bound end stores the element id and
// port; a free end is kept in Points.
type Connection struct {
	UUID           uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	WhiteboardID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"whiteboard_id"`
	StartElementID *uuid.UUID     `gorm:"type:uuid;index" json:"start_element_id,omitempty"`
	StartPort      string         `json:"start_connection_point,omitempty"`
	EndElementID   *uuid.UUID     `gorm:"type:uuid;index" json:"end_element_id,omitempty"`
	EndPort        string         `json:"end_connection_point,omitempty"`
	Points         datatypes.JSON `json:"points,omitempty"`
	ZIndex         int            `json:"z_index"`
	Stroke         string         `gorm:"default:'#2b2d42'" json:"stroke"`
	StrokeWidth    float64        `gorm:"default:2" json:"stroke_width"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ConnectionPatch is the body of a connection update: its style only, the
// endpoints are fixed once drawn.
type ConnectionPatch struct {
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"stroke_width,omitempty"`
}

// FreePoints is the JSON stored in Connection.Points.
type FreePoints struct {
	Start *Point `json:"start,omitempty"`
	End   *Point `json:"end,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
