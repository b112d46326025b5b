package boardsync

import (
	"context"
	"errors"

	"whiteboard-studio/internal/canvas"
)

// ErrNotPersisted is returned for operations on an element whose create never
// reached the store.
var ErrNotPersisted = errors.New("element was never persisted")

// Snapshot is a whole whiteboard as the store returns it.
type Snapshot struct {
	BoardID     string
	ProjectID   string
	Title       string
	Viewport    canvas.Viewport
	Elements    []canvas.Element
	Connections []canvas.Connection
}

// Store is the remote persistence the adapter writes through to. Create and
// update calls return the canonical record; deletes return nothing.
type Store interface {
	LoadBoard(ctx context.Context, projectID string) (Snapshot, error)
	UpdateBoard(ctx context.Context, boardID string, v canvas.Viewport) error
	CreateElement(ctx context.Context, boardID string, e canvas.Element) (canvas.Element, error)
	UpdateElement(ctx context.Context, id string, p canvas.Patch) (canvas.Element, error)
	DeleteElement(ctx context.Context, id string) error
	CreateConnection(ctx context.Context, boardID string, c canvas.Connection) (canvas.Connection, error)
	UpdateConnection(ctx context.Context, id string, p canvas.ConnectionPatch) (canvas.Connection, error)
	DeleteConnection(ctx context.Context, id string) error
	UploadImage(ctx context.Context, boardID, filename string, data []byte) (string, error)
}
