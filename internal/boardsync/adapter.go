package boardsync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"whiteboard-studio/internal/canvas"
)

const (
	queueSize   = 1024
	callTimeout = 15 * time.Second
)

type job struct {
	change   canvas.Change
	viewport *canvas.Viewport
}

type result struct {
	job        job
	element    canvas.Element
	connection canvas.Connection
	err        error
}

// Adapter persists board changes through a Store. Changes are applied to the
// board by the engine before they reach the adapter; the adapter queues them
// and a single worker goroutine sends them to the store in order. Results are
// handed back to the board's goroutine through Reconcile, which installs the
// canonical records or undoes a change the store refused.
type Adapter struct {
	store   Store
	board   *canvas.Board
	boardID string
	onError func(error)

	jobs   chan job
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool

	mu      sync.Mutex
	results []result
	notify  chan struct{}

	// worker only
	ids map[string]string

	// board goroutine only
	inflight map[string]int
	alias    map[string]string
}

type Option func(*Adapter)

// WithErrorHandler registers the callback that is told about every failed
// remote call, after the change has been reverted.
func WithErrorHandler(fn func(error)) Option {
	return func(a *Adapter) { a.onError = fn }
}

func New(store Store, board *canvas.Board, opts ...Option) *Adapter {
	a := &Adapter{
		store:    store,
		board:    board,
		jobs:     make(chan job, queueSize),
		done:     make(chan struct{}),
		notify:   make(chan struct{}, 1),
		ids:      make(map[string]string),
		inflight: make(map[string]int),
		alias:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load fetches the project's whiteboard and replaces the board's contents with
// it. It must be called before Start. Connections that reference missing
// elements are dropped.
func (a *Adapter) Load(ctx context.Context, projectID string) (Snapshot, error) {
	snap, err := a.store.LoadBoard(ctx, projectID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load board for project %s: %w", projectID, err)
	}
	a.boardID = snap.BoardID
	a.board.Reset()
	for _, e := range snap.Elements {
		if err := e.Validate(); err != nil {
			log.Printf("boardsync: skipping element %s: %v", e.ID, err)
			continue
		}
		a.board.Add(e)
		a.ids[e.ID] = e.ID
	}
	for _, c := range snap.Connections {
		a.board.AddConnection(c)
		a.ids[c.ID] = c.ID
	}
	for _, c := range a.board.PruneDangling() {
		log.Printf("boardsync: dropping connection %s with a missing element", c.ID)
	}
	return snap, nil
}

func (a *Adapter) BoardID() string { return a.boardID }

// Start runs the worker until ctx is cancelled or Close is called.
func (a *Adapter) Start(ctx context.Context) {
	go a.run(ctx)
}

// Close stops accepting changes and waits for queued ones to be sent. Changes
// handed to the adapter afterwards are dropped.
func (a *Adapter) Close() {
	a.once.Do(func() {
		a.closed.Store(true)
		close(a.jobs)
	})
	<-a.done
}

// enqueue hands j to the worker. It reports false once the adapter is closed
// or the worker has stopped.
func (a *Adapter) enqueue(j job) bool {
	if a.closed.Load() {
		return false
	}
	select {
	case a.jobs <- j:
		return true
	case <-a.done:
		return false
	}
}

// Handle queues a change. It has the canvas.ChangeFunc signature so it can be
// registered on the engine directly.
func (a *Adapter) Handle(c canvas.Change) {
	j := job{change: c}
	if !a.enqueue(j) {
		log.Printf("boardsync: %s not sent, adapter stopped", describe(j))
		return
	}
	a.track(c, 1)
}

// SaveViewport queues a write of the board's persisted viewport.
func (a *Adapter) SaveViewport(v canvas.Viewport) {
	if !a.enqueue(job{viewport: &v}) {
		log.Printf("boardsync: viewport not saved, adapter stopped")
	}
}

// UploadImage stores an image and returns the URL to put on an image element.
func (a *Adapter) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	url, err := a.store.UploadImage(ctx, a.boardID, filename, data)
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", filename, err)
	}
	return url, nil
}

// Notify is signalled whenever results are waiting for Reconcile.
func (a *Adapter) Notify() <-chan struct{} { return a.notify }

func (a *Adapter) run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-a.jobs:
			if !ok {
				return
			}
			r := a.exec(ctx, j)
			if r.err != nil {
				log.Printf("boardsync: %s failed: %v", describe(j), r.err)
			}
			a.mu.Lock()
			a.results = append(a.results, r)
			a.mu.Unlock()
			select {
			case a.notify <- struct{}{}:
			default:
			}
		}
	}
}

func (a *Adapter) exec(ctx context.Context, j job) result {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	r := result{job: j}
	if j.viewport != nil {
		r.err = a.store.UpdateBoard(ctx, a.boardID, *j.viewport)
		return r
	}

	c := j.change
	switch c.Kind {
	case canvas.ChangeCreate:
		el := c.Element
		r.element, r.err = a.store.CreateElement(ctx, a.boardID, el)
		if r.err == nil {
			a.ids[el.ID] = r.element.ID
			a.ids[r.element.ID] = r.element.ID
		}
	case canvas.ChangeUpdate, canvas.ChangeMove:
		id, err := a.serverID(c.Element.ID)
		if err != nil {
			r.err = err
			return r
		}
		r.element, r.err = a.store.UpdateElement(ctx, id, c.Patch)
	case canvas.ChangeDelete:
		id, err := a.serverID(c.Element.ID)
		if err != nil {
			r.err = err
			return r
		}
		r.err = a.store.DeleteElement(ctx, id)
	case canvas.ChangeConnect:
		conn := c.Connection
		for _, ep := range []*canvas.Endpoint{&conn.Start, &conn.End} {
			if !ep.Bound() {
				continue
			}
			id, err := a.serverID(ep.ElementID)
			if err != nil {
				r.err = err
				return r
			}
			ep.ElementID = id
		}
		r.connection, r.err = a.store.CreateConnection(ctx, a.boardID, conn)
		if r.err == nil {
			a.ids[c.Connection.ID] = r.connection.ID
			a.ids[r.connection.ID] = r.connection.ID
		}
	case canvas.ChangeDisconnect:
		id, err := a.serverID(c.Connection.ID)
		if err != nil {
			r.err = err
			return r
		}
		r.err = a.store.DeleteConnection(ctx, id)
	case canvas.ChangeRestyle:
		id, err := a.serverID(c.Connection.ID)
		if err != nil {
			r.err = err
			return r
		}
		r.connection, r.err = a.store.UpdateConnection(ctx, id, c.ConnectionPatch)
	default:
		r.err = fmt.Errorf("unsupported change kind: %q", c.Kind)
	}
	return r
}

func (a *Adapter) serverID(local string) (string, error) {
	id, ok := a.ids[local]
	if !ok {
		return "", fmt.Errorf("%s: %w", local, ErrNotPersisted)
	}
	return id, nil
}

// Reconcile applies every result the worker has produced so far and returns
// how many it applied. It must run on the goroutine that owns the board.
func (a *Adapter) Reconcile() int {
	a.mu.Lock()
	rs := a.results
	a.results = nil
	a.mu.Unlock()

	for _, r := range rs {
		if r.job.viewport != nil {
			a.fail(r)
			continue
		}
		a.track(r.job.change, -1)
		if r.err != nil {
			a.revert(r.job.change)
			a.fail(r)
			continue
		}
		a.apply(r)
	}
	return len(rs)
}

func (a *Adapter) fail(r result) {
	if r.err == nil || a.onError == nil {
		return
	}
	a.onError(fmt.Errorf("%s: %w", describe(r.job), r.err))
}

// apply installs the canonical record, unless a later change to the same
// item is still queued; its own result will carry the newer state.
func (a *Adapter) apply(r result) {
	c := r.job.change
	switch c.Kind {
	case canvas.ChangeCreate, canvas.ChangeUpdate, canvas.ChangeMove:
		local := a.current(c.Element.ID)
		if r.element.ID != "" && r.element.ID != local {
			a.board.Rekey(local, r.element.ID)
			a.alias[c.Element.ID] = r.element.ID
			local = r.element.ID
		}
		if a.inflight[c.Element.ID] > 0 {
			return
		}
		if _, ok := a.board.Get(local); !ok {
			return
		}
		el := r.element
		el.ID = local
		a.board.Add(el)
	case canvas.ChangeConnect:
		local := a.current(c.Connection.ID)
		if r.connection.ID != "" && r.connection.ID != local {
			a.board.RekeyConnection(local, r.connection.ID)
			a.alias[c.Connection.ID] = r.connection.ID
		}
	case canvas.ChangeRestyle:
		if a.inflight[c.Connection.ID] > 0 {
			return
		}
		// endpoints stay as the board has them; only the style is canonical
		local := a.current(c.Connection.ID)
		if conn, ok := a.board.GetConnection(local); ok {
			conn.Stroke, conn.StrokeWidth = r.connection.Stroke, r.connection.StrokeWidth
			a.board.AddConnection(conn)
		}
	}
}

// revert undoes a change the store refused.
func (a *Adapter) revert(c canvas.Change) {
	switch c.Kind {
	case canvas.ChangeCreate:
		a.board.Delete(a.current(c.Element.ID))
	case canvas.ChangeUpdate, canvas.ChangeMove:
		a.board.Update(a.current(c.Element.ID), canvas.Diff(c.Element, c.Before))
	case canvas.ChangeDelete:
		a.board.Add(c.Element)
		for _, conn := range c.Cascade {
			a.board.AddConnection(conn)
		}
	case canvas.ChangeConnect:
		a.board.Disconnect(a.current(c.Connection.ID))
	case canvas.ChangeDisconnect:
		a.board.AddConnection(c.Connection)
	case canvas.ChangeRestyle:
		a.board.UpdateConnection(a.current(c.Connection.ID), canvas.DiffConnection(c.Connection, c.BeforeConnection))
	}
}

func (a *Adapter) track(c canvas.Change, delta int) {
	id := c.Element.ID
	if c.OnConnection() {
		id = c.Connection.ID
	}
	a.inflight[id] += delta
	if a.inflight[id] <= 0 {
		delete(a.inflight, id)
	}
}

func (a *Adapter) current(id string) string {
	if to, ok := a.alias[id]; ok {
		return to
	}
	return id
}

func describe(j job) string {
	if j.viewport != nil {
		return "save viewport"
	}
	c := j.change
	if c.OnConnection() {
		return fmt.Sprintf("%s connection %s", c.Kind, c.Connection.ID)
	}
	return fmt.Sprintf("%s element %s", c.Kind, c.Element.ID)
}
