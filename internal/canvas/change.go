package canvas

// ChangeKind names the persistence operation a Change maps to.
type ChangeKind string

const (
	ChangeCreate     ChangeKind = "create"
	ChangeUpdate     ChangeKind = "update"
	ChangeMove       ChangeKind = "move"
	ChangeDelete     ChangeKind = "delete"
	ChangeConnect    ChangeKind = "connect"
	ChangeDisconnect ChangeKind = "disconnect"
	ChangeRestyle    ChangeKind = "restyle"
)

// Change describes one local mutation that has already been applied to the
// board. It carries enough state to persist the mutation and to undo it.
//
//	create:     Element is the new element
//	update:     Before and Element are the states around Patch
//	move:       like update, Patch only carries Position
//	delete:     Element was removed, Cascade lists the connections removed with it
//	connect:    Connection is the new connection
//	disconnect: Connection was removed
//	restyle:    BeforeConnection and Connection are the states around ConnectionPatch
type Change struct {
	Kind       ChangeKind
	Element    Element
	Before     Element
	Patch      Patch
	Connection Connection
	Cascade    []Connection

	BeforeConnection Connection
	ConnectionPatch  ConnectionPatch
}

// OnConnection reports whether the change targets a connection rather than an
// element.
func (c Change) OnConnection() bool {
	switch c.Kind {
	case ChangeConnect, ChangeDisconnect, ChangeRestyle:
		return true
	}
	return false
}

// ChangeFunc receives every change the engine makes, in order, on the
// goroutine that drives the engine.
type ChangeFunc func(Change)
