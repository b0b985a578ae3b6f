package core

import (
	"errors"

	"github.com/dkeye/watchparty/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
	ErrUnknownConn  = errors.New("unknown connection")
)

// Transport abstracts the bidirectional messaging layer.
// Owned by the adapter; the core never touches sockets directly.
type Transport interface {
	AddToGroup(conn domain.ConnectionID, group domain.SessionID)
	RemoveFromGroup(conn domain.ConnectionID, group domain.SessionID)
	// GroupMembers returns a copy of the connections currently in group.
	GroupMembers(group domain.SessionID) []domain.ConnectionID
	// Send queues ev for conn. It must not block on network I/O.
	Send(conn domain.ConnectionID, ev Event) error
	// Close drops conn; the adapter reports the disconnect as usual.
	Close(conn domain.ConnectionID)
}
