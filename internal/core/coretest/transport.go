// Package coretest provides an in-memory core.Transport for tests.
package coretest

import (
	"slices"
	"sync"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

// Transport records every event instead of writing to a socket.
type Transport struct {
	mu     sync.Mutex
	groups map[domain.SessionID][]domain.ConnectionID
	sent   map[domain.ConnectionID][]core.Event
	fail   map[domain.ConnectionID]error
	closed []domain.ConnectionID
}

func NewTransport() *Transport {
	return &Transport{
		groups: make(map[domain.SessionID][]domain.ConnectionID),
		sent:   make(map[domain.ConnectionID][]core.Event),
		fail:   make(map[domain.ConnectionID]error),
	}
}

func (t *Transport) AddToGroup(conn domain.ConnectionID, group domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.groups[group], conn) {
		t.groups[group] = append(t.groups[group], conn)
	}
}

func (t *Transport) RemoveFromGroup(conn domain.ConnectionID, group domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := t.groups[group]
	if i := slices.Index(members, conn); i >= 0 {
		t.groups[group] = slices.Delete(members, i, i+1)
	}
	if len(t.groups[group]) == 0 {
		delete(t.groups, group)
	}
}

func (t *Transport) GroupMembers(group domain.SessionID) []domain.ConnectionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.groups[group])
}

func (t *Transport) Send(conn domain.ConnectionID, ev core.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fail[conn]; err != nil {
		return err
	}
	t.sent[conn] = append(t.sent[conn], ev)
	return nil
}

func (t *Transport) Close(conn domain.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = append(t.closed, conn)
}

// FailSends makes every later Send to conn return err.
func (t *Transport) FailSends(conn domain.ConnectionID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail[conn] = err
}

func (t *Transport) Events(conn domain.ConnectionID) []core.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.sent[conn])
}

func (t *Transport) EventsOfType(conn domain.ConnectionID, typ core.EventType) []core.Event {
	var out []core.Event
	for _, ev := range t.Events(conn) {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Total counts events sent to anyone.
func (t *Transport) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, evs := range t.sent {
		n += len(evs)
	}
	return n
}

func (t *Transport) InGroup(conn domain.ConnectionID, group domain.SessionID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Contains(t.groups[group], conn)
}

func (t *Transport) Closed() []domain.ConnectionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.closed)
}

// Reset forgets recorded events but keeps group membership.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = make(map[domain.ConnectionID][]core.Event)
	t.closed = nil
}

var _ core.Transport = (*Transport)(nil)
