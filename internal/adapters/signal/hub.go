package signal

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Hub tracks live sockets and the session groups they belong to. It is the
// core.Transport the coordinator fans out through.
type Hub struct {
	mu     sync.RWMutex
	conns  map[domain.ConnectionID]*WsSignalConn
	groups map[domain.SessionID]map[domain.ConnectionID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[domain.ConnectionID]*WsSignalConn),
		groups: make(map[domain.SessionID]map[domain.ConnectionID]struct{}),
	}
}

func (h *Hub) Register(c *WsSignalConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

// Unregister forgets the connection and drops it from every group.
func (h *Hub) Unregister(id domain.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
	for sid, members := range h.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, sid)
		}
	}
}

func (h *Hub) AddToGroup(conn domain.ConnectionID, group domain.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[domain.ConnectionID]struct{})
		h.groups[group] = members
	}
	members[conn] = struct{}{}
}

func (h *Hub) RemoveFromGroup(conn domain.ConnectionID, group domain.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) GroupMembers(group domain.SessionID) []domain.ConnectionID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.ConnectionID, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		out = append(out, id)
	}
	return out
}

// Send queues ev without waiting for the socket.
func (h *Hub) Send(conn domain.ConnectionID, ev core.Event) error {
	h.mu.RLock()
	c, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return core.ErrUnknownConn
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

func (h *Hub) Close(conn domain.ConnectionID) {
	h.mu.RLock()
	c, ok := h.conns[conn]
	h.mu.RUnlock()
	if ok {
		c.Close()
	}
}

// CloseAll drops every socket. Read pumps then report the disconnects.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]*WsSignalConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
	log.Info().Str("module", "signal").Int("conns", len(conns)).Msg("hub closed")
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

var _ core.Transport = (*Hub)(nil)
