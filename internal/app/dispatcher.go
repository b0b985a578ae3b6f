package app

import (
	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dispatcher fans events out through the transport. A failed send is logged
// and handed to the policy; it never stops the rest of the fan-out.
type Dispatcher struct {
	transport core.Transport
	policy    Policy
}

func NewDispatcher(t core.Transport, p Policy) *Dispatcher {
	if p == nil {
		p = SimplePolicy{}
	}
	return &Dispatcher{transport: t, policy: p}
}

func (d *Dispatcher) ToCaller(caller domain.ConnectionID, ev core.Event) bool {
	return d.ToConnection(caller, ev)
}

func (d *Dispatcher) ToConnection(conn domain.ConnectionID, ev core.Event) bool {
	if conn == "" {
		return false
	}
	if err := d.transport.Send(conn, ev); err != nil {
		d.onFailure(conn, ev, err)
		return false
	}
	return true
}

// ToGroup returns the number of connections the event was queued for.
func (d *Dispatcher) ToGroup(group domain.SessionID, ev core.Event) int {
	return d.ToGroupExcept(group, "", ev)
}

func (d *Dispatcher) ToGroupExcept(group domain.SessionID, exclude domain.ConnectionID, ev core.Event) int {
	sent := 0
	for _, conn := range d.transport.GroupMembers(group) {
		if conn == exclude {
			continue
		}
		if d.ToConnection(conn, ev) {
			sent++
		}
	}
	log.Debug().
		Str("module", "app.dispatcher").
		Str("sid", string(group)).
		Str("event", string(ev.Type)).
		Int("sent_to", sent).
		Msg("fan-out")
	return sent
}

func (d *Dispatcher) Join(conn domain.ConnectionID, group domain.SessionID) {
	d.transport.AddToGroup(conn, group)
}

func (d *Dispatcher) Leave(conn domain.ConnectionID, group domain.SessionID) {
	if conn == "" {
		return
	}
	d.transport.RemoveFromGroup(conn, group)
}

// Release empties the group of a deleted session.
func (d *Dispatcher) Release(group domain.SessionID) {
	for _, conn := range d.transport.GroupMembers(group) {
		d.transport.RemoveFromGroup(conn, group)
	}
}

func (d *Dispatcher) onFailure(conn domain.ConnectionID, ev core.Event, err error) {
	log.Warn().
		Err(err).
		Str("module", "app.dispatcher").
		Str("conn", string(conn)).
		Str("event", string(ev.Type)).
		Msg("send failed")
	switch d.policy.OnSendFailure(conn, err) {
	case KickConnection:
		d.transport.Close(conn)
	case DropEvent, NoAction:
	}
}
