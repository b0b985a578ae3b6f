package app

import (
	"errors"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

type FailureAction int

const (
	NoAction FailureAction = iota
	DropEvent
	KickConnection
)

// Policy decides what happens to a connection whose send failed.
type Policy interface {
	OnSendFailure(conn domain.ConnectionID, err error) FailureAction
}

// SimplePolicy kicks connections that cannot keep up. A kicked viewer comes
// back through the reconnect path and gets a fresh state snapshot.
type SimplePolicy struct{}

func (SimplePolicy) OnSendFailure(_ domain.ConnectionID, err error) FailureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return KickConnection
	}
	return DropEvent
}
