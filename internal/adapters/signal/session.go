package signal

import (
	"github.com/dkeye/watchparty/internal/domain"
)

type createPayload struct {
	HostName string `json:"hostName"`
	VideoURL string `json:"videoUrl"`
}

type joinPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

type reconnectHostPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	VideoURL  string `json:"videoUrl"`
}

func (ctl *SignalWSController) handleCreate(c *WsSignalConn, data []byte) {
	p, ok := decode[createPayload](ctl, c, data)
	if !ok {
		return
	}
	_, _ = ctl.Orch.CreateSession(c.id, p.HostName, p.VideoURL)
}

func (ctl *SignalWSController) handleJoin(c *WsSignalConn, data []byte) {
	p, ok := decode[joinPayload](ctl, c, data)
	if !ok {
		return
	}
	_ = ctl.Orch.JoinSession(c.id, domain.ParseSessionID(p.SessionID), p.Name)
}

func (ctl *SignalWSController) handleReconnectHost(c *WsSignalConn, data []byte) {
	p, ok := decode[reconnectHostPayload](ctl, c, data)
	if !ok {
		return
	}
	_ = ctl.Orch.ReconnectAsHost(c.id, domain.ParseSessionID(p.SessionID), p.Name, p.VideoURL)
}

func (ctl *SignalWSController) handleReconnectViewer(c *WsSignalConn, data []byte) {
	p, ok := decode[joinPayload](ctl, c, data)
	if !ok {
		return
	}
	_ = ctl.Orch.ReconnectAsViewer(c.id, domain.ParseSessionID(p.SessionID), p.Name)
}

func (ctl *SignalWSController) handleLeave(c *WsSignalConn, data []byte) {
	p, ok := decode[sessionPayload](ctl, c, data)
	if !ok {
		return
	}
	_ = ctl.Orch.LeaveSession(c.id, domain.ParseSessionID(p.SessionID))
}
