package signal

import (
	"encoding/base64"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type controlPayload struct {
	SessionID string  `json:"sessionId"`
	Action    string  `json:"action"`
	Time      float64 `json:"time"`
	IsPlaying bool    `json:"isPlaying"`
}

type chatPayload struct {
	SessionID     string  `json:"sessionId"`
	Sender        string  `json:"sender"`
	Text          string  `json:"text"`
	AudioRef      string  `json:"audioRef"`
	AudioDuration float64 `json:"audioDurationSeconds"`
}

type subtitlePayload struct {
	SessionID string `json:"sessionId"`
	Filename  string `json:"filename"`
	Base64    string `json:"base64"`
}

type qualityPayload struct {
	SessionID string  `json:"sessionId"`
	Latency   float64 `json:"latency"`
	Quality   string  `json:"quality"`
}

func (ctl *SignalWSController) handleControl(c *WsSignalConn, data []byte) {
	p, ok := decode[controlPayload](ctl, c, data)
	if !ok {
		return
	}
	ctl.Orch.SendControl(c.id, domain.ParseSessionID(p.SessionID), p.Action, p.Time, p.IsPlaying)
}

// rateKey prefers the browser token so reconnecting does not reset the window.
func (c *WsSignalConn) rateKey() string {
	if c.token != "" {
		return c.token
	}
	return string(c.id)
}

func (ctl *SignalWSController) handleChat(c *WsSignalConn, data []byte) {
	p, ok := decode[chatPayload](ctl, c, data)
	if !ok {
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(c.rateKey()) {
		ctl.sendError(c, errRateLimited)
		return
	}
	sid := domain.ParseSessionID(p.SessionID)
	if p.AudioRef != "" {
		ctl.Orch.SendAudioMessage(sid, p.Sender, p.AudioRef, p.AudioDuration)
		return
	}
	ctl.Orch.SendChatMessage(sid, p.Sender, p.Text)
}

func (ctl *SignalWSController) handleUploadSubtitle(c *WsSignalConn, data []byte) {
	p, ok := decode[subtitlePayload](ctl, c, data)
	if !ok {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(p.Base64)
	if err != nil {
		ctl.sendError(c, errBadPayload)
		return
	}
	ctl.Orch.UploadSubtitle(c.id, domain.ParseSessionID(p.SessionID), p.Filename, raw)
}

func (ctl *SignalWSController) handleFetchSubtitle(c *WsSignalConn, data []byte) {
	p, ok := decode[sessionPayload](ctl, c, data)
	if !ok {
		return
	}
	_ = ctl.Orch.FetchSubtitle(c.id, domain.ParseSessionID(p.SessionID))
}

func (ctl *SignalWSController) handleRequestQuality(c *WsSignalConn, data []byte) {
	p, ok := decode[sessionPayload](ctl, c, data)
	if !ok {
		return
	}
	ctl.Orch.RequestStreamQuality(c.id, domain.ParseSessionID(p.SessionID))
}

func (ctl *SignalWSController) handleReportQuality(c *WsSignalConn, data []byte) {
	p, ok := decode[qualityPayload](ctl, c, data)
	if !ok {
		return
	}
	ctl.Orch.ReportStreamQuality(c.id, domain.ParseSessionID(p.SessionID), p.Latency, p.Quality)
}

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.send(c, core.NewEvent(core.EventPong, nil))
}
