package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Hub.Unregister(c.id)
		ctl.Orch.OnDisconnect(c.id)
		c.Close()
		cancel()
		ctl.pumps.Done()
	}()

	pongWait := 2 * ctl.opts.PingPeriod
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad json")
		ctl.sendError(c, errBadPayload)
		return
	}

	switch env.Type {
	case "create":
		ctl.handleCreate(c, data)
	case "join":
		ctl.handleJoin(c, data)
	case "reconnect_host":
		ctl.handleReconnectHost(c, data)
	case "reconnect_viewer":
		ctl.handleReconnectViewer(c, data)
	case "leave":
		ctl.handleLeave(c, data)
	case "control":
		ctl.handleControl(c, data)
	case "chat":
		ctl.handleChat(c, data)
	case "upload_subtitle":
		ctl.handleUploadSubtitle(c, data)
	case "fetch_subtitle":
		ctl.handleFetchSubtitle(c, data)
	case "request_quality":
		ctl.handleRequestQuality(c, data)
	case "report_quality":
		ctl.handleReportQuality(c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, errUnknownType)
	}
}

const (
	errBadPayload  = "bad_payload"
	errUnknownType = "unknown_type"
	errRateLimited = "rate_limited"
)

// decode unmarshals a frame into T, answering bad_payload on failure.
func decode[T any](ctl *SignalWSController, c *WsSignalConn, data []byte) (T, bool) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad payload")
		ctl.sendError(c, errBadPayload)
		return p, false
	}
	return p, true
}

func (ctl *SignalWSController) send(c *WsSignalConn, ev core.Event) {
	if err := ctl.Hub.Send(c.id, ev); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Str("event", string(ev.Type)).Msg("send")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, msg string) {
	ctl.send(c, core.ErrorEvent(msg))
}
