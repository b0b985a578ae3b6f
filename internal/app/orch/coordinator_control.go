package orch

import (
	"encoding/base64"
	"errors"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// SendControl applies a host playback command and forwards it to everyone
// else. Anything else (unknown session, non-host, bad input) is dropped.
func (c *Coordinator) SendControl(caller domain.ConnectionID, sid domain.SessionID, action string, at float64, playing bool) {
	act, err := domain.ParseAction(action)
	if err != nil {
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Str("action", action).Msg("control dropped")
		return
	}
	_, err = c.reg.Mutate(sid, func(s *domain.Session) error {
		return s.ApplyControl(caller, act, at, playing, c.now())
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Str("conn", string(caller)).Msg("control dropped")
		return
	}
	c.disp.ToGroupExcept(sid, caller, core.NewEvent(core.EventReceiveControl, core.ControlPayload{
		Action:    act,
		Time:      at,
		IsPlaying: playing,
	}))
}

// SendChatMessage appends a text message and echoes it to the whole group,
// sender included.
func (c *Coordinator) SendChatMessage(sid domain.SessionID, sender, text string) {
	msg, err := domain.NewTextMessage(sender, text, c.now())
	if err != nil {
		return
	}
	c.appendChat(sid, msg)
}

// SendAudioMessage is SendChatMessage for an already uploaded voice clip.
func (c *Coordinator) SendAudioMessage(sid domain.SessionID, sender, ref string, duration float64) {
	msg, err := domain.NewAudioMessage(sender, ref, duration, c.now())
	if err != nil {
		return
	}
	c.appendChat(sid, msg)
}

func (c *Coordinator) appendChat(sid domain.SessionID, msg domain.ChatMessage) {
	_, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		s.Chat.Append(msg)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Msg("chat dropped")
		return
	}
	c.disp.ToGroup(sid, core.NewEvent(core.EventReceiveMessage, msg))
}

func subtitleEvent(sub *domain.Subtitle) core.Event {
	return core.NewEvent(core.EventSubtitleData, core.SubtitlePayload{
		Base64:   base64.StdEncoding.EncodeToString(sub.Data),
		Filename: sub.Filename,
	})
}

// UploadSubtitle replaces the session subtitle. Only the host may do it.
func (c *Coordinator) UploadSubtitle(caller domain.ConnectionID, sid domain.SessionID, filename string, data []byte) {
	view, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		if !s.IsHost(caller) {
			return domain.ErrUnauthorized
		}
		if len(data) > c.subtitleMax {
			return domain.ErrSubtitleTooLarge
		}
		s.Subtitle = &domain.Subtitle{Filename: filename, Data: append([]byte(nil), data...)}
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrSubtitleTooLarge):
		c.fail(caller, MsgSubtitleTooLarge)
		return
	case err != nil:
		log.Debug().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Msg("subtitle dropped")
		return
	}
	c.disp.ToGroupExcept(sid, caller, subtitleEvent(view.Subtitle))
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(sid)).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("subtitle uploaded")
}

// FetchSubtitle sends the current subtitle to a participant.
func (c *Coordinator) FetchSubtitle(caller domain.ConnectionID, sid domain.SessionID) error {
	s, err := c.reg.Get(sid)
	if err != nil {
		c.fail(caller, MsgStreamNotFound)
		return err
	}
	if !s.IsParticipant(caller) {
		c.fail(caller, MsgNotParticipant)
		return domain.ErrUnauthorized
	}
	if s.Subtitle == nil {
		c.fail(caller, MsgNoSubtitle)
		return domain.ErrNotFound
	}
	c.disp.ToCaller(caller, subtitleEvent(s.Subtitle))
	return nil
}

// RequestStreamQuality asks every viewer to report back. Host only.
func (c *Coordinator) RequestStreamQuality(caller domain.ConnectionID, sid domain.SessionID) {
	s, err := c.reg.Get(sid)
	if err != nil || !s.IsHost(caller) {
		return
	}
	c.disp.ToGroupExcept(sid, caller, core.NewEvent(core.EventQualityCheck, nil))
}

// ReportStreamQuality forwards a participant's measurement to the host.
func (c *Coordinator) ReportStreamQuality(caller domain.ConnectionID, sid domain.SessionID, latency float64, quality string) {
	s, err := c.reg.Get(sid)
	if err != nil || !s.HasHost() || !s.IsParticipant(caller) {
		return
	}
	c.disp.ToConnection(s.HostConnID, core.NewEvent(core.EventQualityReport, core.QualityReportPayload{
		ConnectionID: caller,
		Latency:      latency,
		Quality:      quality,
	}))
}
