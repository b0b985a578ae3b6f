// Package orch drives watch sessions: every participant action enters here,
// is applied to the registry as one atomic step, and is fanned out through
// the dispatcher afterwards.
package orch

import (
	"time"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	MsgStreamNotFound   = "Stream not found"
	MsgNoSubtitle       = "No subtitle"
	MsgNotParticipant   = "Not a participant"
	MsgSubtitleTooLarge = "subtitle_too_large"

	ReasonHostDisconnected = "Host disconnected"
	ReasonHostLeft         = "Host left"
	ReasonSessionDeleted   = "Session deleted"
	ReasonSessionExpired   = "Session expired"

	DefaultSubtitleMaxBytes = 2 << 20

	maxIDAttempts = 32
)

type Options struct {
	CleanupTTL       time.Duration
	SubtitleMaxBytes int
	Now              func() time.Time
}

type Coordinator struct {
	reg         *app.Registry
	disp        *app.Dispatcher
	cleanup     *app.CleanupScheduler
	now         func() time.Time
	subtitleMax int
}

func New(t core.Transport, p app.Policy, opts Options) *Coordinator {
	c := &Coordinator{
		reg:         app.NewRegistry(),
		disp:        app.NewDispatcher(t, p),
		now:         opts.Now,
		subtitleMax: opts.SubtitleMaxBytes,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.subtitleMax <= 0 {
		c.subtitleMax = DefaultSubtitleMaxBytes
	}
	c.cleanup = app.NewCleanupScheduler(opts.CleanupTTL, c.expire)
	return c
}

// Get returns a copy of the session.
func (c *Coordinator) Get(sid domain.SessionID) (*domain.Session, error) {
	return c.reg.Get(sid)
}

func (c *Coordinator) List() []*domain.Session {
	return c.reg.List()
}

func (c *Coordinator) Len() int { return c.reg.Len() }

// PendingCleanup reports whether sid is orphaned and waiting for expiry.
func (c *Coordinator) PendingCleanup(sid domain.SessionID) bool {
	return c.cleanup.Pending(sid)
}

// Shutdown stops every pending expiry. Sessions stay in memory until exit.
func (c *Coordinator) Shutdown() {
	c.cleanup.Stop()
	log.Info().Str("module", "app.orch").Int("sessions", c.reg.Len()).Msg("coordinator stopped")
}

// expire runs when a cleanup timer fires. A session that was reclaimed in
// the meantime has a host again and is kept.
func (c *Coordinator) expire(sid domain.SessionID) {
	last, ok := c.reg.DeleteIf(sid, func(s *domain.Session) bool { return !s.HasHost() })
	if !ok {
		return
	}
	c.disp.ToGroup(sid, core.NewEvent(core.EventStreamEnded, core.StreamEndedPayload{Reason: ReasonSessionExpired}))
	c.disp.Release(sid)
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(sid)).
		Int("viewers", len(last.Viewers)).
		Msg("session expired")
}

func (c *Coordinator) fail(caller domain.ConnectionID, msg string) {
	c.disp.ToCaller(caller, core.ErrorEvent(msg))
}

func playbackEvent(s *domain.Session, now time.Time) core.Event {
	return core.NewEvent(core.EventPlaybackState, core.PlaybackStatePayload{
		Action:        s.Playback.LastAction,
		Time:          s.Playback.CurrentTime,
		IsPlaying:     s.Playback.IsPlaying,
		OffsetSeconds: s.OffsetSeconds(now),
	})
}

func viewerCountEvent(s *domain.Session) core.Event {
	return core.NewEvent(core.EventViewerCountChanged, core.ViewerCountPayload{Count: len(s.Viewers)})
}

// sendState replays everything a (re)joining participant needs.
func (c *Coordinator) sendState(caller domain.ConnectionID, s *domain.Session) {
	c.disp.ToCaller(caller, core.NewEvent(core.EventJoined, core.JoinedPayload{
		SessionID: s.ID,
		VideoURL:  s.VideoURL,
		HostName:  s.HostName,
	}))
	c.disp.ToCaller(caller, playbackEvent(s, c.now()))
	c.disp.ToCaller(caller, core.NewEvent(core.EventChatHistory, core.ChatHistoryPayload{Messages: s.Chat.Snapshot()}))
	if s.Subtitle != nil {
		c.disp.ToCaller(caller, subtitleEvent(s.Subtitle))
	}
}
