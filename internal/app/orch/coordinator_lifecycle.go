package orch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// errSkip aborts a Mutate without touching the record.
var errSkip = errors.New("skip")

func (c *Coordinator) newSession(hostName, videoURL string, host domain.ConnectionID) (*domain.Session, error) {
	name, err := domain.CleanName(hostName)
	if err != nil {
		return nil, err
	}
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, domain.ErrInvalidVideoURL
	}
	for range maxIDAttempts {
		s := domain.NewSession(domain.NewSessionID(), name, videoURL, host, c.now())
		err := c.reg.Create(s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("allocate session id: %w", domain.ErrAlreadyExists)
}

// CreateSession opens a session hosted by caller and reports its id.
func (c *Coordinator) CreateSession(caller domain.ConnectionID, hostName, videoURL string) (domain.SessionID, error) {
	s, err := c.newSession(hostName, videoURL, caller)
	if err != nil {
		c.fail(caller, err.Error())
		return "", err
	}
	c.cleanup.Cancel(s.ID)
	c.disp.Join(caller, s.ID)
	c.disp.ToCaller(caller, core.NewEvent(core.EventCreated, core.CreatedPayload{SessionID: s.ID, VideoURL: s.VideoURL}))
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(s.ID)).
		Str("conn", string(caller)).
		Msg("session created")
	return s.ID, nil
}

// OpenSession creates a session with no host yet. It is orphaned from the
// start and expires unless someone claims it with ReconnectAsHost.
func (c *Coordinator) OpenSession(hostName, videoURL string) (*domain.Session, error) {
	s, err := c.newSession(hostName, videoURL, "")
	if err != nil {
		return nil, err
	}
	c.cleanup.Schedule(s.ID)
	return s, nil
}

// JoinSession adds caller as a viewer.
func (c *Coordinator) JoinSession(caller domain.ConnectionID, sid domain.SessionID, name string) error {
	name, err := domain.CleanName(name)
	if err != nil {
		c.fail(caller, err.Error())
		return err
	}
	c.cleanup.Cancel(sid)
	view, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		s.AddViewer(name, caller)
		return nil
	})
	if err != nil {
		c.fail(caller, MsgStreamNotFound)
		return err
	}
	c.disp.Join(caller, sid)
	c.sendState(caller, view)
	c.disp.ToGroup(sid, viewerCountEvent(view))
	c.disp.ToGroup(sid, core.NewEvent(core.EventViewerJoined, core.NamePayload{Name: name}))
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(sid)).
		Str("conn", string(caller)).
		Str("name", name).
		Msg("viewer joined")
	return nil
}

// ReconnectAsHost hands host authority to caller. An unknown session is
// ignored. Playback state is left as it was.
func (c *Coordinator) ReconnectAsHost(caller domain.ConnectionID, sid domain.SessionID, name, videoURL string) error {
	name, _ = domain.CleanName(name)
	c.cleanup.Cancel(sid)
	var prev domain.ConnectionID
	view, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		prev = s.HostConnID
		s.ClaimHost(name, caller)
		return nil
	})
	if err != nil {
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Msg("host reconnect to unknown session")
		return err
	}
	if prev != "" && prev != caller {
		c.disp.Leave(prev, sid)
	}
	if videoURL != "" && videoURL != view.VideoURL {
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Msg("host reconnected with a different video url")
	}
	c.disp.Join(caller, sid)
	c.sendState(caller, view)
	c.disp.ToGroupExcept(sid, caller, core.NewEvent(core.EventHostReconnected, core.NamePayload{Name: view.HostName}))
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(sid)).
		Str("conn", string(caller)).
		Msg("host reconnected")
	return nil
}

// ReconnectAsViewer moves the viewer entry named name onto caller, so a
// refreshed page does not leave a duplicate behind.
func (c *Coordinator) ReconnectAsViewer(caller domain.ConnectionID, sid domain.SessionID, name string) error {
	name, err := domain.CleanName(name)
	if err != nil {
		c.fail(caller, err.Error())
		return err
	}
	c.cleanup.Cancel(sid)
	var (
		prev  domain.ConnectionID
		added bool
	)
	view, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		prev, added = s.RebindViewer(name, caller)
		return nil
	})
	if err != nil {
		c.fail(caller, MsgStreamNotFound)
		return err
	}
	if prev != "" && prev != caller {
		c.disp.Leave(prev, sid)
	}
	c.disp.Join(caller, sid)
	c.sendState(caller, view)
	if added {
		c.disp.ToGroup(sid, viewerCountEvent(view))
	}
	log.Info().
		Str("module", "app.orch").
		Str("sid", string(sid)).
		Str("conn", string(caller)).
		Bool("added", added).
		Msg("viewer reconnected")
	return nil
}

const (
	roleNone = iota
	roleHost
	roleViewer
)

// OnDisconnect removes conn from every session it took part in.
func (c *Coordinator) OnDisconnect(conn domain.ConnectionID) {
	for _, sid := range c.reg.IDs() {
		c.depart(conn, sid, ReasonHostDisconnected)
	}
}

// LeaveSession takes caller out of one session while its socket stays open.
// A caller that is not in the session is ignored.
func (c *Coordinator) LeaveSession(caller domain.ConnectionID, sid domain.SessionID) error {
	if !c.depart(caller, sid, ReasonHostLeft) {
		return domain.ErrNotFound
	}
	c.disp.ToCaller(caller, core.NewEvent(core.EventLeft, core.LeftPayload{SessionID: sid}))
	return nil
}

// depart drops conn from sid as host or viewer and reports whether it was
// there. A departing host orphans the session.
func (c *Coordinator) depart(conn domain.ConnectionID, sid domain.SessionID, hostReason string) bool {
	role := roleNone
	view, err := c.reg.Mutate(sid, func(s *domain.Session) error {
		switch {
		case s.IsHost(conn):
			s.ReleaseHost()
			role = roleHost
		case s.RemoveViewer(conn):
			role = roleViewer
		default:
			return errSkip
		}
		return nil
	})
	if err != nil {
		return false
	}
	c.disp.Leave(conn, sid)

	switch role {
	case roleHost:
		c.disp.ToGroup(sid, core.NewEvent(core.EventStreamEnded, core.StreamEndedPayload{Reason: hostReason}))
		c.cleanup.Schedule(sid)
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("conn", string(conn)).Msg("host left, session orphaned")
	case roleViewer:
		c.disp.ToGroup(sid, viewerCountEvent(view))
		if view.IsEmpty() {
			c.cleanup.Schedule(sid)
		}
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("conn", string(conn)).Msg("viewer left")
	}
	return true
}

// DeleteSession removes sid right away and tells everyone still in it.
func (c *Coordinator) DeleteSession(sid domain.SessionID) error {
	c.cleanup.Cancel(sid)
	if _, ok := c.reg.Delete(sid); !ok {
		return domain.ErrNotFound
	}
	c.disp.ToGroup(sid, core.NewEvent(core.EventStreamEnded, core.StreamEndedPayload{Reason: ReasonSessionDeleted}))
	c.disp.Release(sid)
	return nil
}
