package domain

import (
	"math"
	"slices"
	"time"
)

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionSeek  Action = "seek"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionPlay, ActionPause, ActionSeek:
		return a, nil
	}
	return "", ErrInvalidAction
}

type PlaybackState struct {
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	LastAction  Action  `json:"lastAction,omitempty"`
}

type Subtitle struct {
	Filename string
	Data     []byte
}

// Session is the full record of one watch party. HostConnID is empty while
// the session is orphaned.
type Session struct {
	ID              SessionID
	VideoURL        string
	HostName        string
	HostConnID      ConnectionID
	Viewers         []Viewer
	Playback        PlaybackState
	Subtitle        *Subtitle
	Chat            *ChatLog
	CreatedAt       time.Time
	StreamStartedAt *time.Time
}

func NewSession(id SessionID, hostName, videoURL string, host ConnectionID, now time.Time) *Session {
	return &Session{
		ID:         id,
		VideoURL:   videoURL,
		HostName:   hostName,
		HostConnID: host,
		Viewers:    []Viewer{},
		Chat:       NewChatLog(),
		CreatedAt:  now,
	}
}

func (s *Session) HasHost() bool { return s.HostConnID != "" }

func (s *Session) IsHost(conn ConnectionID) bool {
	return conn != "" && s.HostConnID == conn
}

func (s *Session) IsViewer(conn ConnectionID) bool {
	return s.viewerIndex(conn) >= 0
}

func (s *Session) IsParticipant(conn ConnectionID) bool {
	return s.IsHost(conn) || s.IsViewer(conn)
}

func (s *Session) IsEmpty() bool {
	return !s.HasHost() && len(s.Viewers) == 0
}

func (s *Session) viewerIndex(conn ConnectionID) int {
	return slices.IndexFunc(s.Viewers, func(v Viewer) bool { return v.ConnID == conn })
}

// AddViewer inserts conn, or renames the existing entry for conn. The host
// connection is never added. Reports whether a new entry was created.
func (s *Session) AddViewer(name string, conn ConnectionID) bool {
	if s.IsHost(conn) {
		return false
	}
	if i := s.viewerIndex(conn); i >= 0 {
		s.Viewers[i].Name = name
		return false
	}
	s.Viewers = append(s.Viewers, Viewer{Name: name, ConnID: conn})
	return true
}

// RebindViewer moves the first viewer named name onto conn. When no such
// viewer exists a new entry is added. The previous connection id is returned
// so the transport can drop it from the group.
func (s *Session) RebindViewer(name string, conn ConnectionID) (prev ConnectionID, added bool) {
	if s.IsHost(conn) {
		return "", false
	}
	if i := s.viewerIndex(conn); i >= 0 {
		s.Viewers[i].Name = name
		return "", false
	}
	i := slices.IndexFunc(s.Viewers, func(v Viewer) bool { return v.Name == name })
	if i < 0 {
		s.Viewers = append(s.Viewers, Viewer{Name: name, ConnID: conn})
		return "", true
	}
	prev = s.Viewers[i].ConnID
	s.Viewers[i].ConnID = conn
	return prev, false
}

func (s *Session) RemoveViewer(conn ConnectionID) bool {
	i := s.viewerIndex(conn)
	if i < 0 {
		return false
	}
	s.Viewers = slices.Delete(s.Viewers, i, i+1)
	return true
}

// ClaimHost makes conn the host. A viewer entry for conn is dropped so the
// host never shows up among the viewers.
func (s *Session) ClaimHost(name string, conn ConnectionID) {
	s.RemoveViewer(conn)
	s.HostConnID = conn
	if name != "" {
		s.HostName = name
	}
}

func (s *Session) ReleaseHost() {
	s.HostConnID = ""
}

// ApplyControl updates the playback clock on behalf of conn.
func (s *Session) ApplyControl(conn ConnectionID, action Action, at float64, playing bool, now time.Time) error {
	if !s.IsHost(conn) {
		return ErrUnauthorized
	}
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		return ErrInvalidTime
	}
	s.Playback = PlaybackState{CurrentTime: at, IsPlaying: playing, LastAction: action}
	if playing && action == ActionPlay && s.StreamStartedAt == nil {
		started := now
		s.StreamStartedAt = &started
	}
	return nil
}

// OffsetSeconds is how long the stream has been running, for late joiners.
func (s *Session) OffsetSeconds(now time.Time) float64 {
	if s.StreamStartedAt == nil {
		return 0
	}
	return now.Sub(*s.StreamStartedAt).Seconds()
}

func (s *Session) ViewerConnIDs() []ConnectionID {
	out := make([]ConnectionID, 0, len(s.Viewers))
	for _, v := range s.Viewers {
		out = append(out, v.ConnID)
	}
	return out
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() *Session {
	c := *s
	c.Viewers = slices.Clone(s.Viewers)
	if c.Viewers == nil {
		c.Viewers = []Viewer{}
	}
	if s.Chat != nil {
		c.Chat = s.Chat.clone()
	} else {
		c.Chat = NewChatLog()
	}
	if s.Subtitle != nil {
		sub := Subtitle{Filename: s.Subtitle.Filename, Data: slices.Clone(s.Subtitle.Data)}
		c.Subtitle = &sub
	}
	if s.StreamStartedAt != nil {
		t := *s.StreamStartedAt
		c.StreamStartedAt = &t
	}
	return &c
}
