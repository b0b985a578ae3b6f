package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession("ABC234", "alice", "http://v/1", "host-1", time.Now())
}

func TestSession_AddViewerNeverAddsHost(t *testing.T) {
	s := newTestSession()

	assert.False(t, s.AddViewer("alice", "host-1"))
	assert.Empty(t, s.Viewers)

	assert.True(t, s.AddViewer("bob", "c-1"))
	assert.False(t, s.AddViewer("bobby", "c-1"))
	require.Len(t, s.Viewers, 1)
	assert.Equal(t, "bobby", s.Viewers[0].Name)
}

func TestSession_RebindViewer(t *testing.T) {
	s := newTestSession()
	s.AddViewer("bob", "c-1")

	prev, added := s.RebindViewer("bob", "c-2")
	assert.Equal(t, ConnectionID("c-1"), prev)
	assert.False(t, added)
	require.Len(t, s.Viewers, 1)
	assert.Equal(t, ConnectionID("c-2"), s.Viewers[0].ConnID)

	prev, added = s.RebindViewer("carol", "c-3")
	assert.Empty(t, prev)
	assert.True(t, added)
	assert.Len(t, s.Viewers, 2)
}

func TestSession_ClaimHostDropsViewerEntry(t *testing.T) {
	s := newTestSession()
	s.AddViewer("bob", "c-1")
	s.ReleaseHost()
	assert.False(t, s.HasHost())

	s.ClaimHost("bob", "c-1")

	assert.True(t, s.IsHost("c-1"))
	assert.False(t, s.IsViewer("c-1"))
	assert.Equal(t, "bob", s.HostName)
}

func TestSession_ApplyControl(t *testing.T) {
	now := time.Now()

	t.Run("non host is rejected", func(t *testing.T) {
		s := newTestSession()
		s.AddViewer("bob", "c-1")
		err := s.ApplyControl("c-1", ActionPlay, 12.5, true, now)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, PlaybackState{}, s.Playback)
		assert.Nil(t, s.StreamStartedAt)
	})

	t.Run("bad time is rejected", func(t *testing.T) {
		s := newTestSession()
		for _, at := range []float64{-1, math.NaN(), math.Inf(1)} {
			assert.ErrorIs(t, s.ApplyControl("host-1", ActionSeek, at, false, now), ErrInvalidTime)
		}
	})

	t.Run("stream start is set once", func(t *testing.T) {
		s := newTestSession()
		require.NoError(t, s.ApplyControl("host-1", ActionPause, 3, false, now))
		assert.Nil(t, s.StreamStartedAt)

		require.NoError(t, s.ApplyControl("host-1", ActionPlay, 12.5, true, now))
		require.NotNil(t, s.StreamStartedAt)
		first := *s.StreamStartedAt

		require.NoError(t, s.ApplyControl("host-1", ActionPlay, 20, true, now.Add(time.Minute)))
		assert.Equal(t, first, *s.StreamStartedAt)
		assert.Equal(t, PlaybackState{CurrentTime: 20, IsPlaying: true, LastAction: ActionPlay}, s.Playback)
	})
}

func TestSession_CloneSharesNothing(t *testing.T) {
	s := newTestSession()
	s.AddViewer("bob", "c-1")
	m, _ := NewTextMessage("bob", "hi", time.Now())
	s.Chat.Append(m)
	s.Subtitle = &Subtitle{Filename: "a.srt", Data: []byte("1")}

	c := s.Clone()
	c.Viewers[0].Name = "mallory"
	c.Subtitle.Data[0] = '2'
	m2, _ := NewTextMessage("mallory", "x", time.Now())
	c.Chat.Append(m2)

	assert.Equal(t, "bob", s.Viewers[0].Name)
	assert.Equal(t, byte('1'), s.Subtitle.Data[0])
	assert.Equal(t, 1, s.Chat.Len())
}

func TestParseAction(t *testing.T) {
	for _, a := range []string{"play", "pause", "seek"} {
		got, err := ParseAction(a)
		assert.NoError(t, err)
		assert.Equal(t, Action(a), got)
	}
	_, err := ParseAction("rewind")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
