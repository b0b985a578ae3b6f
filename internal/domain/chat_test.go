package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLog_KeepsLastHundredInOrder(t *testing.T) {
	log := NewChatLog()
	now := time.Now()
	for i := 0; i < 105; i++ {
		m, err := NewTextMessage("alice", fmt.Sprintf("msg %d", i), now)
		require.NoError(t, err)
		log.Append(m)
		assert.LessOrEqual(t, log.Len(), ChatHistoryLimit)
	}

	got := log.Snapshot()
	require.Len(t, got, ChatHistoryLimit)
	for i, m := range got {
		assert.Equal(t, fmt.Sprintf("msg %d", i+5), m.Text)
	}
}

func TestChatLog_SnapshotIsACopy(t *testing.T) {
	log := NewChatLog()
	m, err := NewTextMessage("bob", "hi", time.Now())
	require.NoError(t, err)
	log.Append(m)

	snap := log.Snapshot()
	snap[0].Text = "changed"

	assert.Equal(t, "hi", log.Snapshot()[0].Text)
}

func TestNewTextMessage(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name    string
		text    string
		want    string
		wantErr error
	}{
		{name: "plain", text: "hello", want: "hello"},
		{name: "trimmed", text: "  hello \n", want: "hello"},
		{name: "empty", text: "", wantErr: ErrEmptyMessage},
		{name: "only spaces", text: "   ", wantErr: ErrEmptyMessage},
		{name: "long ascii", text: strings.Repeat("a", MaxChatTextLen+10), want: strings.Repeat("a", MaxChatTextLen)},
		{name: "cut before split rune", text: strings.Repeat("a", MaxChatTextLen-1) + "é", want: strings.Repeat("a", MaxChatTextLen-1)},
		{name: "multibyte fits", text: strings.Repeat("a", MaxChatTextLen-2) + "é", want: strings.Repeat("a", MaxChatTextLen-2) + "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewTextMessage("carol", tt.text, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Text)
			assert.True(t, utf8.ValidString(m.Text))
			assert.LessOrEqual(t, len(m.Text), MaxChatTextLen)
			assert.Equal(t, ChatText, m.Kind)
			assert.Equal(t, "carol", m.Sender)
			assert.Equal(t, now.UnixMilli(), m.TimestampMillis)
			assert.NotEmpty(t, m.ID)
		})
	}
}

func TestNewAudioMessage(t *testing.T) {
	m, err := NewAudioMessage("dave", "clip-1.webm", 3.5, time.Now())
	require.NoError(t, err)
	assert.Equal(t, ChatAudio, m.Kind)
	assert.Equal(t, "clip-1.webm", m.AudioRef)
	assert.Equal(t, 3.5, m.AudioDurationSeconds)

	_, err = NewAudioMessage("dave", " ", 1, time.Now())
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatMessage_SenderAndRefLimits(t *testing.T) {
	now := time.Now()
	huge := strings.Repeat("x", 1<<20)

	tests := []struct {
		name    string
		build   func() (ChatMessage, error)
		wantErr error
	}{
		{"text sender too long", func() (ChatMessage, error) { return NewTextMessage(huge, "hi", now) }, ErrNameTooLong},
		{"text sender empty", func() (ChatMessage, error) { return NewTextMessage("  ", "hi", now) }, ErrNameEmpty},
		{"audio sender too long", func() (ChatMessage, error) { return NewAudioMessage(huge, "clip.webm", 1, now) }, ErrNameTooLong},
		{"audio ref too long", func() (ChatMessage, error) { return NewAudioMessage("bob", huge, 1, now) }, ErrAudioRefTooLong},
		{"audio ref at limit", func() (ChatMessage, error) { return NewAudioMessage("bob", strings.Repeat("r", MaxAudioRefLen), 1, now) }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
