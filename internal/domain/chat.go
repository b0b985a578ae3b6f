package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/segmentio/ksuid"
)

// ChatHistoryLimit is the number of messages a session keeps.
const ChatHistoryLimit = 100

const (
	MaxChatTextLen = 2000
	MaxAudioRefLen = 512
)

type ChatKind string

const (
	ChatText  ChatKind = "text"
	ChatAudio ChatKind = "audio"
)

type ChatMessage struct {
	ID                   string   `json:"id"`
	Sender               string   `json:"sender"`
	Kind                 ChatKind `json:"kind"`
	Text                 string   `json:"text,omitempty"`
	AudioRef             string   `json:"audioRef,omitempty"`
	AudioDurationSeconds float64  `json:"audioDurationSeconds,omitempty"`
	TimestampMillis      int64    `json:"timestampMillis"`
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func NewTextMessage(sender, text string, now time.Time) (ChatMessage, error) {
	sender, err := CleanName(sender)
	if err != nil {
		return ChatMessage{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	text = truncate(text, MaxChatTextLen)
	return ChatMessage{
		ID:              ksuid.New().String(),
		Sender:          sender,
		Kind:            ChatText,
		Text:            text,
		TimestampMillis: now.UnixMilli(),
	}, nil
}

func NewAudioMessage(sender, ref string, duration float64, now time.Time) (ChatMessage, error) {
	sender, err := CleanName(sender)
	if err != nil {
		return ChatMessage{}, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	if len(ref) > MaxAudioRefLen {
		return ChatMessage{}, ErrAudioRefTooLong
	}
	if duration < 0 {
		duration = 0
	}
	return ChatMessage{
		ID:                   ksuid.New().String(),
		Sender:               sender,
		Kind:                 ChatAudio,
		AudioRef:             ref,
		AudioDurationSeconds: duration,
		TimestampMillis:      now.UnixMilli(),
	}, nil
}

// ChatLog is a sliding window over the most recent ChatHistoryLimit messages.
type ChatLog struct {
	msgs []ChatMessage
}

func NewChatLog() *ChatLog {
	return &ChatLog{msgs: make([]ChatMessage, 0, ChatHistoryLimit)}
}

// Append adds m at the tail and drops the oldest entries beyond the limit.
func (l *ChatLog) Append(m ChatMessage) {
	l.msgs = append(l.msgs, m)
	if over := len(l.msgs) - ChatHistoryLimit; over > 0 {
		l.msgs = append(l.msgs[:0], l.msgs[over:]...)
	}
}

func (l *ChatLog) Len() int { return len(l.msgs) }

// Snapshot returns a copy in insertion order.
func (l *ChatLog) Snapshot() []ChatMessage {
	out := make([]ChatMessage, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *ChatLog) clone() *ChatLog {
	c := NewChatLog()
	c.msgs = append(c.msgs, l.msgs...)
	return c
}
