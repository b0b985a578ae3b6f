package core

import "github.com/dkeye/watchparty/internal/domain"

type EventType string

const (
	EventCreated            EventType = "Created"
	EventJoined             EventType = "Joined"
	EventError              EventType = "Error"
	EventChatHistory        EventType = "ChatHistory"
	EventReceiveMessage     EventType = "ReceiveMessage"
	EventReceiveControl     EventType = "ReceiveControl"
	EventViewerCountChanged EventType = "ViewerCountChanged"
	EventViewerJoined       EventType = "ViewerJoined"
	EventStreamEnded        EventType = "StreamEnded"
	EventSubtitleData       EventType = "SubtitleData"
	EventPlaybackState      EventType = "PlaybackState"
	EventHostReconnected    EventType = "HostReconnected"
	EventQualityCheck       EventType = "StreamQualityCheck"
	EventQualityReport      EventType = "ReceiveQualityReport"
	EventPong               EventType = "Pong"
	EventLeft               EventType = "Left"
)

// Event is one outbound message. Data is marshalled as JSON by the adapter.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

type CreatedPayload struct {
	SessionID domain.SessionID `json:"sessionId"`
	VideoURL  string           `json:"videoUrl"`
}

type JoinedPayload struct {
	SessionID domain.SessionID `json:"sessionId"`
	VideoURL  string           `json:"videoUrl"`
	HostName  string           `json:"hostName"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type ChatHistoryPayload struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type ControlPayload struct {
	Action    domain.Action `json:"action"`
	Time      float64       `json:"time"`
	IsPlaying bool          `json:"isPlaying"`
}

type PlaybackStatePayload struct {
	Action        domain.Action `json:"action,omitempty"`
	Time          float64       `json:"time"`
	IsPlaying     bool          `json:"isPlaying"`
	OffsetSeconds float64       `json:"offsetSeconds"`
}

type ViewerCountPayload struct {
	Count int `json:"count"`
}

type NamePayload struct {
	Name string `json:"name"`
}

type LeftPayload struct {
	SessionID domain.SessionID `json:"sessionId"`
}

type StreamEndedPayload struct {
	Reason string `json:"reason"`
}

type SubtitlePayload struct {
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

type QualityReportPayload struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
	Latency      float64             `json:"latency"`
	Quality      string              `json:"quality"`
}

func NewEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data}
}

func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Message: msg}}
}
